// Package style holds display colors and the category styling tables.
package style

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is a straight-alpha RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// WithAlpha returns a copy of c with the given alpha.
func (c Color) WithAlpha(a float64) Color {
	c.A = a
	return c
}

// RGBA converts to an 8-bit premultiplied color for rasterization.
func (c Color) RGBA() color.RGBA {
	clamp := func(v float64) uint8 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return uint8(v*255 + 0.5)
	}

	a := clamp(c.A)
	return color.RGBA{
		R: clamp(c.R * c.A),
		G: clamp(c.G * c.A),
		B: clamp(c.B * c.A),
		A: a,
	}
}

// String renders the color as #rrggbbaa.
func (c Color) String() string {
	nc := color.NRGBA{
		R: uint8(c.R*255 + 0.5),
		G: uint8(c.G*255 + 0.5),
		B: uint8(c.B*255 + 0.5),
		A: uint8(c.A*255 + 0.5),
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", nc.R, nc.G, nc.B, nc.A)
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts a CSS color name, optionally suffixed with "@alpha"
// (e.g. "cyan@0.5"), or a #rrggbb / #rrggbbaa hex value.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Parse reads a color in the forms accepted by UnmarshalText.
func Parse(s string) (Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return Color{}, fmt.Errorf("empty color")
	}

	alpha := -1.0
	if i := strings.IndexByte(s, '@'); i >= 0 {
		a, err := strconv.ParseFloat(s[i+1:], 64)
		if err != nil || a < 0 || a > 1 {
			return Color{}, fmt.Errorf("invalid alpha in color %q", s)
		}
		alpha = a
		s = s[:i]
	}

	var c Color
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) != 6 && len(hex) != 8 {
			return Color{}, fmt.Errorf("invalid hex color %q", s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return Color{}, fmt.Errorf("invalid hex color %q", s)
		}
		if len(hex) == 6 {
			v = v<<8 | 0xff
		}
		c = Color{
			R: float64(v>>24&0xff) / 255,
			G: float64(v>>16&0xff) / 255,
			B: float64(v>>8&0xff) / 255,
			A: float64(v&0xff) / 255,
		}
	} else {
		named, ok := names[s]
		if !ok {
			return Color{}, fmt.Errorf("unknown color name %q", s)
		}
		c = named
	}

	if alpha >= 0 {
		c.A = alpha
	}
	return c, nil
}

func rgb(r, g, b uint8) Color {
	return Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255, A: 1}
}

// CSS named colors used by the surface layers.
var (
	White      = rgb(0xff, 0xff, 0xff)
	Yellow     = rgb(0xff, 0xff, 0x00)
	Orange     = rgb(0xff, 0xa5, 0x00)
	Cyan       = rgb(0x00, 0xff, 0xff)
	Purple     = rgb(0x80, 0x00, 0x80)
	Pink       = rgb(0xff, 0xc0, 0xcb)
	Red        = rgb(0xff, 0x00, 0x00)
	Green      = rgb(0x00, 0x80, 0x00)
	Blue       = rgb(0x00, 0x00, 0xff)
	Magenta    = rgb(0xff, 0x00, 0xff)
	LightGray  = rgb(0xd3, 0xd3, 0xd3)
	DarkGray   = rgb(0xa9, 0xa9, 0xa9)
	Gray       = rgb(0x80, 0x80, 0x80)
	LightBlue  = rgb(0xad, 0xd8, 0xe6)
	LightGreen = rgb(0x90, 0xee, 0x90)
)

var names = map[string]Color{
	"white":      White,
	"yellow":     Yellow,
	"orange":     Orange,
	"cyan":       Cyan,
	"purple":     Purple,
	"pink":       Pink,
	"red":        Red,
	"green":      Green,
	"blue":       Blue,
	"magenta":    Magenta,
	"lightgray":  LightGray,
	"darkgray":   DarkGray,
	"gray":       Gray,
	"lightblue":  LightBlue,
	"lightgreen": LightGreen,
}
