package style

// LineStyle is the color and pixel width of a polyline.
type LineStyle struct {
	Color Color   `yaml:"color" json:"color"`
	Width float64 `yaml:"width" json:"width"`
}

// DefaultRoadStyle applies to road classes missing from the table.
var DefaultRoadStyle = LineStyle{Color: White, Width: 1}

// RoadStyles maps an OSM fclass to its line style.
type RoadStyles map[string]LineStyle

// DefaultRoadStyles returns the built-in road class table.
func DefaultRoadStyles() RoadStyles {
	return RoadStyles{
		"motorway":    {Color: Red, Width: 8},
		"trunk":       {Color: Orange, Width: 6},
		"primary":     {Color: Yellow, Width: 5},
		"secondary":   {Color: LightBlue, Width: 4},
		"tertiary":    {Color: LightGreen, Width: 3},
		"residential": {Color: LightGray, Width: 2},
		"service":     {Color: Gray, Width: 1},
	}
}

// Lookup returns the style for a road class, falling back to DefaultRoadStyle.
func (rs RoadStyles) Lookup(class string) LineStyle {
	if s, ok := rs[class]; ok {
		return s
	}
	return DefaultRoadStyle
}

// OLSPalette is the fill palette for the eight obstacle limitation surfaces, in file order.
func OLSPalette() []Color {
	return []Color{
		Cyan.WithAlpha(0.5),
		Purple.WithAlpha(0.5),
		Pink.WithAlpha(0.5),
		Orange.WithAlpha(0.5),
		Red.WithAlpha(0.5),
		Green.WithAlpha(0.5),
		Blue.WithAlpha(0.5),
		Magenta.WithAlpha(0.5),
	}
}
