package scene

import (
	"image"
	"image/color"
	"io"
	"math"

	"github.com/woozymasta/olsview/internal/geo"

	"github.com/chai2010/webp"
	"github.com/paulmach/orb"
	"golang.org/x/image/vector"
)

const renderMargin = 8

// Render draws the visible entities top-down into a w x h image, fitting their
// combined extent. Entities are painted in insertion order.
func (s *Scene) Render(w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	visible, bound := s.visible()
	if len(visible) == 0 || w <= 2*renderMargin || h <= 2*renderMargin {
		return dst
	}

	proj := newProjection(bound, w, h)
	for _, e := range visible {
		if e.IsPolygon() {
			pg := e.def.Polygon
			fillRing(dst, proj, e.positions, pg.Material.RGBA())
			if pg.Outline {
				strokeLine(dst, proj, e.positions, 1, true, pg.OutlineColor.RGBA())
			}
			continue
		}

		pl := e.def.Polyline
		strokeLine(dst, proj, e.positions, pl.Width, false, pl.Material.RGBA())
	}

	return dst
}

// Unproject maps a pixel of a w x h Render output back to lon/lat.
// It reports false when nothing visible would be drawn.
func (s *Scene) Unproject(x, y float64, w, h int) (lon, lat float64, ok bool) {
	visible, bound := s.visible()
	if len(visible) == 0 || w <= 2*renderMargin || h <= 2*renderMargin {
		return 0, 0, false
	}
	lon, lat = newProjection(bound, w, h).inverse(x, y)
	return lon, lat, true
}

func (s *Scene) visible() ([]*Entity, orb.Bound) {
	var visible []*Entity
	var bound orb.Bound
	for _, e := range s.Entities() {
		if !e.Show() {
			continue
		}
		if len(visible) == 0 {
			bound = e.bound
		} else {
			bound = bound.Union(e.bound)
		}
		visible = append(visible, e)
	}
	return visible, bound
}

// EncodeWebP writes img as lossy WebP.
func EncodeWebP(w io.Writer, img image.Image, quality float32) error {
	return webp.Encode(w, img, &webp.Options{Lossless: false, Quality: quality})
}

// projection maps lon/lat into pixel space with an equirectangular
// approximation scaled by the cosine of the mid latitude.
type projection struct {
	minLon, maxLat float64
	kx, scale      float64
	offX, offY     float64
}

func newProjection(b orb.Bound, w, h int) projection {
	midLat := (b.Min[1] + b.Max[1]) / 2
	kx := math.Cos(midLat * math.Pi / 180)

	spanX := (b.Max[0] - b.Min[0]) * kx
	spanY := b.Max[1] - b.Min[1]
	availX := float64(w - 2*renderMargin)
	availY := float64(h - 2*renderMargin)

	scale := math.Inf(1)
	if spanX > 0 {
		scale = availX / spanX
	}
	if spanY > 0 {
		scale = math.Min(scale, availY/spanY)
	}
	if math.IsInf(scale, 1) {
		scale = 1
	}

	return projection{
		minLon: b.Min[0],
		maxLat: b.Max[1],
		kx:     kx,
		scale:  scale,
		offX:   renderMargin + (availX-spanX*scale)/2,
		offY:   renderMargin + (availY-spanY*scale)/2,
	}
}

func (p projection) point(pos geo.Position) (float32, float32) {
	x := p.offX + (pos.Lon-p.minLon)*p.kx*p.scale
	y := p.offY + (p.maxLat-pos.Lat)*p.scale
	return float32(x), float32(y)
}

func (p projection) inverse(x, y float64) (lon, lat float64) {
	lon = p.minLon + (x-p.offX)/(p.kx*p.scale)
	lat = p.maxLat - (y-p.offY)/p.scale
	return lon, lat
}

func fillRing(dst *image.RGBA, proj projection, ring []geo.Position, c color.RGBA) {
	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())

	x, y := proj.point(ring[0])
	z.MoveTo(x, y)
	for _, pos := range ring[1:] {
		x, y = proj.point(pos)
		z.LineTo(x, y)
	}
	z.ClosePath()

	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}

// strokeLine rasterizes each segment as a quad of the given pixel width.
func strokeLine(dst *image.RGBA, proj projection, line []geo.Position, width float64, closed bool, c color.RGBA) {
	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	half := float32(math.Max(width, 1) / 2)

	segment := func(a, bb geo.Position) {
		ax, ay := proj.point(a)
		bx, by := proj.point(bb)
		dx, dy := bx-ax, by-ay
		l := float32(math.Hypot(float64(dx), float64(dy)))
		if l == 0 {
			return
		}
		nx, ny := -dy/l*half, dx/l*half

		z.MoveTo(ax+nx, ay+ny)
		z.LineTo(bx+nx, by+ny)
		z.LineTo(bx-nx, by-ny)
		z.LineTo(ax-nx, ay-ny)
		z.ClosePath()
	}

	for i := 1; i < len(line); i++ {
		segment(line[i-1], line[i])
	}
	if closed && len(line) > 2 {
		segment(line[len(line)-1], line[0])
	}

	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}
