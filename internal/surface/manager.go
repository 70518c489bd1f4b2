// Package surface loads airport surface layers into a viewer and tracks their visibility.
package surface

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/woozymasta/olsview/internal/geo"
	"github.com/woozymasta/olsview/internal/metrics"
	"github.com/woozymasta/olsview/internal/style"
	"github.com/woozymasta/olsview/internal/viewer"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
)

// Category is a visibility toggle group.
type Category string

// Visibility categories.
const (
	CategoryApproach  Category = "approach"
	CategoryOLS       Category = "ols"
	CategoryBuildings Category = "buildings"
	CategoryRoads     Category = "roads"
	CategoryNatural   Category = "natural"
	CategoryTransport Category = "transport"
)

// Bucket is a registry group of primitives.
type Bucket string

// Registry buckets. Buildings and roads share BucketReseaux.
const (
	BucketApproach Bucket = "approach"
	BucketDXF      Bucket = "dxf"
	BucketReseaux  Bucket = "reseaux"
)

// Buckets lists the registry buckets in reporting order.
var Buckets = []Bucket{BucketApproach, BucketDXF, BucketReseaux}

// Fetcher returns the raw bytes of a named resource.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Manager owns the primitives created for each surface layer.
// It is not safe for concurrent use.
type Manager struct {
	viewer     viewer.Viewer
	fetcher    Fetcher
	visibility map[Category]bool
	buckets    map[Bucket][]entry
	opts       Options
}

// entry is a registered primitive tagged with the category it was created under.
type entry struct {
	prim     viewer.Primitive
	category Category
	extent   orb.Bound
}

// New creates a manager drawing into v and reading resources through f.
func New(v viewer.Viewer, f Fetcher, opts Options) *Manager {
	if opts.RoadStyles == nil {
		opts.RoadStyles = style.DefaultRoadStyles()
	}
	if opts.BuildingHeight == nil {
		opts.BuildingHeight = DefaultBuildingHeight
	}

	visibility := map[Category]bool{
		CategoryApproach:  true,
		CategoryBuildings: false,
		CategoryRoads:     false,
		CategoryOLS:       false,
		CategoryNatural:   false,
		CategoryTransport: false,
	}
	for k, v := range opts.Visibility {
		visibility[k] = v
	}

	return &Manager{
		viewer:     v,
		fetcher:    f,
		opts:       opts,
		visibility: visibility,
		buckets:    make(map[Bucket][]entry),
	}
}

// LoadApproachSurface loads the approach surface polygons, keeping their altitudes.
func (m *Manager) LoadApproachSurface(ctx context.Context) (loaded []viewer.Primitive) {
	defer m.recoverLoad(BucketApproach, &loaded)

	fc, err := m.fetchCollection(ctx, m.opts.ApproachPath)
	if err != nil {
		log.Error().Err(err).Str("resource", m.opts.ApproachPath).Msg("Failed to load approach surfaces")
		metrics.LayerLoadsTotal.WithLabelValues(string(BucketApproach), "error").Inc()
		return nil
	}

	show := m.visibility[CategoryApproach]
	for i, f := range fc.Features {
		if f.Err != nil {
			m.skipFeature(BucketApproach, m.opts.ApproachPath, i, f.Err)
			continue
		}

		ring, err := f.Geometry.OuterRing()
		if err != nil {
			m.skipFeature(BucketApproach, m.opts.ApproachPath, i, err)
			continue
		}

		e := viewer.Entity{
			Name: fmt.Sprintf("Approach Surface %d", i+1),
			Show: show,
			Polygon: &viewer.PolygonGraphics{
				Hierarchy:      m.cartesian(ring, true),
				Material:       style.Yellow.WithAlpha(0.6),
				Outline:        true,
				OutlineColor:   style.Orange,
				ExtrudedHeight: 0,
				Height:         ring[0].Alt,
			},
		}

		p, err := m.add(e, BucketApproach, CategoryApproach, ring)
		if err != nil {
			m.skipFeature(BucketApproach, m.opts.ApproachPath, i, err)
			continue
		}
		loaded = append(loaded, p)
	}

	metrics.LayerLoadsTotal.WithLabelValues(string(BucketApproach), "ok").Inc()
	log.Info().Int("count", len(loaded)).Msg("Loaded approach surfaces")
	return loaded
}

// LoadOLSSurfaces loads the configured obstacle limitation surface files.
func (m *Manager) LoadOLSSurfaces(ctx context.Context) []viewer.Primitive {
	return m.LoadCategorySurfaces(ctx, m.opts.OLSFiles, m.opts.OLSPalette)
}

// LoadCategorySurfaces loads each file in order, styling its features with the
// color at the same position in palette (wrapping when the palette is shorter).
// A failing file is logged and skipped.
func (m *Manager) LoadCategorySurfaces(ctx context.Context, files []string, palette []style.Color) (loaded []viewer.Primitive) {
	defer m.recoverLoad(BucketDXF, &loaded)

	if len(palette) == 0 {
		palette = style.OLSPalette()
	}
	show := m.visibility[CategoryOLS]

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Int("remaining", len(files)-i).Msg("OLS loading interrupted")
			break
		}

		resource := path.Join(m.opts.OLSDir, file)
		fc, err := m.fetchCollection(ctx, resource)
		if err != nil {
			log.Error().Err(err).Str("resource", resource).Msg("Failed to load OLS surface")
			metrics.LayerLoadsTotal.WithLabelValues(string(BucketDXF), "error").Inc()
			continue
		}

		color := palette[i%len(palette)]
		label := strings.TrimSuffix(file, ".geojson")
		count := 0

		for j, f := range fc.Features {
			if f.Err != nil {
				m.skipFeature(BucketDXF, resource, j, f.Err)
				continue
			}

			var (
				e         viewer.Entity
				positions []geo.Position
			)

			switch f.Geometry.Type {
			case geo.KindPolygon:
				positions, err = f.Geometry.OuterRing()
				if err != nil {
					m.skipFeature(BucketDXF, resource, j, err)
					continue
				}
				e = viewer.Entity{
					Name: fmt.Sprintf("OLS: %s - %d", label, j+1),
					Show: show,
					Polygon: &viewer.PolygonGraphics{
						Hierarchy:    m.cartesian(positions, false),
						Material:     color,
						Outline:      true,
						OutlineColor: color.WithAlpha(1.0),
						Height:       0,
					},
				}
			case geo.KindLineString:
				positions, err = f.Geometry.LineString()
				if err != nil {
					m.skipFeature(BucketDXF, resource, j, err)
					continue
				}
				e = viewer.Entity{
					Name: fmt.Sprintf("OLS Line: %s - %d", label, j+1),
					Show: show,
					Polyline: &viewer.PolylineGraphics{
						Positions:     m.cartesian(positions, false),
						Material:      color,
						Width:         3,
						ClampToGround: true,
					},
				}
			default:
				log.Debug().
					Str("resource", resource).
					Int("feature", j).
					Str("geometry", f.Geometry.Type).
					Msg("Unsupported OLS geometry, skipping")
				continue
			}

			p, err := m.add(e, BucketDXF, CategoryOLS, positions)
			if err != nil {
				m.skipFeature(BucketDXF, resource, j, err)
				continue
			}
			loaded = append(loaded, p)
			count++
		}

		metrics.LayerLoadsTotal.WithLabelValues(string(BucketDXF), "ok").Inc()
		log.Info().Str("file", file).Int("count", count).Msg("Loaded OLS surface")
	}

	return loaded
}

// LoadBuildings loads extruded building footprints, up to Options.MaxBuildings.
// Repeated calls append to the shared bucket.
func (m *Manager) LoadBuildings(ctx context.Context) (loaded []viewer.Primitive) {
	defer m.recoverLoad(BucketReseaux, &loaded)

	fc, err := m.fetchCollection(ctx, m.opts.BuildingsPath)
	if err != nil {
		log.Error().Err(err).Str("resource", m.opts.BuildingsPath).Msg("Failed to load buildings")
		metrics.LayerLoadsTotal.WithLabelValues(string(BucketReseaux), "error").Inc()
		return nil
	}

	show := m.visibility[CategoryBuildings]
	for i, f := range fc.Features {
		if m.opts.MaxBuildings > 0 && len(loaded) >= m.opts.MaxBuildings {
			break
		}

		if f.Err != nil {
			m.skipFeature(BucketReseaux, m.opts.BuildingsPath, i, f.Err)
			continue
		}

		ring, err := f.Geometry.OuterRing()
		if err != nil {
			m.skipFeature(BucketReseaux, m.opts.BuildingsPath, i, err)
			continue
		}

		name := f.StringProperty("name")
		if name == "" {
			name = "Unnamed"
		}

		e := viewer.Entity{
			Name: "Building: " + name,
			Show: show,
			Polygon: &viewer.PolygonGraphics{
				Hierarchy:      m.cartesian(ring, false),
				Material:       style.LightGray.WithAlpha(0.8),
				Outline:        true,
				OutlineColor:   style.DarkGray,
				ExtrudedHeight: m.opts.BuildingHeight(f, i),
				Height:         0,
			},
		}

		p, err := m.add(e, BucketReseaux, CategoryBuildings, ring)
		if err != nil {
			m.skipFeature(BucketReseaux, m.opts.BuildingsPath, i, err)
			continue
		}
		loaded = append(loaded, p)
	}

	metrics.LayerLoadsTotal.WithLabelValues(string(BucketReseaux), "ok").Inc()
	log.Info().
		Int("count", len(loaded)).
		Int("available", len(fc.Features)).
		Msg("Loaded buildings")
	return loaded
}

// LoadRoads loads ground-clamped road lines, up to Options.MaxRoads.
// Repeated calls append to the shared bucket.
func (m *Manager) LoadRoads(ctx context.Context) (loaded []viewer.Primitive) {
	defer m.recoverLoad(BucketReseaux, &loaded)

	fc, err := m.fetchCollection(ctx, m.opts.RoadsPath)
	if err != nil {
		log.Error().Err(err).Str("resource", m.opts.RoadsPath).Msg("Failed to load roads")
		metrics.LayerLoadsTotal.WithLabelValues(string(BucketReseaux), "error").Inc()
		return nil
	}

	show := m.visibility[CategoryRoads]
	for i, f := range fc.Features {
		if m.opts.MaxRoads > 0 && len(loaded) >= m.opts.MaxRoads {
			break
		}

		if f.Err != nil {
			m.skipFeature(BucketReseaux, m.opts.RoadsPath, i, f.Err)
			continue
		}

		line, err := f.Geometry.LineString()
		if err != nil {
			m.skipFeature(BucketReseaux, m.opts.RoadsPath, i, err)
			continue
		}

		class := f.StringProperty("fclass")
		name := f.StringProperty("name")
		if name == "" {
			name = class
		}
		if name == "" {
			name = "Unnamed"
		}

		ls := m.opts.RoadStyles.Lookup(class)
		e := viewer.Entity{
			Name: "Road: " + name,
			Show: show,
			Polyline: &viewer.PolylineGraphics{
				Positions:     m.cartesian(line, false),
				Material:      ls.Color,
				Width:         ls.Width,
				ClampToGround: true,
			},
		}

		p, err := m.add(e, BucketReseaux, CategoryRoads, line)
		if err != nil {
			m.skipFeature(BucketReseaux, m.opts.RoadsPath, i, err)
			continue
		}
		loaded = append(loaded, p)
	}

	metrics.LayerLoadsTotal.WithLabelValues(string(BucketReseaux), "ok").Inc()
	log.Info().
		Int("count", len(loaded)).
		Int("available", len(fc.Features)).
		Msg("Loaded roads")
	return loaded
}

// LoadAll loads the approach and OLS surfaces in sequence. Buildings and roads
// are left to explicit calls. Failures inside a loader are logged there and do
// not affect the result; false means the sequence itself was aborted.
func (m *Manager) LoadAll(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Loading surfaces aborted")
			ok = false
		}
	}()

	log.Info().Msg("Loading all surface data")

	m.LoadApproachSurface(ctx)
	if err := ctx.Err(); err != nil {
		log.Error().Err(err).Msg("Loading surfaces aborted")
		return false
	}

	m.LoadOLSSurfaces(ctx)
	if err := ctx.Err(); err != nil {
		log.Error().Err(err).Msg("Loading surfaces aborted")
		return false
	}

	log.Info().Int("total", m.Stats().Total).Msg("All surfaces loaded")
	return true
}

// ToggleVisibility flips the visibility of category and applies it to every
// primitive created under that category. It returns the new visibility.
func (m *Manager) ToggleVisibility(category Category) bool {
	visible := !m.visibility[category]
	m.visibility[category] = visible
	metrics.TogglesTotal.WithLabelValues(string(category)).Inc()

	changed := 0
	for _, b := range Buckets {
		for _, e := range m.buckets[b] {
			if e.category == category {
				e.prim.SetShow(visible)
				changed++
			}
		}
	}

	log.Debug().
		Str("category", string(category)).
		Bool("visible", visible).
		Int("primitives", changed).
		Msg("Visibility toggled")
	return visible
}

// Visibility returns the current visibility of category.
func (m *Manager) Visibility(category Category) bool {
	return m.visibility[category]
}

// VisibilityState returns a copy of the visibility of every known category.
func (m *Manager) VisibilityState() map[Category]bool {
	out := make(map[Category]bool, len(m.visibility))
	for k, v := range m.visibility {
		out[k] = v
	}
	return out
}

// Primitives returns the primitives registered in bucket, in creation order.
func (m *Manager) Primitives(bucket Bucket) []viewer.Primitive {
	entries := m.buckets[bucket]
	out := make([]viewer.Primitive, len(entries))
	for i, e := range entries {
		out[i] = e.prim
	}
	return out
}

// Reset hides and forgets every registered primitive. Visibility state is kept.
func (m *Manager) Reset() {
	for _, b := range Buckets {
		for _, e := range m.buckets[b] {
			e.prim.SetShow(false)
		}
		metrics.Primitives.WithLabelValues(string(b)).Set(0)
	}
	m.buckets = make(map[Bucket][]entry)
	log.Info().Msg("Surface registry reset")
}

func (m *Manager) fetchCollection(ctx context.Context, name string) (geo.GeoJSONFeatureCollection, error) {
	data, err := m.fetcher.Fetch(ctx, name)
	if err != nil {
		return geo.GeoJSONFeatureCollection{}, err
	}

	fc, err := geo.DecodeFeatureCollection(data)
	if err != nil {
		return geo.GeoJSONFeatureCollection{}, fmt.Errorf("parse %s: %w", name, err)
	}

	return fc, nil
}

// cartesian converts positions through the viewer. Altitudes are dropped unless keepAlt.
func (m *Manager) cartesian(positions []geo.Position, keepAlt bool) []geo.Cartesian3 {
	out := make([]geo.Cartesian3, len(positions))
	for i, p := range positions {
		alt := 0.0
		if keepAlt {
			alt = p.Alt
		}
		out[i] = m.viewer.FromDegrees(p.Lon, p.Lat, alt)
	}
	return out
}

func (m *Manager) add(e viewer.Entity, b Bucket, c Category, positions []geo.Position) (viewer.Primitive, error) {
	p, err := m.viewer.Add(e)
	if err != nil {
		return nil, err
	}

	m.buckets[b] = append(m.buckets[b], entry{prim: p, category: c, extent: geo.Extent(positions)})
	metrics.Primitives.WithLabelValues(string(b)).Set(float64(len(m.buckets[b])))
	return p, nil
}

func (m *Manager) skipFeature(b Bucket, resource string, index int, err error) {
	metrics.FeaturesSkippedTotal.WithLabelValues(string(b)).Inc()
	log.Warn().
		Err(err).
		Str("resource", resource).
		Int("feature", index).
		Msg("Skipping feature")
}

// recoverLoad keeps a viewer panic inside the loader that triggered it.
// Primitives registered before the panic stay registered.
func (m *Manager) recoverLoad(b Bucket, loaded *[]viewer.Primitive) {
	if r := recover(); r != nil {
		metrics.LayerLoadsTotal.WithLabelValues(string(b), "error").Inc()
		log.Error().
			Interface("panic", r).
			Str("bucket", string(b)).
			Int("loaded", len(*loaded)).
			Msg("Layer loading aborted")
	}
}
