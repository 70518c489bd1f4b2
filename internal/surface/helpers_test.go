package surface

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"

	"github.com/woozymasta/olsview/internal/geo"
	"github.com/woozymasta/olsview/internal/viewer"
)

// memFetcher serves fixture documents by name; missing names fail like a 404.
type memFetcher struct {
	docs  map[string][]byte
	calls []string
}

func newMemFetcher() *memFetcher {
	return &memFetcher{docs: make(map[string][]byte)}
}

func (f *memFetcher) Fetch(_ context.Context, name string) ([]byte, error) {
	f.calls = append(f.calls, name)
	data, ok := f.docs[name]
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w", name, fs.ErrNotExist)
	}
	return data, nil
}

func (f *memFetcher) put(name string, features ...map[string]any) {
	doc := map[string]any{"type": "FeatureCollection", "features": features}
	if features == nil {
		doc["features"] = []any{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	f.docs[name] = data
}

type fakePrim struct {
	id   string
	name string
	show bool
}

func (p *fakePrim) ID() string        { return p.id }
func (p *fakePrim) Name() string      { return p.name }
func (p *fakePrim) Show() bool        { return p.show }
func (p *fakePrim) SetShow(show bool) { p.show = show }

// fakeViewer records entities. FromDegrees is the identity so tests can read
// lon/lat/alt straight back from X/Y/Z.
type fakeViewer struct {
	panicAt  int
	entities []viewer.Entity
	prims    []*fakePrim
}

func (v *fakeViewer) FromDegrees(lon, lat, alt float64) geo.Cartesian3 {
	return geo.Cartesian3{X: lon, Y: lat, Z: alt}
}

func (v *fakeViewer) Add(e viewer.Entity) (viewer.Primitive, error) {
	if v.panicAt > 0 && len(v.prims)+1 == v.panicAt {
		panic("renderer lost context")
	}
	if e.Polygon != nil && len(e.Polygon.Hierarchy) < 3 {
		return nil, fmt.Errorf("degenerate polygon %q", e.Name)
	}

	p := &fakePrim{id: fmt.Sprintf("p%d", len(v.prims)+1), name: e.Name, show: e.Show}
	v.entities = append(v.entities, e)
	v.prims = append(v.prims, p)
	return p, nil
}

func polygonFeature(props map[string]any, ring ...[]float64) map[string]any {
	if props == nil {
		props = map[string]any{}
	}
	return map[string]any{
		"type":       "Feature",
		"properties": props,
		"geometry":   map[string]any{"type": "Polygon", "coordinates": [][][]float64{ring}},
	}
}

func lineFeature(props map[string]any, coords ...[]float64) map[string]any {
	if props == nil {
		props = map[string]any{}
	}
	return map[string]any{
		"type":       "Feature",
		"properties": props,
		"geometry":   map[string]any{"type": "LineString", "coordinates": coords},
	}
}

func square(lon, lat, alt float64) [][]float64 {
	return [][]float64{
		{lon, lat, alt},
		{lon + 0.01, lat, alt},
		{lon + 0.01, lat + 0.01, alt},
		{lon, lat + 0.01, alt},
		{lon, lat, alt},
	}
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.ApproachPath = "approach.geojson"
	opts.OLSDir = "dxf"
	opts.BuildingsPath = "reseaux/buildings.geojson"
	opts.RoadsPath = "reseaux/roads.geojson"
	return opts
}

func olsPath(opts Options, i int) string {
	return path.Join(opts.OLSDir, opts.OLSFiles[i])
}
