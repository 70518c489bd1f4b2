package surface

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/woozymasta/olsview/internal/style"
)

func TestLoadApproachSurfaceVertices(t *testing.T) {
	f := newMemFetcher()
	rings := [][][]float64{
		{{7.20, 43.65, 12}, {7.21, 43.65, 14}, {7.21, 43.66}, {7.20, 43.65, 12}},
		square(7.22, 43.66, 40),
		square(7.24, 43.67, 95.5),
	}
	f.put("approach.geojson",
		polygonFeature(nil, rings[0]...),
		polygonFeature(nil, rings[1]...),
		polygonFeature(nil, rings[2]...),
	)

	v := &fakeViewer{}
	m := New(v, f, testOptions())

	loaded := m.LoadApproachSurface(context.Background())
	if len(loaded) != 3 {
		t.Fatalf("Expected 3 primitives, got %d", len(loaded))
	}

	for i, e := range v.entities {
		if e.Polygon == nil {
			t.Fatalf("Entity %d is not a polygon", i)
		}
		ring := rings[i]
		if len(e.Polygon.Hierarchy) != len(ring) {
			t.Errorf("Entity %d: expected %d vertices, got %d", i, len(ring), len(e.Polygon.Hierarchy))
			continue
		}
		for j, c := range e.Polygon.Hierarchy {
			if math.Abs(c.X-ring[j][0]) > 1e-12 || math.Abs(c.Y-ring[j][1]) > 1e-12 {
				t.Errorf("Entity %d vertex %d: got (%v, %v), want %v", i, j, c.X, c.Y, ring[j])
			}
			wantAlt := 0.0
			if len(ring[j]) > 2 {
				wantAlt = ring[j][2]
			}
			if c.Z != wantAlt {
				t.Errorf("Entity %d vertex %d: altitude %v, want %v", i, j, c.Z, wantAlt)
			}
		}
		if e.Polygon.Height != ring[0][2] {
			t.Errorf("Entity %d: height %v, want %v", i, e.Polygon.Height, ring[0][2])
		}
		if e.Polygon.ExtrudedHeight != 0 {
			t.Errorf("Entity %d: extruded height should be 0", i)
		}
		if want := fmt.Sprintf("Approach Surface %d", i+1); e.Name != want {
			t.Errorf("Entity %d: name %q, want %q", i, e.Name, want)
		}
		if !e.Show {
			t.Errorf("Entity %d: approach surfaces are visible by default", i)
		}
		if e.Polygon.Material != style.Yellow.WithAlpha(0.6) || e.Polygon.OutlineColor != style.Orange {
			t.Errorf("Entity %d: unexpected colors", i)
		}
	}

	if s := m.Stats(); s.Approach != 3 || s.Total != 3 {
		t.Errorf("Unexpected stats: %+v", s)
	}
}

func TestToggleApproachTwice(t *testing.T) {
	f := newMemFetcher()
	f.put("approach.geojson", polygonFeature(nil, square(7, 43, 0)...), polygonFeature(nil, square(7.1, 43, 0)...))

	m := New(&fakeViewer{}, f, testOptions())
	m.LoadApproachSurface(context.Background())

	original := m.Visibility(CategoryApproach)
	if got := m.ToggleVisibility(CategoryApproach); got == original {
		t.Fatalf("First toggle should flip visibility")
	}
	for _, p := range m.Primitives(BucketApproach) {
		if p.Show() != !original {
			t.Errorf("Primitive %s not updated by toggle", p.ID())
		}
	}

	if got := m.ToggleVisibility(CategoryApproach); got != original {
		t.Fatalf("Second toggle should restore %v, got %v", original, got)
	}
	for _, p := range m.Primitives(BucketApproach) {
		if p.Show() != original {
			t.Errorf("Primitive %s does not match restored visibility", p.ID())
		}
	}
}

func TestLoadBuildingsCap(t *testing.T) {
	f := newMemFetcher()
	features := make([]map[string]any, 5000)
	for i := range features {
		features[i] = polygonFeature(map[string]any{"osm_id": fmt.Sprint(i)}, square(7+float64(i)*1e-4, 43, 0)...)
	}
	f.put("reseaux/buildings.geojson", features...)

	v := &fakeViewer{}
	m := New(v, f, testOptions())

	loaded := m.LoadBuildings(context.Background())
	if len(loaded) != 1000 {
		t.Errorf("Expected 1000 buildings, got %d", len(loaded))
	}
	if len(v.prims) != 1000 {
		t.Errorf("Viewer received %d primitives, want 1000", len(v.prims))
	}
	if s := m.Stats(); s.Reseaux != 1000 || s.Categories[CategoryBuildings] != 1000 {
		t.Errorf("Unexpected stats: %+v", s)
	}
}

func TestLoadRoadsCap(t *testing.T) {
	f := newMemFetcher()
	features := make([]map[string]any, 5000)
	for i := range features {
		features[i] = lineFeature(map[string]any{"fclass": "residential"}, []float64{7, 43}, []float64{7.01, 43.01})
	}
	f.put("reseaux/roads.geojson", features...)

	m := New(&fakeViewer{}, f, testOptions())
	if loaded := m.LoadRoads(context.Background()); len(loaded) != 500 {
		t.Errorf("Expected 500 roads, got %d", len(loaded))
	}
}

func TestOLSFileFailureIsolated(t *testing.T) {
	opts := testOptions()
	f := newMemFetcher()
	for i := range opts.OLSFiles {
		if i == 3 {
			continue // simulated 404
		}
		f.put(olsPath(opts, i), polygonFeature(nil, square(7, 43, 0)...))
	}

	v := &fakeViewer{}
	m := New(v, f, opts)

	loaded := m.LoadOLSSurfaces(context.Background())
	if len(loaded) != 7 {
		t.Fatalf("Expected 7 primitives, got %d", len(loaded))
	}
	if len(f.calls) != 8 {
		t.Errorf("Expected every file to be requested, got %d calls", len(f.calls))
	}

	labels := map[string]bool{}
	for _, e := range v.entities {
		labels[strings.TrimSuffix(e.Name, " - 1")] = true
	}
	if len(labels) != 7 {
		t.Errorf("Expected 7 distinct surfaces, got %d", len(labels))
	}
	missing := "OLS: " + strings.TrimSuffix(opts.OLSFiles[3], ".geojson")
	if labels[missing] {
		t.Errorf("Surface %q should not be loaded", missing)
	}
}

func TestLoadCategorySurfacesStyling(t *testing.T) {
	opts := testOptions()
	f := newMemFetcher()
	f.put("dxf/a.geojson",
		polygonFeature(nil, square(7, 43, 120)...),
		lineFeature(nil, []float64{7, 43}, []float64{7.1, 43.1}),
		map[string]any{"type": "Feature", "properties": map[string]any{},
			"geometry": map[string]any{"type": "Point", "coordinates": []float64{7, 43}}},
	)
	f.put("dxf/b.geojson", lineFeature(nil, []float64{7, 43}, []float64{7.1, 43.1}))

	palette := []style.Color{style.Red.WithAlpha(0.5)}
	v := &fakeViewer{}
	m := New(v, f, opts)

	loaded := m.LoadCategorySurfaces(context.Background(), []string{"a.geojson", "b.geojson"}, palette)
	if len(loaded) != 3 {
		t.Fatalf("Expected 3 primitives (point skipped), got %d", len(loaded))
	}

	poly := v.entities[0]
	if poly.Name != "OLS: a - 1" || poly.Polygon == nil {
		t.Fatalf("Unexpected polygon entity %+v", poly)
	}
	if poly.Polygon.Height != 0 {
		t.Errorf("OLS polygons sit at ground level, got height %v", poly.Polygon.Height)
	}
	for _, c := range poly.Polygon.Hierarchy {
		if c.Z != 0 {
			t.Errorf("OLS vertices must be flattened, got altitude %v", c.Z)
		}
	}
	if poly.Polygon.OutlineColor != style.Red {
		t.Errorf("Outline should be the opaque palette color, got %v", poly.Polygon.OutlineColor)
	}

	line := v.entities[1]
	if line.Name != "OLS Line: a - 2" || line.Polyline == nil {
		t.Fatalf("Unexpected line entity %+v", line)
	}
	if line.Polyline.Width != 3 || !line.Polyline.ClampToGround || line.Polyline.Material != palette[0] {
		t.Errorf("Unexpected line style %+v", line.Polyline)
	}

	// palette wraps for the second file
	if v.entities[2].Polyline.Material != palette[0] {
		t.Errorf("Expected wrapped palette color")
	}

	for _, e := range v.entities {
		if e.Show {
			t.Errorf("OLS surfaces are hidden by default: %s", e.Name)
		}
	}
}

func TestOLSVisibilityFollowsState(t *testing.T) {
	opts := testOptions()
	f := newMemFetcher()
	f.put(olsPath(opts, 0), polygonFeature(nil, square(7, 43, 0)...))

	m := New(&fakeViewer{}, f, opts)
	m.ToggleVisibility(CategoryOLS)

	loaded := m.LoadOLSSurfaces(context.Background())
	if len(loaded) != 1 || !loaded[0].Show() {
		t.Errorf("Primitives created after toggling on should be visible")
	}
}

func TestLoadAllStats(t *testing.T) {
	opts := testOptions()
	f := newMemFetcher()
	f.put("approach.geojson",
		polygonFeature(nil, square(7, 43, 10)...),
		polygonFeature(nil, square(7.1, 43, 10)...),
		polygonFeature(nil, square(7.2, 43, 10)...),
	)

	// 10 features spread over the 8 files
	for i := range opts.OLSFiles {
		features := []map[string]any{polygonFeature(nil, square(7, 43+float64(i)*0.01, 0)...)}
		if i < 2 {
			features = append(features, lineFeature(nil, []float64{7, 43}, []float64{7.05, 43.05}))
		}
		f.put(olsPath(opts, i), features...)
	}
	f.put("reseaux/buildings.geojson", polygonFeature(nil, square(7, 43, 0)...))

	m := New(&fakeViewer{}, f, opts)
	if !m.LoadAll(context.Background()) {
		t.Fatal("LoadAll should succeed")
	}

	s := m.Stats()
	if s.Approach != 3 || s.DXF != 10 || s.Reseaux != 0 || s.Total != 13 {
		t.Errorf("Unexpected stats: %+v", s)
	}
	if s.Categories[CategoryApproach] != 3 || s.Categories[CategoryOLS] != 10 {
		t.Errorf("Unexpected category counts: %v", s.Categories)
	}
	for _, name := range f.calls {
		if strings.HasPrefix(name, "reseaux/") {
			t.Errorf("LoadAll must not load %s", name)
		}
	}

	ext, ok := s.Extents[BucketApproach]
	if !ok {
		t.Fatal("Expected approach extent")
	}
	if math.Abs(ext.Min[0]-7) > 1e-9 || math.Abs(ext.Max[0]-7.21) > 1e-9 {
		t.Errorf("Unexpected approach extent: %+v", ext)
	}
}

func TestLoadAllSurvivesFailures(t *testing.T) {
	f := newMemFetcher()
	f.docs["approach.geojson"] = []byte("<html>not found</html>")

	m := New(&fakeViewer{}, f, testOptions())
	if !m.LoadAll(context.Background()) {
		t.Error("Sub-load failures should not fail LoadAll")
	}
	if s := m.Stats(); s.Total != 0 {
		t.Errorf("Expected nothing loaded, got %+v", s)
	}
}

func TestLoadAllCancelled(t *testing.T) {
	f := newMemFetcher()
	f.put("approach.geojson", polygonFeature(nil, square(7, 43, 0)...))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := New(&fakeViewer{}, f, testOptions())
	if m.LoadAll(ctx) {
		t.Error("Cancelled sequence should report failure")
	}
}

func TestRepeatedLoadsAccumulate(t *testing.T) {
	f := newMemFetcher()
	f.put("reseaux/buildings.geojson",
		polygonFeature(map[string]any{"name": "Terminal"}, square(7, 43, 0)...),
		polygonFeature(nil, square(7.1, 43, 0)...),
	)
	f.put("reseaux/roads.geojson", lineFeature(map[string]any{"fclass": "service"}, []float64{7, 43}, []float64{7.1, 43}))
	f.put("approach.geojson", polygonFeature(nil, square(7, 43, 0)...))

	v := &fakeViewer{}
	m := New(v, f, testOptions())
	ctx := context.Background()

	m.LoadBuildings(ctx)
	m.LoadBuildings(ctx)
	m.LoadRoads(ctx)
	m.LoadApproachSurface(ctx)
	m.LoadApproachSurface(ctx)

	s := m.Stats()
	if s.Reseaux != 5 {
		t.Errorf("Expected 5 primitives in reseaux, got %d", s.Reseaux)
	}
	if s.Approach != 2 {
		t.Errorf("Expected 2 approach primitives, got %d", s.Approach)
	}
	if s.Total != len(v.prims) {
		t.Errorf("Registry total %d does not match viewer count %d", s.Total, len(v.prims))
	}
}

func TestToggleUsesCategoryTags(t *testing.T) {
	f := newMemFetcher()
	// names that would confuse label matching
	f.put("reseaux/buildings.geojson", polygonFeature(map[string]any{"name": "Road Maintenance Depot"}, square(7, 43, 0)...))
	f.put("reseaux/roads.geojson", lineFeature(map[string]any{"name": "Building Access"}, []float64{7, 43}, []float64{7.1, 43}))

	v := &fakeViewer{}
	m := New(v, f, testOptions())
	ctx := context.Background()
	building := m.LoadBuildings(ctx)[0]
	road := m.LoadRoads(ctx)[0]

	if building.Show() || road.Show() {
		t.Fatal("Buildings and roads are hidden by default")
	}

	if !m.ToggleVisibility(CategoryBuildings) {
		t.Fatal("Expected buildings to become visible")
	}
	if !building.Show() {
		t.Error("Building should be visible")
	}
	if road.Show() {
		t.Error("Road must not follow the buildings toggle")
	}

	m.ToggleVisibility(CategoryRoads)
	if !road.Show() {
		t.Error("Road should be visible")
	}
}

func TestToggleUnknownCategory(t *testing.T) {
	m := New(&fakeViewer{}, newMemFetcher(), testOptions())
	if !m.ToggleVisibility("natural") {
		t.Error("Toggling natural should turn it on")
	}
	if !m.ToggleVisibility("water") {
		t.Error("Unknown categories are tracked too")
	}
	if !m.VisibilityState()["water"] {
		t.Error("Expected water in visibility state")
	}
}

func TestRoadStyling(t *testing.T) {
	f := newMemFetcher()
	f.put("reseaux/roads.geojson",
		lineFeature(map[string]any{"fclass": "motorway", "name": "A8"}, []float64{7, 43}, []float64{7.1, 43}),
		lineFeature(map[string]any{"fclass": "footway"}, []float64{7, 43}, []float64{7.1, 43}),
	)

	v := &fakeViewer{}
	m := New(v, f, testOptions())
	m.LoadRoads(context.Background())

	if len(v.entities) != 2 {
		t.Fatalf("Expected 2 roads, got %d", len(v.entities))
	}

	motorway := v.entities[0]
	if motorway.Name != "Road: A8" || motorway.Polyline.Width != 8 || motorway.Polyline.Material != style.Red {
		t.Errorf("Unexpected motorway: %s %+v", motorway.Name, motorway.Polyline)
	}
	if !motorway.Polyline.ClampToGround {
		t.Error("Roads are clamped to ground")
	}

	footway := v.entities[1]
	if footway.Name != "Road: footway" {
		t.Errorf("Road without name should use its class, got %q", footway.Name)
	}
	if footway.Polyline.Width != 1 || footway.Polyline.Material != style.White {
		t.Errorf("Unknown class should use the default style, got %+v", footway.Polyline)
	}
}

func TestBuildingHeights(t *testing.T) {
	f := newMemFetcher()
	f.put("reseaux/buildings.geojson",
		polygonFeature(map[string]any{"height": 42.0}, square(7, 43, 0)...),
		polygonFeature(map[string]any{"building:levels": "4"}, square(7, 43, 0)...),
		polygonFeature(map[string]any{"osm_id": "123456"}, square(7, 43, 0)...),
		polygonFeature(nil, square(7, 43, 0)...),
	)

	v := &fakeViewer{}
	m := New(v, f, testOptions())
	ctx := context.Background()
	m.LoadBuildings(ctx)
	m.LoadBuildings(ctx)

	heights := make([]float64, len(v.entities))
	for i, e := range v.entities {
		heights[i] = e.Polygon.ExtrudedHeight
	}

	if heights[0] != 42 {
		t.Errorf("Expected explicit height 42, got %v", heights[0])
	}
	if heights[1] != 12 {
		t.Errorf("Expected 4 levels -> 12m, got %v", heights[1])
	}
	for _, h := range heights[2:4] {
		if h < 5 || h >= 25 {
			t.Errorf("Derived height %v outside [5, 25)", h)
		}
	}
	for i := 0; i < 4; i++ {
		if heights[i] != heights[i+4] {
			t.Errorf("Building %d height changed between loads: %v vs %v", i, heights[i], heights[i+4])
		}
	}
	if v.entities[3].Name != "Building: Unnamed" {
		t.Errorf("Unexpected unnamed building label %q", v.entities[3].Name)
	}
}

func TestMalformedFeaturesSkipped(t *testing.T) {
	f := newMemFetcher()
	f.put("approach.geojson",
		polygonFeature(nil, square(7, 43, 0)...),
		lineFeature(nil, []float64{7, 43}, []float64{7.1, 43}),
		polygonFeature(nil, []float64{7, 43}, []float64{7.1, 43}),
		map[string]any{"type": "Feature", "geometry": map[string]any{"type": "Polygon", "coordinates": "bad"}},
		polygonFeature(nil, square(7.2, 43, 0)...),
	)

	v := &fakeViewer{}
	m := New(v, f, testOptions())

	loaded := m.LoadApproachSurface(context.Background())
	if len(loaded) != 2 {
		t.Fatalf("Expected 2 valid primitives, got %d", len(loaded))
	}
	if v.entities[1].Name != "Approach Surface 5" {
		t.Errorf("Names follow the feature position, got %q", v.entities[1].Name)
	}
}

func TestMalformedFeatureKeepsSiblings(t *testing.T) {
	opts := testOptions()
	f := newMemFetcher()
	f.docs[opts.ApproachPath] = []byte(`{"type": "FeatureCollection", "features": [
		{"type": "Feature", "properties": {}, "geometry": {"type": "Polygon", "coordinates": [[[7, 43, 10], [7.1, 43, 10], [7.1, 43.1, 10], [7, 43, 10]]]}},
		{"type": "Feature", "properties": [], "geometry": {"type": "Polygon", "coordinates": [[[7, 43], [7.1, 43], [7.1, 43.1], [7, 43]]]}},
		{"type": "Feature", "properties": {}, "geometry": {"type": "Polygon", "coordinates": [[[8, 43, 10], [8.1, 43, 10], [8.1, 43.1, 10], [8, 43, 10]]]}}
	]}`)
	f.docs[olsPath(opts, 0)] = []byte(`{"type": "FeatureCollection", "features": [
		{"type": "Feature", "properties": {}, "geometry": {"type": "LineString", "coordinates": [[7, 43], [7.1, 43]]}},
		{"type": "Feature", "properties": {}, "geometry": {"type": 7, "coordinates": [[7, 43], [7.1, 43]]}},
		{"type": "Feature", "properties": {}, "geometry": {"type": "LineString", "coordinates": [[7, 43], [7.2, 43]]}}
	]}`)

	v := &fakeViewer{}
	m := New(v, f, opts)
	ctx := context.Background()

	if loaded := m.LoadApproachSurface(ctx); len(loaded) != 2 {
		t.Fatalf("Expected 2 approach primitives around the malformed feature, got %d", len(loaded))
	}
	if v.entities[1].Name != "Approach Surface 3" {
		t.Errorf("Names follow the feature position, got %q", v.entities[1].Name)
	}

	if loaded := m.LoadCategorySurfaces(ctx, opts.OLSFiles[:1], nil); len(loaded) != 2 {
		t.Errorf("Expected 2 OLS primitives around the malformed feature, got %d", len(loaded))
	}
}

func TestFetchFailureIsNonFatal(t *testing.T) {
	opts := testOptions()
	f := newMemFetcher()
	f.put(olsPath(opts, 0), polygonFeature(nil, square(7, 43, 0)...))

	m := New(&fakeViewer{}, f, opts)
	ctx := context.Background()

	if got := m.LoadApproachSurface(ctx); len(got) != 0 {
		t.Errorf("Missing approach file should load nothing, got %d", len(got))
	}
	if got := m.LoadBuildings(ctx); len(got) != 0 {
		t.Errorf("Missing buildings file should load nothing, got %d", len(got))
	}
	if got := m.LoadOLSSurfaces(ctx); len(got) != 1 {
		t.Errorf("Later loads should still work, got %d", len(got))
	}
}

func TestViewerPanicContained(t *testing.T) {
	f := newMemFetcher()
	f.put("approach.geojson",
		polygonFeature(nil, square(7, 43, 0)...),
		polygonFeature(nil, square(7.1, 43, 0)...),
		polygonFeature(nil, square(7.2, 43, 0)...),
	)

	v := &fakeViewer{panicAt: 2}
	m := New(v, f, testOptions())

	loaded := m.LoadApproachSurface(context.Background())
	if len(loaded) != 1 {
		t.Errorf("Expected the primitive added before the panic, got %d", len(loaded))
	}
	if s := m.Stats(); s.Approach != 1 {
		t.Errorf("Registry should keep earlier primitives, got %+v", s)
	}
}

func TestReset(t *testing.T) {
	f := newMemFetcher()
	f.put("approach.geojson", polygonFeature(nil, square(7, 43, 0)...))

	m := New(&fakeViewer{}, f, testOptions())
	p := m.LoadApproachSurface(context.Background())[0]

	m.Reset()
	if p.Show() {
		t.Error("Reset should hide released primitives")
	}
	if s := m.Stats(); s.Total != 0 || len(s.Extents) != 0 {
		t.Errorf("Expected empty stats, got %+v", s)
	}
	if !m.Visibility(CategoryApproach) {
		t.Error("Reset keeps visibility state")
	}
}

func TestOptionsVisibilityDefaults(t *testing.T) {
	opts := testOptions()
	opts.Visibility = map[Category]bool{CategoryRoads: true}

	m := New(&fakeViewer{}, newMemFetcher(), opts)
	state := m.VisibilityState()
	if !state[CategoryApproach] || !state[CategoryRoads] || state[CategoryOLS] {
		t.Errorf("Unexpected visibility state: %v", state)
	}
}
