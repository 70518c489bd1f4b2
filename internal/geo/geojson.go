// Package geo handles geographic data structures and coordinate conversions.
package geo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Geometry kinds handled by the layer loaders.
const (
	KindPolygon    = "Polygon"
	KindLineString = "LineString"
)

// GeoJSONFeatureCollection represents a collection of geographic features.
// It follows the standard GeoJSON structure.
type GeoJSONFeatureCollection struct {
	Type     string           `json:"type" yaml:"type"`
	Features []GeoJSONFeature `json:"features" yaml:"features"`
}

// GeoJSONFeature represents a single geographic feature with geometry and properties.
// Err is set by DecodeFeatureCollection when this feature could not be decoded.
type GeoJSONFeature struct {
	Err        error                  `json:"-" yaml:"-"`
	Properties map[string]interface{} `json:"properties" yaml:"properties"`
	Type       string                 `json:"type" yaml:"type"`
	Geometry   GeoJSONGeometry        `json:"geometry" yaml:"geometry"`
}

// GeoJSONGeometry represents the geometry of a feature.
// Coordinates are kept raw and decoded on demand for the geometry kind.
type GeoJSONGeometry struct {
	Type        string          `json:"type" yaml:"type"`
	Coordinates json.RawMessage `json:"coordinates" yaml:"-"`
}

// Position is a single vertex. Alt is 0 when the source has only two components.
type Position struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
	Alt float64 `json:"alt"`
}

// DecodeFeatureCollection parses a GeoJSON FeatureCollection document.
// Features are decoded one by one: a malformed feature keeps its position in
// Features with Err set, and does not fail the document.
func DecodeFeatureCollection(data []byte) (GeoJSONFeatureCollection, error) {
	var doc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return GeoJSONFeatureCollection{}, err
	}

	if doc.Features == nil {
		return GeoJSONFeatureCollection{}, fmt.Errorf("not a feature collection: no features member (type %q)", doc.Type)
	}

	fc := GeoJSONFeatureCollection{
		Type:     doc.Type,
		Features: make([]GeoJSONFeature, len(doc.Features)),
	}
	for i, raw := range doc.Features {
		var f GeoJSONFeature
		if err := json.Unmarshal(raw, &f); err != nil {
			fc.Features[i] = GeoJSONFeature{Err: fmt.Errorf("feature %d: %w", i, err)}
			continue
		}
		fc.Features[i] = f
	}

	return fc, nil
}

// Malformed counts the features that failed to decode.
func (fc GeoJSONFeatureCollection) Malformed() int {
	n := 0
	for _, f := range fc.Features {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// Polygon decodes a Polygon geometry into its rings.
func (g GeoJSONGeometry) Polygon() ([][]Position, error) {
	if g.Type != KindPolygon {
		return nil, fmt.Errorf("geometry is %q, want %s", g.Type, KindPolygon)
	}

	var raw [][][]float64
	if err := json.Unmarshal(g.Coordinates, &raw); err != nil {
		return nil, fmt.Errorf("polygon coordinates: %w", err)
	}

	rings := make([][]Position, 0, len(raw))
	for i, r := range raw {
		ring, err := toPositions(r)
		if err != nil {
			return nil, fmt.Errorf("ring %d: %w", i, err)
		}
		rings = append(rings, ring)
	}

	return rings, nil
}

// OuterRing returns the first ring of a Polygon geometry.
func (g GeoJSONGeometry) OuterRing() ([]Position, error) {
	rings, err := g.Polygon()
	if err != nil {
		return nil, err
	}
	if len(rings) == 0 || len(rings[0]) == 0 {
		return nil, fmt.Errorf("polygon has no outer ring")
	}

	return rings[0], nil
}

// LineString decodes a LineString geometry.
func (g GeoJSONGeometry) LineString() ([]Position, error) {
	if g.Type != KindLineString {
		return nil, fmt.Errorf("geometry is %q, want %s", g.Type, KindLineString)
	}

	var raw [][]float64
	if err := json.Unmarshal(g.Coordinates, &raw); err != nil {
		return nil, fmt.Errorf("linestring coordinates: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("linestring is empty")
	}

	return toPositions(raw)
}

func toPositions(raw [][]float64) ([]Position, error) {
	out := make([]Position, 0, len(raw))
	for i, c := range raw {
		if len(c) < 2 {
			return nil, fmt.Errorf("position %d has %d components", i, len(c))
		}
		p := Position{Lon: c[0], Lat: c[1]}
		if len(c) > 2 {
			p.Alt = c[2]
		}
		out = append(out, p)
	}

	return out, nil
}

// StringProperty returns a non-empty string property, formatting numbers if needed.
func (f GeoJSONFeature) StringProperty(key string) string {
	v, ok := f.Properties[key]
	if !ok || v == nil {
		return ""
	}

	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// NumberProperty returns a numeric property. Numeric strings are accepted.
func (f GeoJSONFeature) NumberProperty(key string) (float64, bool) {
	v, ok := f.Properties[key]
	if !ok || v == nil {
		return 0, false
	}

	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}

	return 0, false
}
