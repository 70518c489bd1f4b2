// Package viewer describes the capabilities the surface layers need from a 3D viewer.
package viewer

import (
	"github.com/woozymasta/olsview/internal/geo"
	"github.com/woozymasta/olsview/internal/style"
)

// Viewer can place styled polygons and polylines and convert geodetic positions.
type Viewer interface {
	// FromDegrees converts lon/lat in degrees and altitude in meters into the
	// viewer's cartesian space.
	FromDegrees(lon, lat, alt float64) geo.Cartesian3

	// Add registers a display entity and returns its handle.
	Add(e Entity) (Primitive, error)
}

// Primitive is a registered display entity. Its visibility can change after creation.
type Primitive interface {
	ID() string
	Name() string
	Show() bool
	SetShow(show bool)
}

// Entity is a declarative description of a display entity.
// Exactly one of Polygon or Polyline is set.
type Entity struct {
	Polygon  *PolygonGraphics
	Polyline *PolylineGraphics
	Name     string
	Show     bool
}

// PolygonGraphics describes a filled, optionally extruded polygon.
type PolygonGraphics struct {
	Hierarchy      []geo.Cartesian3
	Material       style.Color
	OutlineColor   style.Color
	Height         float64
	ExtrudedHeight float64
	Outline        bool
}

// PolylineGraphics describes a line.
type PolylineGraphics struct {
	Positions     []geo.Cartesian3
	Material      style.Color
	Width         float64
	ClampToGround bool
}
