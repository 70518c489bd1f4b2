// Package scene is an in-memory viewer: it keeps registered entities, answers
// spatial picks and renders a top-down preview.
package scene

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/woozymasta/olsview/internal/geo"
	"github.com/woozymasta/olsview/internal/viewer"

	"github.com/dhconnelly/rtreego"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// Scene implements viewer.Viewer. It is safe for concurrent use.
type Scene struct {
	byID     map[string]*Entity
	rtree    *rtreego.Rtree
	entities []*Entity
	mu       sync.RWMutex
}

// Entity is a registered display entity.
type Entity struct {
	def       viewer.Entity
	name      string
	positions []geo.Position // geodetic copy of the cartesian positions
	bound     orb.Bound
	id        uuid.UUID
	show      atomic.Bool
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{
		byID:  make(map[string]*Entity),
		rtree: rtreego.NewTree(2, 25, 50),
	}
}

// FromDegrees implements viewer.Viewer.
func (s *Scene) FromDegrees(lon, lat, alt float64) geo.Cartesian3 {
	return geo.FromDegrees(lon, lat, alt)
}

// Add implements viewer.Viewer.
func (s *Scene) Add(e viewer.Entity) (viewer.Primitive, error) {
	var cartesian []geo.Cartesian3
	switch {
	case e.Polygon != nil && e.Polyline != nil:
		return nil, fmt.Errorf("entity %q has both polygon and polyline", e.Name)
	case e.Polygon != nil:
		if len(e.Polygon.Hierarchy) < 3 {
			return nil, fmt.Errorf("polygon %q has %d vertices", e.Name, len(e.Polygon.Hierarchy))
		}
		cartesian = e.Polygon.Hierarchy
	case e.Polyline != nil:
		if len(e.Polyline.Positions) < 2 {
			return nil, fmt.Errorf("polyline %q has %d positions", e.Name, len(e.Polyline.Positions))
		}
		if e.Polyline.Width <= 0 {
			return nil, fmt.Errorf("polyline %q has width %v", e.Name, e.Polyline.Width)
		}
		cartesian = e.Polyline.Positions
	default:
		return nil, fmt.Errorf("entity %q has no geometry", e.Name)
	}

	positions := make([]geo.Position, len(cartesian))
	for i, c := range cartesian {
		positions[i] = geo.ToDegrees(c)
	}

	ent := &Entity{
		id:        uuid.New(),
		name:      e.Name,
		def:       e,
		positions: positions,
		bound:     geo.Extent(positions),
	}
	ent.show.Store(e.Show)

	s.mu.Lock()
	s.entities = append(s.entities, ent)
	s.byID[ent.ID()] = ent
	s.rtree.Insert(ent)
	s.mu.Unlock()

	return ent, nil
}

// Len returns the number of registered entities.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// Entities returns the registered entities in insertion order.
func (s *Scene) Entities() []*Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Entity, len(s.entities))
	copy(out, s.entities)
	return out
}

// Get looks up an entity by ID.
func (s *Scene) Get(id string) (*Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[id]
	return e, ok
}

// Clear drops every entity.
func (s *Scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entities = nil
	s.byID = make(map[string]*Entity)
	s.rtree = rtreego.NewTree(2, 25, 50)
}

// ID implements viewer.Primitive.
func (e *Entity) ID() string { return e.id.String() }

// Name implements viewer.Primitive.
func (e *Entity) Name() string { return e.name }

// Show implements viewer.Primitive.
func (e *Entity) Show() bool { return e.show.Load() }

// SetShow implements viewer.Primitive.
func (e *Entity) SetShow(show bool) { e.show.Store(show) }

// Definition returns the description the entity was created from.
func (e *Entity) Definition() viewer.Entity { return e.def }

// Positions returns the entity vertices in degrees.
func (e *Entity) Positions() []geo.Position { return e.positions }

// Extent returns the lon/lat bounding box.
func (e *Entity) Extent() orb.Bound { return e.bound }

// IsPolygon reports whether the entity is a filled polygon.
func (e *Entity) IsPolygon() bool { return e.def.Polygon != nil }

// Bounds implements rtreego.Spatial.
func (e *Entity) Bounds() rtreego.Rect {
	return boundToRect(e.bound)
}

func boundToRect(b orb.Bound) rtreego.Rect {
	// rtreego rejects zero-length sides
	const minSide = 1e-9

	point := rtreego.Point{b.Min[0], b.Min[1]}
	lengths := []float64{
		max(b.Max[0]-b.Min[0], minSide),
		max(b.Max[1]-b.Min[1], minSide),
	}

	rect, _ := rtreego.NewRect(point, lengths)
	return rect
}
