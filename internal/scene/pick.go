package scene

import (
	"sort"

	"github.com/woozymasta/olsview/internal/geo"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Pick returns the entities under a lon/lat location, in insertion order.
// Polygons match when they contain the point; polylines match within tolerance degrees.
func (s *Scene) Pick(lon, lat, tolerance float64) []*Entity {
	pt := orb.Point{lon, lat}
	query := orb.Bound{
		Min: orb.Point{lon - tolerance, lat - tolerance},
		Max: orb.Point{lon + tolerance, lat + tolerance},
	}

	s.mu.RLock()
	candidates := s.rtree.SearchIntersect(boundToRect(query))
	order := make(map[*Entity]int, len(s.entities))
	for i, e := range s.entities {
		order[e] = i
	}
	s.mu.RUnlock()

	var hits []*Entity
	for _, c := range candidates {
		e := c.(*Entity)
		if e.contains(pt, tolerance) {
			hits = append(hits, e)
		}
	}

	sort.Slice(hits, func(i, j int) bool { return order[hits[i]] < order[hits[j]] })
	return hits
}

func (e *Entity) contains(pt orb.Point, tolerance float64) bool {
	if e.IsPolygon() {
		ring := toRing(e.positions)
		if planar.RingContains(ring, pt) {
			return true
		}
		return planar.DistanceFrom(orb.LineString(ring), pt) <= tolerance
	}

	return planar.DistanceFrom(toLine(e.positions), pt) <= tolerance
}

func toRing(positions []geo.Position) orb.Ring {
	r := make(orb.Ring, 0, len(positions)+1)
	for _, p := range positions {
		r = append(r, orb.Point{p.Lon, p.Lat})
	}
	if !r.Closed() {
		r = append(r, r[0])
	}
	return r
}

func toLine(positions []geo.Position) orb.LineString {
	ls := make(orb.LineString, 0, len(positions))
	for _, p := range positions {
		ls = append(ls, orb.Point{p.Lon, p.Lat})
	}
	return ls
}
