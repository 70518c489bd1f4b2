package surface

import "github.com/paulmach/orb"

// Stats summarizes the registry.
type Stats struct {
	Categories map[Category]int     `json:"categories"`
	Extents    map[Bucket]orb.Bound `json:"extents,omitempty"`
	Approach   int                  `json:"approach"`
	DXF        int                  `json:"dxf"`
	Reseaux    int                  `json:"reseaux"`
	Total      int                  `json:"total"`
}

// Stats returns primitive counts per bucket and category, and the lon/lat
// extent of each non-empty bucket.
func (m *Manager) Stats() Stats {
	s := Stats{
		Approach:   len(m.buckets[BucketApproach]),
		DXF:        len(m.buckets[BucketDXF]),
		Reseaux:    len(m.buckets[BucketReseaux]),
		Categories: make(map[Category]int),
		Extents:    make(map[Bucket]orb.Bound),
	}
	s.Total = s.Approach + s.DXF + s.Reseaux

	for _, b := range Buckets {
		entries := m.buckets[b]
		if len(entries) == 0 {
			continue
		}

		bound := entries[0].extent
		for _, e := range entries {
			s.Categories[e.category]++
			bound = bound.Union(e.extent)
		}
		s.Extents[b] = bound
	}

	return s
}
