// Package cache provides byte caches placed in front of layer fetches.
package cache

import "context"

// Layer is a keyed byte cache.
type Layer interface {
	Name() string
	// Get returns ok=false on a miss. Errors are reserved for backend failures.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte) error
	Clear(ctx context.Context) error
	Stats() Stats
}

// Stats summarizes cache usage.
type Stats struct {
	Name      string  `json:"name"`
	Objects   int     `json:"objects"`
	SizeBytes int64   `json:"sizeBytes"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hitRate"`
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}
