package fetch

import (
	"context"

	"github.com/woozymasta/olsview/internal/cache"
	"github.com/woozymasta/olsview/internal/metrics"

	"github.com/rs/zerolog/log"
)

// Cached serves resources from a cache layer, filling it from the next fetcher on a miss.
// Failed fetches are never cached.
type Cached struct {
	next  Fetcher
	cache cache.Layer
}

// NewCached wraps next with the cache layer c.
func NewCached(next Fetcher, c cache.Layer) *Cached {
	return &Cached{next: next, cache: c}
}

// Fetch implements Fetcher. Cache backend errors are logged and bypassed.
func (c *Cached) Fetch(ctx context.Context, name string) ([]byte, error) {
	data, ok, err := c.cache.Get(ctx, name)
	if err != nil {
		log.Warn().Err(err).Str("cache", c.cache.Name()).Str("resource", name).Msg("Cache lookup failed")
	}
	if ok {
		metrics.CacheHitsTotal.WithLabelValues(c.cache.Name()).Inc()
		return data, nil
	}
	metrics.CacheMissesTotal.WithLabelValues(c.cache.Name()).Inc()

	data, err = c.next.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, name, data); err != nil {
		log.Warn().Err(err).Str("cache", c.cache.Name()).Str("resource", name).Msg("Cache store failed")
	}

	return data, nil
}

// Stats returns the underlying cache statistics.
func (c *Cached) Stats() cache.Stats {
	return c.cache.Stats()
}
