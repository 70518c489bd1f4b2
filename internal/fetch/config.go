package fetch

import (
	"context"
	"crypto/tls"
	"net/http"

	"github.com/woozymasta/olsview/internal/cache"
	"github.com/woozymasta/olsview/internal/config"

	"github.com/rs/zerolog/log"
)

// NewClient builds the HTTP client used for remote layer data.
func NewClient(cfg *config.Config) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
		},
		Timeout: cfg.Data.Timeout,
	}
}

// FromConfig builds the fetcher described by cfg: HTTP when a base URL is set,
// the local data directory otherwise, behind the configured cache.
// The returned close function releases cache connections.
func FromConfig(ctx context.Context, cfg *config.Config) (Fetcher, func(), error) {
	var base Fetcher
	if cfg.Data.BaseURL != "" {
		h, err := NewHTTP(NewClient(cfg), cfg.Data.BaseURL)
		if err != nil {
			return nil, nil, err
		}
		base = h
		log.Info().Str("base_url", cfg.Data.BaseURL).Msg("Fetching layers over HTTP")
	} else {
		base = NewDir(cfg.Data.Dir)
		log.Info().Str("dir", cfg.Data.Dir).Msg("Reading layers from directory")
	}

	noop := func() {}
	switch cfg.Cache.Backend {
	case config.CacheMemory:
		log.Debug().Int64("max_bytes", cfg.Cache.MaxBytes).Dur("ttl", cfg.Cache.TTL).Msg("Memory fetch cache enabled")
		return NewCached(base, cache.NewMemory(cfg.Cache.MaxBytes, cfg.Cache.TTL)), noop, nil
	case config.CacheRedis:
		r, err := cache.DialRedis(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, cfg.Cache.Prefix, cfg.Cache.TTL)
		if err != nil {
			return nil, nil, err
		}
		log.Debug().Str("addr", cfg.Cache.RedisAddr).Msg("Redis fetch cache enabled")
		return NewCached(base, r), func() { _ = r.Close() }, nil
	default:
		return base, noop, nil
	}
}
