package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Redis stores cached objects under a key prefix in a Redis server.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedis wraps an existing client. A zero ttl stores keys without expiry.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr, password string, db int, prefix string, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "redis ping %s", addr)
	}

	return NewRedis(client, prefix, ttl), nil
}

// Name implements Layer.
func (r *Redis) Name() string { return "REDIS" }

// Get implements Layer.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		r.misses.Add(1)
		return nil, false, errors.Wrap(err, "redis get")
	}

	r.hits.Add(1)
	return data, true, nil
}

// Set implements Layer.
func (r *Redis) Set(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}

	log.Trace().Str("key", key).Int("bytes", len(data)).Msg("Stored in redis cache")
	return nil
}

// Clear implements Layer. Only keys under the prefix are removed.
func (r *Redis) Clear(ctx context.Context) error {
	var cursor uint64
	removed := 0
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", 100).Result()
		if err != nil {
			return errors.Wrap(err, "redis scan")
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return errors.Wrap(err, "redis del")
			}
			removed += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	r.hits.Store(0)
	r.misses.Store(0)
	log.Debug().Int("keys", removed).Msg("Redis cache cleared")
	return nil
}

// Stats implements Layer. Object counts are not tracked for Redis.
func (r *Redis) Stats() Stats {
	hits, misses := r.hits.Load(), r.misses.Load()
	return Stats{
		Name:    "Redis",
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate(hits, misses),
	}
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
