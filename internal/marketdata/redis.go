package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisCache is a Cache shared across processes. Reads that fail for any
// reason count as misses so a Redis outage only costs latency.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
	log    zerolog.Logger
}

// NewRedisCache creates a cache storing keys under prefix.
func NewRedisCache(rdb *redis.Client, prefix string, log zerolog.Logger) *RedisCache {
	return &RedisCache{
		rdb:    rdb,
		prefix: prefix,
		log:    log.With().Str("component", "redis-cache").Logger(),
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("key", key).Msg("redis get failed")
		}
		return nil, false
	}
	return data, true
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := c.rdb.Set(ctx, c.prefix+key, val, ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("redis set failed")
	}
}
