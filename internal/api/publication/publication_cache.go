package publication

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/FACorreiaa/wanderplan/internal/types"
)

const poolKeyPrefix = "pool:"

// PoolCache keeps recently selected pools keyed by normalized destination.
// Pools are read-only once cached.
type PoolCache interface {
	Get(ctx context.Context, destination string) ([]types.Publication, bool)
	Set(ctx context.Context, destination string, pool []types.Publication)
}

func poolKey(destination string) string {
	return poolKeyPrefix + destination
}

var _ PoolCache = (*MemoryPoolCache)(nil)

type MemoryPoolCache struct {
	cache *cache.Cache
}

func NewMemoryPoolCache(ttl time.Duration) *MemoryPoolCache {
	return &MemoryPoolCache{cache: cache.New(ttl, 2*ttl)}
}

func (c *MemoryPoolCache) Get(_ context.Context, destination string) ([]types.Publication, bool) {
	v, ok := c.cache.Get(poolKey(destination))
	if !ok {
		return nil, false
	}
	pool, ok := v.([]types.Publication)
	return pool, ok
}

func (c *MemoryPoolCache) Set(_ context.Context, destination string, pool []types.Publication) {
	c.cache.SetDefault(poolKey(destination), pool)
}

var _ PoolCache = (*RedisPoolCache)(nil)

// RedisPoolCache shares pools between replicas. Failures are logged and
// treated as misses.
type RedisPoolCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisPoolCache(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *RedisPoolCache {
	return &RedisPoolCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisPoolCache) Get(ctx context.Context, destination string) ([]types.Publication, bool) {
	raw, err := c.client.Get(ctx, poolKey(destination)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "Pool cache read failed", slog.Any("error", err))
		}
		return nil, false
	}
	var pool []types.Publication
	if err := json.Unmarshal(raw, &pool); err != nil {
		c.logger.WarnContext(ctx, "Pool cache entry is corrupt", slog.Any("error", err))
		return nil, false
	}
	return pool, true
}

func (c *RedisPoolCache) Set(ctx context.Context, destination string, pool []types.Publication) {
	raw, err := json.Marshal(pool)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to encode pool for cache", slog.Any("error", err))
		return
	}
	if err := c.client.Set(ctx, poolKey(destination), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "Pool cache write failed", slog.Any("error", err))
	}
}

// NoopPoolCache disables caching.
type NoopPoolCache struct{}

func (NoopPoolCache) Get(context.Context, string) ([]types.Publication, bool) { return nil, false }
func (NoopPoolCache) Set(context.Context, string, []types.Publication)        {}
