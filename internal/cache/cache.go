package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key formats and TTLs for cached aggregates. Reports are informational,
// not authoritative ledgers, so a slightly stale snapshot is acceptable.
const (
	KeyDashboardStats = "stats:dashboard:%s" // %s = YYYY-MM-DD
)

var TTLDashboard = 30 * time.Second

// Cache is a thin wrapper around a Redis client. A nil *Cache (or a Cache
// constructed from an empty address) disables caching entirely: Get always
// misses and Set is a no-op.
type Cache struct {
	rdb *redis.Client
}

// New connects to Redis at addr. An empty addr returns a disabled cache.
func New(addr string) *Cache {
	if addr == "" {
		return &Cache{}
	}
	return &Cache{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

// Get returns the cached payload for key, or ok=false on miss, error,
// or a disabled cache.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

// Set stores payload under key with the given TTL. Failures are ignored:
// the cache is an optimization, never a source of truth.
func (c *Cache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if c == nil || c.rdb == nil {
		return
	}
	c.rdb.Set(ctx, key, payload, ttl)
}

// Close releases the underlying connection, if any.
func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
