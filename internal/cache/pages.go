package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// PageCache stores small JSON-serialized result pages (e.g. the first pages
// of the hot feed) with a short TTL. All operations are best effort: a nil
// client or a Redis failure behaves like a miss.
type PageCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPageCache returns a PageCache over rdb. rdb may be nil.
func NewPageCache(rdb *redis.Client, ttl time.Duration) *PageCache {
	return &PageCache{rdb: rdb, ttl: ttl}
}

// Get unmarshals the cached page at key into dest, reporting whether it was found.
func (p *PageCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if p == nil || p.rdb == nil {
		return false
	}
	raw, err := p.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}
	return true
}

// Set marshals value and stores it at key for the cache TTL.
func (p *PageCache) Set(ctx context.Context, key string, value interface{}) {
	if p == nil || p.rdb == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = p.rdb.Set(ctx, key, raw, p.ttl).Err()
}

// Invalidate drops the cached pages matching the given keys.
func (p *PageCache) Invalidate(ctx context.Context, keys ...string) {
	if p == nil || p.rdb == nil || len(keys) == 0 {
		return
	}
	if err := p.rdb.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return
	}
}
