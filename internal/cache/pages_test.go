package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type page struct {
	IDs []int `json:"ids"`
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestPageCacheRoundTrip(t *testing.T) {
	t.Parallel()
	_, rdb := newMiniredisClient(t)
	pages := NewPageCache(rdb, time.Minute)
	ctx := context.Background()

	var missed page
	if pages.Get(ctx, "feed:hot:20:0", &missed) {
		t.Fatal("expected miss on empty cache")
	}

	pages.Set(ctx, "feed:hot:20:0", page{IDs: []int{3, 1, 2}})

	var got page
	if !pages.Get(ctx, "feed:hot:20:0", &got) {
		t.Fatal("expected hit after Set")
	}
	if len(got.IDs) != 3 || got.IDs[0] != 3 {
		t.Fatalf("unexpected cached page: %+v", got)
	}
}

func TestPageCacheTTL(t *testing.T) {
	t.Parallel()
	mr, rdb := newMiniredisClient(t)
	pages := NewPageCache(rdb, 30*time.Second)
	ctx := context.Background()

	pages.Set(ctx, "feed:hot:20:0", page{IDs: []int{1}})
	mr.FastForward(31 * time.Second)

	var got page
	if pages.Get(ctx, "feed:hot:20:0", &got) {
		t.Fatal("expected miss after TTL expiry")
	}
}

func TestPageCacheInvalidate(t *testing.T) {
	t.Parallel()
	_, rdb := newMiniredisClient(t)
	pages := NewPageCache(rdb, time.Minute)
	ctx := context.Background()

	pages.Set(ctx, "a", page{IDs: []int{1}})
	pages.Set(ctx, "b", page{IDs: []int{2}})
	pages.Invalidate(ctx, "a", "b")

	var got page
	if pages.Get(ctx, "a", &got) || pages.Get(ctx, "b", &got) {
		t.Fatal("expected both keys invalidated")
	}
}

func TestPageCacheNilClientIsMiss(t *testing.T) {
	t.Parallel()
	pages := NewPageCache(nil, time.Minute)
	ctx := context.Background()

	// All operations degrade to no-ops without Redis.
	pages.Set(ctx, "a", page{IDs: []int{1}})
	var got page
	if pages.Get(ctx, "a", &got) {
		t.Fatal("expected miss with nil client")
	}
	pages.Invalidate(ctx, "a")
}
