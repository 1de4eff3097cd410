package catalog

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return Cache{R: client, TTL: time.Minute}, mr
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	in := Product{ID: "p1", Slug: "wheel-loader", Name: "Wheel Loader", PriceCents: 1499, Tier: 1}
	cache.SetJSON(ctx, "catalog:product:wheel-loader", in)

	var out Product
	require.True(t, cache.GetJSON(ctx, "catalog:product:wheel-loader", &out))
	require.Equal(t, in, out)
}

func TestCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t)
	var out Product
	require.False(t, cache.GetJSON(context.Background(), "catalog:product:missing", &out))
}

func TestCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.SetJSON(ctx, "catalog:list:a", []Product{{ID: "p1"}})
	mr.FastForward(2 * time.Minute)

	var out []Product
	require.False(t, cache.GetJSON(ctx, "catalog:list:a", &out))
}

func TestCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	cache.SetJSON(ctx, "catalog:product:a", Product{ID: "a"})
	cache.SetJSON(ctx, "catalog:product:b", Product{ID: "b"})
	require.NoError(t, cache.Invalidate(ctx, "catalog:product:a", "catalog:product:b"))

	var out Product
	require.False(t, cache.GetJSON(ctx, "catalog:product:a", &out))
	require.False(t, cache.GetJSON(ctx, "catalog:product:b", &out))
}

func TestCacheDisabledWithoutClient(t *testing.T) {
	cache := Cache{}
	ctx := context.Background()

	cache.SetJSON(ctx, "k", Product{ID: "a"})
	var out Product
	require.False(t, cache.GetJSON(ctx, "k", &out))
	require.NoError(t, cache.Invalidate(ctx, "k"))
}
