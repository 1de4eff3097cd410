package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Cache is a read-through JSON cache over Redis. A nil client disables
// caching without changing caller behavior.
type Cache struct {
	R   *redis.Client
	TTL time.Duration
}

func (c Cache) ttl() time.Duration {
	if c.TTL <= 0 {
		return 5 * time.Minute
	}
	return c.TTL
}

// GetJSON loads and decodes a cached value. Returns false on miss or
// any cache error; callers fall through to the source of truth.
func (c Cache) GetJSON(ctx context.Context, key string, out any) bool {
	if c.R == nil {
		return false
	}
	data, err := c.R.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

// SetJSON stores a value best-effort. Encoding or write failures are
// swallowed: the cache is never allowed to fail a request.
func (c Cache) SetJSON(ctx context.Context, key string, v any) {
	if c.R == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.R.Set(ctx, key, data, c.ttl()).Err()
}

// Invalidate drops keys matching the catalog prefix.
func (c Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c.R == nil || len(keys) == 0 {
		return nil
	}
	err := c.R.Del(ctx, keys...).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
