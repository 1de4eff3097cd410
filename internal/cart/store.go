package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// ErrNotFound indicates the requested cart could not be located.
var ErrNotFound = errors.New("cart not found")

// Store persists full cart snapshots. Every save rewrites the entire
// collection atomically; the pure mutation functions never touch storage.
type Store interface {
	Load(ctx context.Context, id string) (Cart, error)
	Save(ctx context.Context, c Cart) error
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps carts as JSON blobs with a sliding TTL.
type RedisStore struct {
	R   *redis.Client
	TTL time.Duration
}

func (s RedisStore) key(id string) string {
	return "cart:" + id
}

func (s RedisStore) ttl() time.Duration {
	if s.TTL <= 0 {
		return 30 * 24 * time.Hour
	}
	return s.TTL
}

// Load reads a cart snapshot.
func (s RedisStore) Load(ctx context.Context, id string) (Cart, error) {
	if s.R == nil {
		return Cart{}, errors.New("cart store not configured")
	}
	data, err := s.R.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Cart{}, fmt.Errorf("cart %s: %w", id, ErrNotFound)
		}
		return Cart{}, err
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return Cart{}, fmt.Errorf("decode cart %s: %w", id, err)
	}
	return c, nil
}

// Save writes the full snapshot and refreshes the TTL.
func (s RedisStore) Save(ctx context.Context, c Cart) error {
	if s.R == nil {
		return errors.New("cart store not configured")
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", c.ID, err)
	}
	return s.R.Set(ctx, s.key(c.ID), data, s.ttl()).Err()
}

// Delete drops the cart snapshot.
func (s RedisStore) Delete(ctx context.Context, id string) error {
	if s.R == nil {
		return errors.New("cart store not configured")
	}
	return s.R.Del(ctx, s.key(id)).Err()
}
