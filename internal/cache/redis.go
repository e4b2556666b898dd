package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL = 15 * time.Minute
	// maxJitter spreads expiries so carts cached together do not expire together.
	maxJitter = 5 * time.Minute
	keyPrefix   = "cart:"
	floorPrefix = "cart:floor:"
)

// setScript writes the cart only if its version is not below the floor left by
// the last invalidation.
var setScript = redis.NewScript(`
local floor = redis.call("GET", KEYS[2])
if floor and tonumber(ARGV[2]) < tonumber(floor) then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`)

// invalidateScript deletes the cart and raises the floor to the given version.
var invalidateScript = redis.NewScript(`
redis.call("DEL", KEYS[1])
local floor = redis.call("GET", KEYS[2])
if not floor or tonumber(floor) < tonumber(ARGV[1]) then
	redis.call("SET", KEYS[2], ARGV[1], "PX", ARGV[2])
end
return 1
`)

// RedisCache stores JSON encoded carts keyed by user id.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	if baseTTL <= 0 {
		baseTTL = DefaultTTL
	}
	return &RedisCache{client: client, baseTTL: baseTTL}
}

func (r *RedisCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	raw, err := r.client.Get(ctx, cacheKey(userID)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrCacheMiss
	case err != nil:
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	cart := &domain.Cart{}
	if err := json.Unmarshal(raw, cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return cart, nil
}

func (r *RedisCache) Set(ctx context.Context, userID string, cart *domain.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	keys := []string{cacheKey(userID), floorKey(userID)}
	written, err := setScript.Run(ctx, r.client, keys, raw, cart.Version, r.ttl().Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	if written == 0 {
		return ErrStaleCart
	}
	return nil
}

func (r *RedisCache) Invalidate(ctx context.Context, userID string, version int64) error {
	keys := []string{cacheKey(userID), floorKey(userID)}
	floorTTL := r.baseTTL + maxJitter
	if err := invalidateScript.Run(ctx, r.client, keys, version, floorTTL.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("redis invalidate failed: %w", err)
	}
	return nil
}

func (r *RedisCache) ttl() time.Duration {
	return r.baseTTL + time.Duration(rand.Int64N(int64(maxJitter)))
}

func cacheKey(userID string) string {
	return keyPrefix + userID
}

func floorKey(userID string) string {
	return floorPrefix + userID
}
