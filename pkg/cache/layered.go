package cache

import (
	"context"
	"errors"
	"time"
)

// Hits served from Redis seed the in-process layer briefly. The seed
// TTL is short on purpose: the layer cannot see the remaining Redis
// TTL, and serving long-stale quotes is worse than an extra round trip.
const layeredSeedTTL = 15 * time.Second

// LayeredCache fronts a RedisCache with a MemoryCache. Reads try the
// in-process layer first; writes go through to Redis. Locks, counters,
// and existence checks always hit Redis, since those only mean
// something on the shared backend.
type LayeredCache struct {
	mem   *MemoryCache
	redis *RedisCache
}

// NewLayeredCache builds the two-level cache over an existing Redis
// connection.
func NewLayeredCache(redisCache *RedisCache, opts ...LayeredOption) *LayeredCache {
	o := layeredOptions{memoryMaxSize: 1000}
	for _, opt := range opts {
		opt(&o)
	}
	return &LayeredCache{
		mem:   NewMemoryCache(WithMemoryMaxSize(o.memoryMaxSize)),
		redis: redisCache,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := lc.redis.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	_ = lc.mem.Set(ctx, key, value, expiration)
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.mem.Get(ctx, key, dest); err == nil {
		return nil
	} else if !errors.Is(err, ErrCacheMiss) {
		// Decode failures would repeat on every call; fall through to
		// the authoritative copy.
		_ = lc.mem.Delete(ctx, key)
	}

	if err := lc.redis.Get(ctx, key, dest); err != nil {
		return err
	}
	_ = lc.mem.Set(ctx, key, dest, layeredSeedTTL)
	return nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.mem.Delete(ctx, keys...)
	return lc.redis.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	return lc.redis.Exists(ctx, keys...)
}

func (lc *LayeredCache) Increment(ctx context.Context, key string) (int64, error) {
	return lc.redis.Increment(ctx, key)
}

func (lc *LayeredCache) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	_, _ = lc.mem.Expire(ctx, key, expiration)
	return lc.redis.Expire(ctx, key, expiration)
}

func (lc *LayeredCache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return lc.redis.TryLock(ctx, key, ttl)
}

func (lc *LayeredCache) Unlock(ctx context.Context, key string) error {
	return lc.redis.Unlock(ctx, key)
}

// Close stops the in-process layer and releases the Redis pool.
func (lc *LayeredCache) Close() error {
	_ = lc.mem.Close()
	return lc.redis.Close()
}

var _ Service = (*LayeredCache)(nil)
