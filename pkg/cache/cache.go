// Package cache provides a small cache abstraction with in-memory,
// Redis, and layered implementations. Values are stored as JSON except
// for strings and raw bytes, which pass through unchanged, so the
// backends are interchangeable.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Service is the operation set the application codes against.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error)

	// TryLock atomically claims key for ttl. It reports false when
	// another holder already has it. Pair with Unlock, or let the ttl
	// expire for claims that must outlive their creator.
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// encodeCacheValue is the shared storage encoding: strings and byte
// slices stay raw, everything else becomes JSON.
func encodeCacheValue(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(value)
	}
}

func decodeCacheValue(body []byte, dest interface{}) error {
	if s, ok := dest.(*string); ok {
		*s = string(body)
		return nil
	}
	if b, ok := dest.(*[]byte); ok {
		*b = append((*b)[:0], body...)
		return nil
	}
	return json.Unmarshal(body, dest)
}
