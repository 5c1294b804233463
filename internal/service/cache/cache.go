package cache

import "time"

// BytesCache is a minimal cache API storing raw bytes with TTL. Handlers use
// it to cache rendered responses; DeleteByPrefix drops them once newly
// emitted signals make the cached payloads stale.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
	DeleteByPrefix(prefix string) error
}
