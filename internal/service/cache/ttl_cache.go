package cache

import (
	"strings"
	"sync"
	"time"
)

const sweepEvery = time.Minute

type entry struct {
	b   []byte
	exp time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.exp.IsZero() && now.After(e.exp)
}

// TTLCache is an in-process BytesCache. It backs the response cache when no
// Redis address is configured and stands in for Redis in handler tests.
// Expired entries are dropped lazily on read and swept on write.
type TTLCache struct {
	mu    sync.RWMutex
	m     map[string]entry
	sweep time.Time
}

func NewTTLCache() *TTLCache {
	return &TTLCache{m: make(map[string]entry), sweep: time.Now()}
}

func (c *TTLCache) GetBytes(key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if e.expired(time.Now()) {
		c.mu.Lock()
		// Recheck under the write lock; a concurrent SetBytes may have
		// refreshed the key since the read above.
		if cur, ok := c.m[key]; ok && cur.expired(time.Now()) {
			delete(c.m, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.b, true, nil
}

func (c *TTLCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	now := time.Now()
	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	// Copy so a caller reusing its buffer cannot corrupt the cached entry.
	b := make([]byte, len(value))
	copy(b, value)

	c.mu.Lock()
	if now.Sub(c.sweep) > sweepEvery {
		c.removeExpired(now)
		c.sweep = now
	}
	c.m[key] = entry{b: b, exp: exp}
	c.mu.Unlock()
	return nil
}

func (c *TTLCache) DeleteByPrefix(prefix string) error {
	c.mu.Lock()
	for k := range c.m {
		if strings.HasPrefix(k, prefix) {
			delete(c.m, k)
		}
	}
	c.mu.Unlock()
	return nil
}

// removeExpired must be called with the write lock held.
func (c *TTLCache) removeExpired(now time.Time) {
	for k, e := range c.m {
		if e.expired(now) {
			delete(c.m, k)
		}
	}
}

var _ BytesCache = (*TTLCache)(nil)
