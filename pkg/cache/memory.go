package cache

import (
	"container/list"
	"context"
	"strconv"
	"sync"
	"time"
)

// Entries without an explicit expiration still age out eventually.
const memoryDefaultTTL = 7 * 24 * time.Hour

type memoryEntry struct {
	key      string
	val      []byte
	expireAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return now.After(e.expireAt)
}

// MemoryCache is a process-local Service with true LRU eviction. It
// stores the same encoded form the Redis backend would, so swapping
// one for the other does not change what Get decodes.
type MemoryCache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List // front is most recently used
	maxSize int

	ticker *time.Ticker
	done   chan struct{}
}

// NewMemoryCache builds an in-process cache and starts its sweep
// goroutine. Call Close to stop it.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	o := defaultMemoryOptions()
	for _, opt := range opts {
		opt(&o)
	}

	mc := &MemoryCache{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: o.maxEntries,
		ticker:  time.NewTicker(o.cleanupInterval),
		done:    make(chan struct{}),
	}
	go mc.sweepLoop()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	body, err := encodeCacheValue(value)
	if err != nil {
		return err
	}
	if expiration <= 0 {
		expiration = memoryDefaultTTL
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.put(key, body, time.Now().Add(expiration))
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	el, ok := mc.items[key]
	if !ok {
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	entry := el.Value.(*memoryEntry)
	if entry.expired(time.Now()) {
		mc.remove(el)
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	mc.order.MoveToFront(el)
	body := entry.val
	mc.mu.Unlock()

	return decodeCacheValue(body, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, key := range keys {
		if el, ok := mc.items[key]; ok {
			mc.remove(el)
		}
	}
	return nil
}

// Exists reports whether any of the keys is present and unexpired.
func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	now := time.Now()
	for _, key := range keys {
		if el, ok := mc.items[key]; ok && !el.Value.(*memoryEntry).expired(now) {
			return true, nil
		}
	}
	return false, nil
}

func (mc *MemoryCache) Increment(_ context.Context, key string) (int64, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := time.Now()
	if el, ok := mc.items[key]; ok && !el.Value.(*memoryEntry).expired(now) {
		entry := el.Value.(*memoryEntry)
		n, err := strconv.ParseInt(string(entry.val), 10, 64)
		if err != nil {
			return 0, err
		}
		n++
		entry.val = []byte(strconv.FormatInt(n, 10))
		mc.order.MoveToFront(el)
		return n, nil
	}

	mc.put(key, []byte("1"), now.Add(memoryDefaultTTL))
	return 1, nil
}

func (mc *MemoryCache) Expire(_ context.Context, key string, expiration time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	el, ok := mc.items[key]
	if !ok || el.Value.(*memoryEntry).expired(time.Now()) {
		return false, nil
	}
	el.Value.(*memoryEntry).expireAt = time.Now().Add(expiration)
	return true, nil
}

func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := time.Now()
	if el, ok := mc.items[key]; ok && !el.Value.(*memoryEntry).expired(now) {
		return false, nil
	}
	mc.put(key, []byte("locked"), now.Add(ttl))
	return true, nil
}

func (mc *MemoryCache) Unlock(ctx context.Context, key string) error {
	return mc.Delete(ctx, key)
}

// Close stops the sweep goroutine.
func (mc *MemoryCache) Close() error {
	mc.ticker.Stop()
	close(mc.done)
	return nil
}

// put inserts or replaces under mc.mu, evicting from the cold end
// when the cache is at capacity.
func (mc *MemoryCache) put(key string, val []byte, expireAt time.Time) {
	if el, ok := mc.items[key]; ok {
		entry := el.Value.(*memoryEntry)
		entry.val = val
		entry.expireAt = expireAt
		mc.order.MoveToFront(el)
		return
	}
	if len(mc.items) >= mc.maxSize {
		if oldest := mc.order.Back(); oldest != nil {
			mc.remove(oldest)
		}
	}
	mc.items[key] = mc.order.PushFront(&memoryEntry{key: key, val: val, expireAt: expireAt})
}

// remove must run under mc.mu.
func (mc *MemoryCache) remove(el *list.Element) {
	delete(mc.items, el.Value.(*memoryEntry).key)
	mc.order.Remove(el)
}

func (mc *MemoryCache) sweepLoop() {
	for {
		select {
		case <-mc.done:
			return
		case <-mc.ticker.C:
			mc.sweep()
		}
	}
}

func (mc *MemoryCache) sweep() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := time.Now()
	var next *list.Element
	for el := mc.order.Front(); el != nil; el = next {
		next = el.Next()
		if el.Value.(*memoryEntry).expired(now) {
			mc.remove(el)
		}
	}
}

var _ Service = (*MemoryCache)(nil)
