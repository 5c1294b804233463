package ratelimit

import (
	"sync"
	"time"
)

// Buckets idle longer than this are dropped on the next sweep. Keys are
// client addresses or feed names, so the map would otherwise grow with
// every new caller.
const idleEviction = 15 * time.Minute

type bucket struct {
	tokens float64
	cap    float64
	rate   float64 // tokens per second
	last   time.Time
}

// take refills the bucket for the time elapsed since the last call, then
// consumes one token if one is available.
func (b *bucket) take(now time.Time) bool {
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = min(b.cap, b.tokens+elapsed*b.rate)
		b.last = now
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Limiter is a keyed token bucket. Each key gets its own bucket sized on
// first sight.
type Limiter struct {
	mu    sync.Mutex
	m     map[string]*bucket
	sweep time.Time
}

func New() *Limiter {
	return &Limiter{m: make(map[string]*bucket), sweep: time.Now()}
}

// Allow consumes one token for key, creating a full bucket when the key is
// new. capacity is the burst size and refillPerSec the sustained rate.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.sweep) > idleEviction {
		l.evict(now)
		l.sweep = now
	}

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: capacity, cap: capacity, rate: refillPerSec, last: now}
		l.m[key] = b
	}
	return b.take(now)
}

// evict runs with the lock held.
func (l *Limiter) evict(now time.Time) {
	for k, b := range l.m {
		if now.Sub(b.last) > idleEviction {
			delete(l.m, k)
		}
	}
}
