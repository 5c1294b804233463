package ratelimit

import (
	"testing"
	"time"
)

func TestBucketBurstAndRefill(t *testing.T) {
	t0 := time.Now()
	b := &bucket{tokens: 2, cap: 2, rate: 1, last: t0}

	if !b.take(t0) || !b.take(t0) {
		t.Fatal("burst capacity not honored")
	}
	if b.take(t0) {
		t.Fatal("empty bucket granted a token")
	}

	// One second refills one token at rate 1.
	if !b.take(t0.Add(time.Second)) {
		t.Fatal("bucket did not refill")
	}

	// A long idle period refills to capacity, not beyond.
	b2 := &bucket{tokens: 0, cap: 2, rate: 1, last: t0}
	b2.take(t0.Add(time.Hour))
	if b2.tokens > b2.cap {
		t.Fatalf("tokens %v exceed capacity %v", b2.tokens, b2.cap)
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	l := New()

	for i := 0; i < 3; i++ {
		if !l.Allow("a", 3, 0.001) {
			t.Fatalf("call %d for key a denied within burst", i)
		}
	}
	if l.Allow("a", 3, 0.001) {
		t.Error("exhausted key still allowed")
	}
	if !l.Allow("b", 3, 0.001) {
		t.Error("fresh key denied")
	}
}

func TestLimiterEvictsIdleBuckets(t *testing.T) {
	l := New()
	l.Allow("stale", 1, 1)
	l.Allow("live", 1, 1)

	now := time.Now()
	l.mu.Lock()
	l.m["stale"].last = now.Add(-idleEviction - time.Minute)
	l.evict(now)
	l.mu.Unlock()

	l.mu.Lock()
	_, staleOK := l.m["stale"]
	_, liveOK := l.m["live"]
	l.mu.Unlock()
	if staleOK {
		t.Error("idle bucket survived eviction")
	}
	if !liveOK {
		t.Error("active bucket was evicted")
	}
}
