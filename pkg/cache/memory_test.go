package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type quotePayload struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	in := quotePayload{Symbol: "AAPL", Price: 187.5}
	if err := mc.Set(ctx, "q", in, time.Minute); err != nil {
		t.Fatal(err)
	}

	var out quotePayload
	if err := mc.Get(ctx, "q", &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("got %+v want %+v", out, in)
	}

	var s string
	if err := mc.Set(ctx, "s", "plain", time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := mc.Get(ctx, "s", &s); err != nil {
		t.Fatal(err)
	}
	if s != "plain" {
		t.Errorf("string round trip: %q", s)
	}
}

func TestMemoryCacheMissAndExpiry(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	var out string
	if err := mc.Get(ctx, "absent", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("want ErrCacheMiss, got %v", err)
	}

	if err := mc.Set(ctx, "brief", "x", 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := mc.Get(ctx, "brief", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("want ErrCacheMiss after expiry, got %v", err)
	}
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	mc.Set(ctx, "a", "1", time.Minute)
	mc.Set(ctx, "b", "2", time.Minute)

	// Touch a so b becomes the cold entry.
	var out string
	if err := mc.Get(ctx, "a", &out); err != nil {
		t.Fatal(err)
	}

	mc.Set(ctx, "c", "3", time.Minute)

	if err := mc.Get(ctx, "b", &out); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("b should have been evicted, got %v", err)
	}
	if err := mc.Get(ctx, "a", &out); err != nil {
		t.Errorf("a should survive: %v", err)
	}
	if err := mc.Get(ctx, "c", &out); err != nil {
		t.Errorf("c should be present: %v", err)
	}
}

func TestMemoryCacheIncrement(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	for want := int64(1); want <= 3; want++ {
		got, err := mc.Increment(ctx, "count")
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("got %d want %d", got, want)
		}
	}

	mc.Set(ctx, "text", "abc", time.Minute)
	if _, err := mc.Increment(ctx, "text"); err == nil {
		t.Error("incrementing a non-number should fail")
	}
}

func TestMemoryCacheTryLock(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	ok, err := mc.TryLock(ctx, "claim", 50*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}
	ok, _ = mc.TryLock(ctx, "claim", 50*time.Millisecond)
	if ok {
		t.Fatal("second claim should lose")
	}

	if err := mc.Unlock(ctx, "claim"); err != nil {
		t.Fatal(err)
	}
	ok, _ = mc.TryLock(ctx, "claim", 50*time.Millisecond)
	if !ok {
		t.Error("claim after unlock should win")
	}

	// Expired claims are claimable again without an explicit unlock.
	time.Sleep(60 * time.Millisecond)
	ok, _ = mc.TryLock(ctx, "claim", time.Minute)
	if !ok {
		t.Error("claim after ttl expiry should win")
	}
}

func TestMemoryCacheExistsAndExpire(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	ok, err := mc.Exists(ctx, "nope")
	if err != nil || ok {
		t.Fatalf("exists on empty cache: ok=%v err=%v", ok, err)
	}

	mc.Set(ctx, "k", "v", time.Minute)
	ok, _ = mc.Exists(ctx, "nope", "k")
	if !ok {
		t.Error("any-of semantics: k is present")
	}

	ok, _ = mc.Expire(ctx, "k", 10*time.Millisecond)
	if !ok {
		t.Fatal("expire on live key should report true")
	}
	time.Sleep(20 * time.Millisecond)
	ok, _ = mc.Exists(ctx, "k")
	if ok {
		t.Error("k should be gone after shortened ttl")
	}

	ok, _ = mc.Expire(ctx, "ghost", time.Minute)
	if ok {
		t.Error("expire on missing key should report false")
	}
}

func TestKeyHelpers(t *testing.T) {
	if got := GenerateKey("md:quote", "AAPL"); got != "md:quote:AAPL" {
		t.Errorf("GenerateKey: %s", got)
	}

	h := HashKey("https://example.com/story")
	if len(h) != 32 {
		t.Errorf("HashKey length: %d", len(h))
	}
	if h != HashKey("https://example.com/story") {
		t.Error("HashKey must be stable")
	}
	if h == HashKey("https://example.com/other") {
		t.Error("distinct inputs should hash apart")
	}
}
