package cache

import (
	"testing"
	"time"
)

func TestTTLCacheRoundTrip(t *testing.T) {
	c := NewTTLCache()
	if err := c.SetBytes("k", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("SetBytes: %v", err)
	}
	b, ok, err := c.GetBytes("k")
	if err != nil || !ok {
		t.Fatalf("GetBytes: ok=%v err=%v", ok, err)
	}
	if string(b) != "payload" {
		t.Errorf("GetBytes = %q, want payload", b)
	}

	if _, ok, _ := c.GetBytes("absent"); ok {
		t.Error("hit on a key that was never set")
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache()
	if err := c.SetBytes("short", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("SetBytes: %v", err)
	}
	if err := c.SetBytes("forever", []byte("v"), 0); err != nil {
		t.Fatalf("SetBytes: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, ok, _ := c.GetBytes("short"); ok {
		t.Error("expired entry still served")
	}
	if _, ok, _ := c.GetBytes("forever"); !ok {
		t.Error("zero-TTL entry expired")
	}
}

func TestTTLCacheCopiesValue(t *testing.T) {
	c := NewTTLCache()
	buf := []byte("abc")
	if err := c.SetBytes("k", buf, time.Minute); err != nil {
		t.Fatalf("SetBytes: %v", err)
	}
	buf[0] = 'X'

	b, ok, _ := c.GetBytes("k")
	if !ok || string(b) != "abc" {
		t.Fatalf("cached value mutated through caller buffer: %q", b)
	}
}

func TestTTLCacheDeleteByPrefix(t *testing.T) {
	c := NewTTLCache()
	for _, k := range []string{"signals:list:a", "signals:list:b", "health:x"} {
		if err := c.SetBytes(k, []byte("v"), time.Minute); err != nil {
			t.Fatalf("SetBytes(%s): %v", k, err)
		}
	}
	if err := c.DeleteByPrefix("signals:"); err != nil {
		t.Fatalf("DeleteByPrefix: %v", err)
	}

	if _, ok, _ := c.GetBytes("signals:list:a"); ok {
		t.Error("prefixed entry survived delete")
	}
	if _, ok, _ := c.GetBytes("signals:list:b"); ok {
		t.Error("prefixed entry survived delete")
	}
	if _, ok, _ := c.GetBytes("health:x"); !ok {
		t.Error("unrelated entry was deleted")
	}
}
