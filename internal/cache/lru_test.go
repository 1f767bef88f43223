package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestLRUCacheGetSet(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache returned ok")
	}

	c.Set("a", "one")
	got, ok := c.Get("a")
	if !ok || got != "one" {
		t.Errorf("Get(a) = %q, %v, want %q, true", got, ok, "one")
	}

	c.Set("a", "two")
	got, _ = c.Get("a")
	if got != "two" {
		t.Errorf("Get(a) after overwrite = %q, want %q", got, "two")
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[int](3, time.Minute)

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}

	// Touch k0 so k1 becomes the eviction candidate.
	c.Get("k0")
	c.Set("k3", 3)

	if c.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", c.Size())
	}
	if _, ok := c.Get("k1"); ok {
		t.Error("k1 should have been evicted")
	}
	if _, ok := c.Get("k0"); !ok {
		t.Error("k0 should still be cached")
	}
}

func TestLRUCacheTTL(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("k", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expired entry returned from Get")
	}
}

func TestLRUCacheCleanExpired(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(20 * time.Millisecond)
	c.Set("c", 3)

	removed := c.CleanExpired()
	if removed != 2 {
		t.Errorf("CleanExpired() = %d, want 2", removed)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestLRUCacheDeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)

	c.Set("user:1:dashboard", 1)
	c.Set("user:1:report:2023-02", 2)
	c.Set("user:2:dashboard", 3)

	removed := c.DeletePrefix("user:1:")
	if removed != 2 {
		t.Errorf("DeletePrefix() = %d, want 2", removed)
	}
	if _, ok := c.Get("user:2:dashboard"); !ok {
		t.Error("unrelated key was removed")
	}
	if _, ok := c.Get("user:1:dashboard"); ok {
		t.Error("prefixed key survived DeletePrefix")
	}
}

func TestJanitorSweepsExpiredEntries(t *testing.T) {
	c := NewLRUCache[int](10, 5*time.Millisecond)
	c.Set("k", 1)

	j := NewJanitor(c)
	j.Start(10 * time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	j.Stop()

	if c.Size() != 0 {
		t.Errorf("Size() after sweep = %d, want 0", c.Size())
	}
}
