package cache

import (
	"strconv"
	"testing"
)

func TestCacheGetSet(t *testing.T) {
	c := New[string, int](4, StringHasher)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache = true, want false")
	}

	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}

	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Get(a) after update = %d, want 2", v)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	// Identity hash keyed to land every entry in one shard, so the
	// per-shard capacity is exercised deterministically.
	sameShard := func(uint64) uint64 { return 0 }
	c := New[uint64, string](2, sameShard)

	c.Set(1, "one")
	c.Set(2, "two")
	c.Get(1) // refresh 1; 2 becomes oldest
	c.Set(3, "three")

	if _, ok := c.Get(2); ok {
		t.Error("entry 2 survived, want evicted as least recently used")
	}
	if _, ok := c.Get(1); !ok {
		t.Error("entry 1 evicted, want kept (recently used)")
	}
	if _, ok := c.Get(3); !ok {
		t.Error("entry 3 missing, want kept (just inserted)")
	}
}

func TestCacheDelete(t *testing.T) {
	c := New[string, int](4, StringHasher)
	c.Set("a", 1)

	if !c.Delete("a") {
		t.Error("Delete(a) = false, want true")
	}
	if c.Delete("a") {
		t.Error("second Delete(a) = true, want false")
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) after delete = true, want false")
	}
}

func TestCacheClear(t *testing.T) {
	c := New[string, int](8, StringHasher)
	for i := 0; i < 20; i++ {
		c.Set(strconv.Itoa(i), i)
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	// The cache keeps working after Clear.
	c.Set("x", 1)
	if v, ok := c.Get("x"); !ok || v != 1 {
		t.Errorf("Get(x) = %d, %v; want 1, true", v, ok)
	}
}

func TestCacheStats(t *testing.T) {
	c := New[string, int](4, StringHasher)
	c.Set("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("b")

	st := c.Stats()
	if st.Hits != 2 {
		t.Errorf("Hits = %d, want 2", st.Hits)
	}
	if st.Misses != 1 {
		t.Errorf("Misses = %d, want 1", st.Misses)
	}
	if st.HitRate < 0.66 || st.HitRate > 0.67 {
		t.Errorf("HitRate = %v, want ~0.667", st.HitRate)
	}
}

func TestCacheDefaultCapacity(t *testing.T) {
	c := New[string, int](0, StringHasher)
	if c.Capacity() != DefaultCapacity {
		t.Errorf("Capacity() = %d, want %d", c.Capacity(), DefaultCapacity)
	}
}
