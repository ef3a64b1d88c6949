package cache

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
)

const (
	// shardCount is a power of 2 so shard selection is a bitwise AND.
	shardCount = 8
	shardMask  = shardCount - 1

	// DefaultCapacity is the per-shard entry limit used when a
	// non-positive capacity is given.
	DefaultCapacity = 32
)

// Hasher computes the shard-selection hash for a key.
type Hasher[K any] func(K) uint64

// StringHasher hashes a string key with FNV-1a.
func StringHasher(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s)) // fnv never errors
	return h.Sum64()
}

// Uint64Hasher is the identity hash.
func Uint64Hasher(u uint64) uint64 { return u }

// Cache is a sharded LRU map. Each shard holds up to the configured
// capacity and evicts its least recently used entry first. Values are
// stored as-is, never copied; callers must not mutate a value after
// inserting it.
//
// Cache is safe for concurrent use and must not be copied after
// creation.
type Cache[K comparable, V any] struct {
	shards   [shardCount]*shard[K, V]
	hasher   Hasher[K]
	capacity int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type shard[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[K, V]
	lru     lruList[K]
}

type entry[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

// New returns a cache holding up to capacity entries per shard.
func New[K comparable, V any](capacity int, hasher Hasher[K]) *Cache[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache[K, V]{hasher: hasher, capacity: capacity}
	for i := range c.shards {
		c.shards[i] = &shard[K, V]{entries: make(map[K]*entry[K, V])}
	}
	return c
}

func (c *Cache[K, V]) shardFor(key K) *shard[K, V] {
	return c.shards[c.hasher(key)&shardMask]
}

// Get returns the value stored under key and refreshes its recency.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	s.lru.moveToFront(e.node)
	v := e.value
	s.mu.Unlock()
	c.hits.Add(1)
	return v, true
}

// Set stores value under key, evicting least recently used entries if
// the shard is full.
func (c *Cache[K, V]) Set(key K, value V) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.value = value
		s.lru.moveToFront(e.node)
		return
	}

	for len(s.entries) >= c.capacity {
		oldest, ok := s.lru.removeOldest()
		if !ok {
			break
		}
		delete(s.entries, oldest)
		c.evictions.Add(1)
	}

	s.entries[key] = &entry[K, V]{value: value, node: s.lru.pushFront(key)}
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	s.lru.remove(e.node)
	delete(s.entries, key)
	return true
}

// Clear drops every entry.
func (c *Cache[K, V]) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[K]*entry[K, V])
		s.lru.clear()
		s.mu.Unlock()
	}
}

// Len returns the total entry count across shards.
func (c *Cache[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	return total
}

// Capacity returns the per-shard entry limit.
func (c *Cache[K, V]) Capacity() int { return c.capacity }

// Stats is a snapshot of the cache counters.
type Stats struct {
	// Len is the current number of entries across all shards.
	Len int
	// Capacity is the per-shard entry limit.
	Capacity int
	// Hits and Misses count Get outcomes.
	Hits   uint64
	Misses uint64
	// HitRate is Hits / (Hits + Misses), 0 when unused.
	HitRate float64
	// Evictions counts entries dropped to make room.
	Evictions uint64
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[K, V]) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	st := Stats{
		Len:       c.Len(),
		Capacity:  c.capacity,
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
	}
	if total := hits + misses; total > 0 {
		st.HitRate = float64(hits) / float64(total)
	}
	return st
}
