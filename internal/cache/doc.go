// Package cache provides a generic sharded LRU cache.
//
// The frame package uses it to keep decoded source images around so
// re-staging the same frame skips the decode. Shards reduce lock
// contention when several goroutines stage frames concurrently; each
// shard evicts its least recently used entry independently.
//
//	c := cache.New[string, *image.RGBA](32, cache.StringHasher)
//	c.Set(src.Key(), img)
//	img, ok := c.Get(src.Key())
//
// The cache is safe for concurrent use and must not be copied after
// creation.
package cache
