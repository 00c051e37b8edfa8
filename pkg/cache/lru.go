// Package cache provides the bounded, instance-owned caches used by the select
// component (normalized labels, filter results, rendered rows).
package cache

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// LRU is a bounded least-recently-used cache. The oldest pair sits at the
// front of the ordered map and is evicted first. Not safe for concurrent use.
type LRU[K comparable, V any] struct {
	capacity int
	entries  *orderedmap.OrderedMap[K, V]

	hits      int
	misses    int
	evictions int
}

// NewLRU creates a cache holding at most capacity entries (minimum 1)
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU[K, V]{
		capacity: capacity,
		entries:  orderedmap.New[K, V](),
	}
}

// Get returns the cached value and marks it recently used
func (c *LRU[K, V]) Get(key K) (V, bool) {
	v, err := c.entries.GetAndMoveToBack(key)
	if err != nil {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	return v, true
}

// Peek returns the cached value without touching recency
func (c *LRU[K, V]) Peek(key K) (V, bool) {
	return c.entries.Get(key)
}

// Put stores value under key, evicting the oldest entries when full
func (c *LRU[K, V]) Put(key K, value V) {
	if _, present := c.entries.Set(key, value); present {
		_ = c.entries.MoveToBack(key)
		return
	}
	for c.entries.Len() > c.capacity {
		c.evictOldest()
	}
}

// Delete removes key
func (c *LRU[K, V]) Delete(key K) {
	c.entries.Delete(key)
}

// Len is the number of cached entries
func (c *LRU[K, V]) Len() int {
	return c.entries.Len()
}

// Capacity is the configured bound
func (c *LRU[K, V]) Capacity() int {
	return c.capacity
}

// Prune evicts oldest entries until at most keep remain
func (c *LRU[K, V]) Prune(keep int) int {
	if keep < 0 {
		keep = 0
	}
	evicted := 0
	for c.entries.Len() > keep {
		c.evictOldest()
		evicted++
	}
	return evicted
}

// Clear drops every entry
func (c *LRU[K, V]) Clear() {
	c.entries = orderedmap.New[K, V]()
}

// Stats reports hit/miss/eviction counters
func (c *LRU[K, V]) Stats() Stats {
	return Stats{Hits: c.hits, Misses: c.misses, Evictions: c.evictions, Len: c.entries.Len()}
}

func (c *LRU[K, V]) evictOldest() {
	oldest := c.entries.Oldest()
	if oldest == nil {
		return
	}
	c.entries.Delete(oldest.Key)
	c.evictions++
}

// Stats is a snapshot of cache counters
type Stats struct {
	Hits      int
	Misses    int
	Evictions int
	Len       int
}
