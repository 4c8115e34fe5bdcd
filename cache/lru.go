// Package cache provides content-hash keyed result caching: a generic
// in-process LRU plus summary stores backed by memory, the filesystem,
// and Redis.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// LRU is a generic thread-safe least-recently-used cache with metrics.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	items    map[K]*list.Element
	order    *list.List
	capacity int

	hits   atomic.Uint64
	misses atomic.Uint64
	evicts atomic.Uint64
}

// lruEntry pairs a key with its value inside the recency list.
type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// NewLRU creates an LRU with the given capacity. Non-positive capacities
// default to 1024 entries.
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity <= 0 {
		capacity = 1024
	}
	return &LRU[K, V]{
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
		capacity: capacity,
	}
}

// Get retrieves a value, marking it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry[K, V]).value, true
}

// Set adds or updates a value, evicting the least recently used entry
// when at capacity.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*lruEntry[K, V]).value = value
		c.order.MoveToFront(el)
		return
	}

	if len(c.items) >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			delete(c.items, oldest.Value.(*lruEntry[K, V]).key)
			c.order.Remove(oldest)
			c.evicts.Add(1)
		}
	}

	c.items[key] = c.order.PushFront(&lruEntry[K, V]{key: key, value: value})
}

// Delete removes a key.
func (c *LRU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		delete(c.items, key)
		c.order.Remove(el)
	}
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats holds cache counters.
type Stats struct {
	Size     int
	Capacity int
	Hits     uint64
	Misses   uint64
	Evicts   uint64
}

// Stats returns a snapshot of cache counters.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	size := len(c.items)
	c.mu.Unlock()

	return Stats{
		Size:     size,
		Capacity: c.capacity,
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Evicts:   c.evicts.Load(),
	}
}
