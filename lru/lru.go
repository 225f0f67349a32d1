// Package lru implements LRU: a bounded-capacity cache combining
// hashmap.Map for O(1) lookup with an intrusive doubly-linked list for
// O(1) recency tracking and eviction, following the fakeHead/fakeTail
// sentinel list pattern used by the pack's memcached-style LRU cache
// (spec.md LRU).
package lru

import "github.com/coreds/containers/hashmap"

type entry[K any, V any] struct {
	key        K
	val        V
	prev, next *entry[K, V]
}

// Cache is a fixed-capacity, least-recently-used eviction cache.
type Cache[K any, V any] struct {
	index    *hashmap.Map[K, *entry[K, V]]
	capacity int

	// fakeHead/fakeTail are sentinel nodes so every real entry always
	// has a non-nil prev and next, removing head/tail special-casing
	// from unlink/pushFront.
	fakeHead, fakeTail *entry[K, V]

	free []*entry[K, V] // recycled entry nodes from evictions
}

// New constructs a Cache holding at most capacity entries, using ctx for
// key hashing/equality.
func New[K any, V any](capacity int, ctx hashmap.Context[K]) *Cache[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	c := &Cache[K, V]{
		index:    hashmap.New[K, *entry[K, V]](ctx),
		capacity: capacity,
		fakeHead: &entry[K, V]{},
		fakeTail: &entry[K, V]{},
	}
	c.fakeHead.next = c.fakeTail
	c.fakeTail.prev = c.fakeHead
	return c
}

// Count returns the number of entries currently cached.
func (c *Cache[K, V]) Count() int { return c.index.Count() }

// Capacity returns the maximum number of entries the cache will hold.
func (c *Cache[K, V]) Capacity() int { return c.capacity }

func (c *Cache[K, V]) unlink(e *entry[K, V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
}

func (c *Cache[K, V]) pushFront(e *entry[K, V]) {
	e.next = c.fakeHead.next
	e.prev = c.fakeHead
	c.fakeHead.next.prev = e
	c.fakeHead.next = e
}

func (c *Cache[K, V]) touch(e *entry[K, V]) {
	c.unlink(e)
	c.pushFront(e)
}

// Get looks up key, marking it most-recently-used on a hit.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	ePtr, ok := c.index.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	e := ePtr
	c.touch(e)
	return e.val, true
}

// Peek looks up key without affecting recency order.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	ePtr, ok := c.index.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	return ePtr.val, true
}

// recycle pulls a free entry node if one is available from a prior
// eviction, avoiding an allocation on the common insert-after-evict path.
func (c *Cache[K, V]) recycle() *entry[K, V] {
	if n := len(c.free); n > 0 {
		e := c.free[n-1]
		c.free = c.free[:n-1]
		return e
	}
	return &entry[K, V]{}
}

// Put inserts or updates key/val, evicting the least-recently-used entry
// if the cache is at capacity and key is new. It reports whether an
// eviction happened and, if so, the evicted key/value — callers needing
// AllocationFailure propagation from the backing hashmap get it via the
// returned error, matching the ambient error contract even though the
// illustrative spec.md surface omits it.
func (c *Cache[K, V]) Put(key K, val V) (evictedKey K, evictedVal V, evicted bool, err error) {
	if c.capacity == 0 {
		return evictedKey, evictedVal, false, nil
	}
	if ePtr, ok := c.index.Get(key); ok {
		ePtr.val = val
		c.touch(ePtr)
		return evictedKey, evictedVal, false, nil
	}

	if c.index.Count() >= c.capacity {
		lru := c.fakeTail.prev
		c.unlink(lru)
		c.index.Remove(lru.key)
		evictedKey, evictedVal, evicted = lru.key, lru.val, true
		c.free = append(c.free, lru)
	}

	e := c.recycle()
	e.key, e.val = key, val
	if putErr := c.index.Put(key, e); putErr != nil {
		return evictedKey, evictedVal, evicted, putErr
	}
	c.pushFront(e)
	return evictedKey, evictedVal, evicted, nil
}

// Remove deletes key if present, returning whether it was found.
func (c *Cache[K, V]) Remove(key K) bool {
	ePtr, ok := c.index.Get(key)
	if !ok {
		return false
	}
	c.unlink(ePtr)
	c.index.Remove(key)
	c.free = append(c.free, ePtr)
	return true
}

// Clear empties the cache, retaining its backing storage.
func (c *Cache[K, V]) Clear() {
	c.index.Clear()
	c.fakeHead.next = c.fakeTail
	c.fakeTail.prev = c.fakeHead
	c.free = nil
}

// Destroy releases the cache's backing storage entirely.
func (c *Cache[K, V]) Destroy() {
	c.index.Destroy()
	c.fakeHead.next = c.fakeTail
	c.fakeTail.prev = c.fakeHead
	c.free = nil
}
