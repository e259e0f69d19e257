// Package cache provides a time-aware memoizing wrapper for lookup
// functions, primarily used to shield metadata accessors from repeated
// database round-trips.
package cache

import (
	"context"
	"sync"
	"time"
)

// FetchFunc is the wrapped lookup. It must be side-effect free; its
// result is memoized per key.
type FetchFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache memoizes the results of a FetchFunc for a bounded number of keys,
// each for at most a fixed time-to-live.
//
// A failed fetch is never memoized. Concurrent callers missing on the same
// key may each invoke the fetch function; calls are not coalesced.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	fetch   FetchFunc[K, V]
	maxSize int
	ttl     time.Duration
	entries map[K]entry[V]
	order   []K // insertion order, oldest first

	now func() time.Time
}

// New returns a cache around fetch holding at most maxSize keys, each
// valid for ttl after being stored.
func New[K comparable, V any](maxSize int, ttl time.Duration, fetch FetchFunc[K, V]) *Cache[K, V] {
	return &Cache[K, V]{
		fetch:   fetch,
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[K]entry[V]),
		now:     time.Now,
	}
}

// Get returns the cached value for key, invoking the wrapped fetch
// function on a miss or after the entry's TTL has elapsed. Expired
// entries are refreshed in place and keep their eviction slot.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Sub(e.storedAt) <= c.ttl {
		c.mu.Unlock()
		return e.value, nil
	}
	c.mu.Unlock()

	// Fetch without holding the lock; the store round-trip may block.
	value, err := c.fetch(ctx, key)
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	_, existed := c.entries[key]
	c.entries[key] = entry[V]{value: value, storedAt: c.now()}
	if !existed {
		c.order = append(c.order, key)
		for len(c.entries) > c.maxSize {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
	}
	c.mu.Unlock()
	return value, nil
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
