// Package cache provides small in-memory result caches with time-bounded
// freshness.
package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultWindow is the freshness window applied when none is configured.
const DefaultWindow = 5 * time.Minute

type entry[V any] struct {
	value      V
	insertedAt time.Time
}

// TTL caches values per normalized key for a fixed freshness window.
// Expired entries are removed lazily on lookup; there is no background
// sweeper and no capacity bound.
type TTL[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	window  time.Duration
	now     func() time.Time
}

// NewTTL creates a cache with the given freshness window.
func NewTTL[V any](window time.Duration) *TTL[V] {
	if window <= 0 {
		window = DefaultWindow
	}
	return &TTL[V]{
		entries: make(map[string]entry[V]),
		window:  window,
		now:     time.Now,
	}
}

// Normalize returns the canonical form of a cache key.
func Normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Get returns the cached value for key while the entry is fresh. A stale
// entry is removed and reported as a miss.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	k := Normalize(key)
	e, ok := c.entries[k]
	if !ok {
		return zero, false
	}
	if c.now().Sub(e.insertedAt) > c.window {
		delete(c.entries, k)
		return zero, false
	}
	return e.value, true
}

// Put stores value under key, overwriting any prior entry unconditionally.
func (c *TTL[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[Normalize(key)] = entry[V]{value: value, insertedAt: c.now()}
}

// Clear drops all entries immediately.
func (c *TTL[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry[V])
}

// Len returns the number of entries currently held, including entries that
// have expired but not yet been looked up.
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
