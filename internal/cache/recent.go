package cache

import (
	"sync"
)

type recentEntry[V any] struct {
	key   string
	value V
}

// Recent is a bounded pool of recently seen values. Insertion order is
// preserved, the oldest entry is evicted once the bound is exceeded, and a
// value already present under its identity key is not inserted twice.
type Recent[V any] struct {
	mu      sync.Mutex
	max     int
	entries []recentEntry[V]
}

// NewRecent creates a pool holding at most max values.
func NewRecent[V any](max int) *Recent[V] {
	if max <= 0 {
		max = 10
	}
	return &Recent[V]{max: max}
}

// Add inserts value under its identity key. Duplicates are ignored; when
// the pool is full the oldest entry is evicted first.
func (r *Recent[V]) Add(key string, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.key == key {
			return
		}
	}
	if len(r.entries) >= r.max {
		r.entries = r.entries[1:]
	}
	r.entries = append(r.entries, recentEntry[V]{key: key, value: value})
}

// Values returns the pooled values, most recent first.
func (r *Recent[V]) Values() []V {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]V, len(r.entries))
	for i, e := range r.entries {
		out[len(r.entries)-1-i] = e.value
	}
	return out
}

// Clear drops all entries.
func (r *Recent[V]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
}

// Len returns the number of pooled values.
func (r *Recent[V]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}
