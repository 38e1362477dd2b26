package dedupe

import (
	"context"
	"sync"
)

const defaultMaxSize = 64

// Cache records one value per request id with oldest-first eviction.
// It is safe for concurrent use.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]V
	order   []string // insertion order, oldest first
	maxSize int
}

// New creates a cache configured by opts.
func New[V any](opts ...Option) *Cache[V] {
	s := settings{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(&s)
	}
	return &Cache[V]{
		entries: make(map[string]V),
		maxSize: s.maxSize,
	}
}

// Lookup returns the value recorded for id.
func (c *Cache[V]) Lookup(_ context.Context, id string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[id]
	return v, ok
}

// Record stores v under id unless id is already present.
// Returns true if id was already recorded; the existing value is kept.
func (c *Cache[V]) Record(_ context.Context, id string, v V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[id]; exists {
		return true
	}
	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[id] = v
	c.order = append(c.order, id)
	return false
}

// Clear drops every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]V)
	c.order = nil
}

// Size returns the number of remembered ids.
func (c *Cache[V]) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.entries))
}

// evictOldest must be called with c.mu held.
func (c *Cache[V]) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}
