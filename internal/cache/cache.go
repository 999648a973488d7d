package cache

import (
	"sync"
	"time"
)

// Cache is a key-value store whose entries expire a fixed time after they were written.
type Cache[K comparable, V any] interface {
	// Get returns the value and whether it was present and fresh.
	Get(key K) (V, bool)
	// Set stores value, restarting its expiry clock.
	Set(key K, value V)
	// Invalidate drops key so the next Get misses.
	Invalidate(key K)
	// InvalidateAll drops every entry.
	InvalidateAll()
	// Len counts fresh entries.
	Len() int
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// TTLCache is a goroutine-safe map-backed Cache. Expired entries are treated as
// misses and removed lazily on the next write to the same key or by Sweep.
type TTLCache[K comparable, V any] struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[K]entry[V]
}

// now is swapped in tests.
var now = time.Now

// NewTTL returns a TTLCache. ttl <= 0 disables expiry.
func NewTTL[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		ttl:   ttl,
		items: make(map[K]entry[V]),
	}
}

func (c *TTLCache[K, V]) fresh(e entry[V], at time.Time) bool {
	return c.ttl <= 0 || at.Sub(e.storedAt) < c.ttl
}

// Get implements Cache.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || !c.fresh(e, now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set implements Cache.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry[V]{value: value, storedAt: now()}
}

// Invalidate implements Cache.
func (c *TTLCache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// InvalidateAll implements Cache.
func (c *TTLCache[K, V]) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]entry[V])
}

// Len implements Cache.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	at := now()
	n := 0
	for _, e := range c.items {
		if c.fresh(e, at) {
			n++
		}
	}
	return n
}

// Sweep removes expired entries and returns how many were dropped.
func (c *TTLCache[K, V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	at := now()
	dropped := 0
	for k, e := range c.items {
		if !c.fresh(e, at) {
			delete(c.items, k)
			dropped++
		}
	}
	return dropped
}

var _ Cache[string, int] = (*TTLCache[string, int])(nil)
