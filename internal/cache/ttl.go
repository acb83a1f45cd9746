// Package cache memoizes computed results between requests.
package cache

import (
	"sync"
	"time"
)

// TTLCache is a bounded in-memory cache where every entry expires after a
// fixed duration. When full, the entry closest to expiry is evicted.
type TTLCache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	entries map[string]entry[V]
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewTTLCache creates a cache holding at most maxSize entries, each valid
// for ttl after being set.
func NewTTLCache[V any](maxSize int, ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the cached value for key if present and not expired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, restarting its TTL. If the cache is full and
// key is new, the entry expiring soonest is dropped to make room.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.maxSize {
		c.evictSoonestLocked()
	}
	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Delete removes key from the cache if present.
func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Prune drops all expired entries and reports how many were removed.
func (c *TTLCache[V]) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently stored, expired or not.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TTLCache[V]) evictSoonestLocked() {
	var victim string
	var soonest time.Time
	first := true
	for key, e := range c.entries {
		if first || e.expiresAt.Before(soonest) {
			victim = key
			soonest = e.expiresAt
			first = false
		}
	}
	if !first {
		delete(c.entries, victim)
	}
}
