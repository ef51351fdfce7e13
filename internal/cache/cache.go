// Package cache provides a small in-process TTL cache shared by the search
// and document-fetch layers. Entries expire on read; an optional sweep
// removes them eagerly. The cache holds per-session working data only and is
// never persisted.
package cache

import (
	"sync"
	"time"
)

// entry is one stored value with its expiry deadline.
type entry[V any] struct {
	value   V
	addedAt time.Time
	expiry  time.Time
}

// TTL is a generic key → value cache where every entry expires a fixed
// duration after insertion. The zero value is not usable; construct with
// [New]. All methods are safe for concurrent use.
type TTL[K comparable, V any] struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[K]entry[V]
}

// Option configures a [TTL] cache.
type Option[K comparable, V any] func(*TTL[K, V])

// WithClock overrides the time source. Used by tests to control expiry
// without sleeping.
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *TTL[K, V]) {
		c.now = now
	}
}

// New creates a TTL cache whose entries live for ttl after insertion.
// A non-positive ttl disables caching: Get always misses.
func New[K comparable, V any](ttl time.Duration, opts ...Option[K, V]) *TTL[K, V] {
	c := &TTL[K, V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[K]entry[V]),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the cached value for key if present and not expired. Expired
// entries are deleted on access.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	var zero V
	if c.ttl <= 0 {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.now().After(e.expiry) {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, replacing any previous entry and restarting
// the TTL.
func (c *TTL[K, V]) Set(key K, value V) {
	if c.ttl <= 0 {
		return
	}

	now := c.now()
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, addedAt: now, expiry: now.Add(c.ttl)}
	c.mu.Unlock()
}

// Delete removes key if present.
func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Purge removes all entries.
func (c *TTL[K, V]) Purge() {
	c.mu.Lock()
	c.entries = make(map[K]entry[V])
	c.mu.Unlock()
}

// Sweep removes all expired entries and returns how many were evicted.
// Callers that keep long-lived caches should sweep periodically; Get already
// evicts lazily, so sweeping is an optimisation, not a correctness need.
func (c *TTL[K, V]) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for k, e := range c.entries {
		if now.After(e.expiry) {
			delete(c.entries, k)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of stored entries, expired or not.
func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
