package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL applies when a cache is constructed without an explicit TTL.
const DefaultTTL = 5 * time.Minute

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is a concurrency-safe in-memory cache with per-entry expiry.
// Expired entries are dropped lazily on read and during Purge.
type TTLCache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     func() time.Time
}

// Option customises TTLCache construction.
type Option[V any] func(*TTLCache[V])

// WithClock injects a custom clock primarily for tests.
func WithClock[V any](clock func() time.Time) Option[V] {
	return func(c *TTLCache[V]) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewTTLCache constructs an empty cache whose entries live for ttl.
func NewTTLCache[V any](ttl time.Duration, opts ...Option[V]) *TTLCache[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &TTLCache[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the cached value when present and unexpired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	var zero V
	key = strings.TrimSpace(key)
	if c == nil || key == "" {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if !c.now().Before(item.expiresAt) {
		delete(c.entries, key)
		return zero, false
	}
	return item.value, true
}

// Set stores the value under key, resetting its expiry.
func (c *TTLCache[V]) Set(key string, value V) {
	key = strings.TrimSpace(key)
	if c == nil || key == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Delete removes the entry for key when present.
func (c *TTLCache[V]) Delete(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, strings.TrimSpace(key))
}

// Purge drops every expired entry and reports how many were removed.
func (c *TTLCache[V]) Purge() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, item := range c.entries {
		if now.Before(item.expiresAt) {
			continue
		}
		delete(c.entries, key)
		removed++
	}
	return removed
}

// Len reports the number of stored entries including any not yet purged.
func (c *TTLCache[V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
