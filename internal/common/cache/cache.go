// Package cache provides a small in-memory TTL cache with a background janitor.
package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Entry represents a cached value with TTL
type Entry struct {
	Value     interface{}
	ExpiresAt time.Time
}

// expired reports whether the entry is stale at now
func (e *Entry) expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Stats tracks cache hits and misses
type Stats struct {
	Hits   int64
	Misses int64
}

// LocalCache implements an in-memory cache with TTL support
type LocalCache struct {
	mu   sync.RWMutex
	data map[string]*Entry
	now  func() time.Time

	hits   atomic.Int64
	misses atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a LocalCache
type Option func(*LocalCache)

// WithNow replaces the time source, mainly for tests
func WithNow(now func() time.Time) Option {
	return func(c *LocalCache) { c.now = now }
}

// New creates a cache whose janitor sweeps expired entries every
// cleanupInterval. A non-positive interval disables the janitor.
func New(cleanupInterval time.Duration, opts ...Option) *LocalCache {
	c := &LocalCache{
		data: make(map[string]*Entry),
		now:  time.Now,
		stop: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if cleanupInterval > 0 {
		go c.janitor(cleanupInterval)
	}
	return c
}

// Get retrieves a value from the cache
func (c *LocalCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()

	if !ok || entry.expired(c.now()) {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return entry.Value, true
}

// Set stores a value in the cache with TTL
func (c *LocalCache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	c.data[key] = &Entry{Value: value, ExpiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Delete removes a value from the cache
func (c *LocalCache) Delete(key string) {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
}

// Len returns the number of entries, expired or not
func (c *LocalCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Stats returns a snapshot of the hit and miss counters
func (c *LocalCache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Stop halts the janitor. It is safe to call more than once.
func (c *LocalCache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// DeleteExpired removes every stale entry
func (c *LocalCache) DeleteExpired() {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.data {
		if entry.expired(now) {
			delete(c.data, key)
		}
	}
}

func (c *LocalCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.DeleteExpired()
		case <-c.stop:
			return
		}
	}
}
