// Package cache provides a simple in-memory TTL cache.
// In production, this could be backed by Redis.
package cache

import (
	"strings"
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// InMemory is a thread-safe in-memory cache with per-entry TTL.
type InMemory[T any] struct {
	mu    sync.RWMutex
	items map[string]entry[T]
	stop  chan struct{}
}

// New creates a new in-memory cache. sweepInterval controls how often
// expired entries are physically removed; reads treat expired entries
// as absent regardless of the sweep.
func New[T any](sweepInterval time.Duration) *InMemory[T] {
	c := &InMemory[T]{
		items: make(map[string]entry[T]),
		stop:  make(chan struct{}),
	}
	// Background cleanup goroutine
	go c.cleanup(sweepInterval)
	return c
}

// Get retrieves a value from the cache. Returns false if not found or expired.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores a value in the cache with the given TTL. Setting an
// existing key replaces the value and restarts its TTL.
func (c *InMemory[T]) Set(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[T]{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete removes a value from the cache. Deleting an absent key is a no-op.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Keys returns the keys of all live entries.
func (c *InMemory[T]) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	keys := make([]string, 0, len(c.items))
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

// InvalidatePrefix removes every entry whose key starts with prefix.
// Used after writes to drop all cached variants for an owner at once.
func (c *InMemory[T]) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
}

// Close stops the background sweeper.
func (c *InMemory[T]) Close() {
	close(c.stop)
}

// cleanup periodically removes expired entries.
func (c *InMemory[T]) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for k, e := range c.items {
				if now.After(e.expiresAt) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
