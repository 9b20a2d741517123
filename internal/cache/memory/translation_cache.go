// Package memory provides an in-process translation cache used when Redis is
// not configured, and as a deterministic fake in tests.
package memory

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// TranslationCache implements domain.TranslationCache with a mutex-guarded
// map and lazy time-based eviction. Entries are immutable once written, so a
// concurrent overwrite with the same key is harmless.
type TranslationCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewTranslationCache creates a new in-memory translation cache.
func NewTranslationCache() *TranslationCache {
	return &TranslationCache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get retrieves a cached translation, evicting it first if expired.
func (c *TranslationCache) Get(_ context.Context, text, target string) (string, bool) {
	key := text + "\x00" + target

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}

	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return "", false
	}

	return e.value, true
}

// Set stores a translation. A non-positive TTL means no expiry.
func (c *TranslationCache) Set(_ context.Context, text, target, translated string, ttl time.Duration) {
	key := text + "\x00" + target

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry{value: translated, expiresAt: expiresAt}
	c.mu.Unlock()
}

// Len reports the number of live entries. Used by tests.
func (c *TranslationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
