package n8n

import (
	"net/url"
	"sync"
	"time"
)

// DefaultCacheTTL absorbs bursts of near-simultaneous dashboard requests
// without serving data that is stale to a human.
const DefaultCacheTTL = 2500 * time.Millisecond

type cacheEntry struct {
	payload  []byte
	storedAt time.Time
}

// Cache is an in-memory response cache with lazy expiry.
// Entries are never evicted proactively; an expired entry stays until it is
// overwritten or the cache is cleared.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCache creates an empty cache whose entries are valid for ttl.
func NewCache(ttl time.Duration, opts ...CacheOption) *Cache {
	c := &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the payload stored under key if it is younger than the TTL.
// The returned slice is shared and must not be modified.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(entry.storedAt) >= c.ttl {
		return nil, false
	}

	return entry.payload, true
}

// Set stores payload under key with the current time.
func (c *Cache) Set(key string, payload []byte) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{payload: payload, storedAt: c.now()}
	c.mu.Unlock()
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// cacheKey combines an endpoint with its query parameters. url.Values.Encode
// sorts by key, so parameter order does not affect the key.
func cacheKey(path string, params url.Values) string {
	return path + "?" + params.Encode()
}
