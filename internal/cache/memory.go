package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memorySweepInterval is how often expired catalog responses are purged
// from the in-memory layer. Entries live for the configured memory TTL
// (an hour by default), so a sweep every few minutes keeps the map small.
const memorySweepInterval = 5 * time.Minute

// MemoryCache holds catalog responses in memory with per-entry expiry.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a memory cache. defaultTTL applies to entries
// stored with a zero TTL.
func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, memorySweepInterval),
	}
}

// Get returns the payload stored under key, if present and not expired.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	if val, found := c.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a payload under key for ttl (the default TTL when zero).
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	c.cache.Set(key, value, ttl)
	return nil
}

// Delete removes the entry for key.
func (c *MemoryCache) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear drops every entry.
func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	return nil
}
