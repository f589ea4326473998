package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache implements in-memory TTL caching. Entries are checked lazily
// against their capture time; the go-cache janitor only reclaims memory.
type MemoryCache struct {
	cache *gocache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryCache creates a new memory cache. A cleanupInterval <= 0 disables
// the background janitor.
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &MemoryCache{
		cache: gocache.New(gocache.NoExpiration, cleanupInterval),
		ttl:   defaultTTL,
		now:   time.Now,
	}
}

// WithClock replaces the time source used for freshness checks
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.now = now
	return c
}

// Get retrieves a value from the cache. Expired entries are treated as absent.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	val, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	entry := val.(storedEntry)
	if !entry.Fresh(c.now(), entry.ttl) {
		c.cache.Delete(key)
		return nil, false
	}
	return entry.Value, true
}

// Set stores a value under key. A ttl of 0 uses the cache default. The value
// is copied so later mutation by the caller cannot change the entry.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	data := make([]byte, len(value))
	copy(data, value)

	entry := storedEntry{
		Entry: Entry{CapturedAt: c.now(), Value: data},
		ttl:   ttl,
	}
	// The janitor uses wall time; keep the item a little past its window so
	// the freshness check above stays authoritative.
	c.cache.Set(key, entry, 2*ttl)
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear removes all values from the cache
func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	return nil
}

// Len returns the number of stored items, including expired ones not yet reclaimed
func (c *MemoryCache) Len() int {
	return c.cache.ItemCount()
}

type storedEntry struct {
	Entry
	ttl time.Duration
}
