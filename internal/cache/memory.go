package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory layer entries above this size are not worth pinning: a year's
// worth of return XML would displace everything else.
const maxMemoryEntryBytes = 4 << 20

// MemoryCache keeps small hot entries (index pages, the concordance
// overlay) in process memory.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a memory cache with the given default TTL and
// expired-entry sweep interval.
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{cache: gocache.New(defaultTTL, cleanupInterval)}
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	if val, found := c.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a value unless it exceeds the per-entry size cap. Oversized
// values are silently skipped; the disk layer still holds them.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if len(value) > maxMemoryEntryBytes {
		return nil
	}
	c.cache.Set(key, value, ttl)
	return nil
}

func (c *MemoryCache) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	return nil
}
