package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a process-wide TTL key-value store shielding the spreadsheet from
// repeated reads. The TTL is fixed at construction; Set always resets the
// entry timestamp. Safe for concurrent use.
type Cache struct {
	c *gocache.Cache
}

// New creates a cache whose entries expire ttl after their last Set.
func New(ttl time.Duration) *Cache {
	return &Cache{c: gocache.New(ttl, ttl)}
}

// Get returns the value stored under key, or ok=false once the TTL elapsed.
func (c *Cache) Get(key string) (interface{}, bool) {
	return c.c.Get(key)
}

// GetStrings returns a cached string slice, or ok=false on miss or type mismatch.
func (c *Cache) GetStrings(key string) ([]string, bool) {
	v, ok := c.c.Get(key)
	if !ok {
		return nil, false
	}
	s, ok := v.([]string)
	return s, ok
}

// Set stores value under key, unconditionally overwriting and resetting the TTL clock.
func (c *Cache) Set(key string, value interface{}) {
	c.c.Set(key, value, gocache.DefaultExpiration)
}

// Delete removes key if present; no-op otherwise.
func (c *Cache) Delete(key string) {
	c.c.Delete(key)
}

// Clear empties the cache entirely.
func (c *Cache) Clear() {
	c.c.Flush()
}
