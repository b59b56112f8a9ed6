package cache

import (
	"math"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const memoryCleanupInterval = 10 * time.Minute

// MemoryCache keeps recently fetched pages and analyses in process memory.
// Entries expire individually. Once maxEntries is reached, the entry closest
// to expiry makes room for a new key. Values are copied on Set and Get.
type MemoryCache struct {
	mu         sync.Mutex
	items      *gocache.Cache
	maxEntries int
}

// NewMemoryCache creates a memory cache; maxEntries <= 0 means unbounded
func NewMemoryCache(defaultTTL time.Duration, maxEntries int) *MemoryCache {
	return &MemoryCache{
		items:      gocache.New(defaultTTL, memoryCleanupInterval),
		maxEntries: maxEntries,
	}
}

// Get returns a copy of the cached bytes
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	val, found := c.items.Get(key)
	if !found {
		return nil, false
	}
	b, ok := val.([]byte)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

// Set stores a copy of value; a zero ttl uses the cache default
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxEntries > 0 {
		if _, exists := c.items.Get(key); !exists && c.items.ItemCount() >= c.maxEntries {
			c.evictSoonest()
		}
	}
	c.items.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

// evictSoonest drops the live entry with the nearest expiry. Entries without
// expiry go last.
func (c *MemoryCache) evictSoonest() {
	victim := ""
	soonest := int64(math.MaxInt64)
	for k, item := range c.items.Items() {
		exp := item.Expiration
		if exp == 0 {
			exp = math.MaxInt64
		}
		if victim == "" || exp < soonest {
			victim, soonest = k, exp
		}
	}
	if victim != "" {
		c.items.Delete(victim)
	}
}

// Len reports the number of stored entries, expired ones included until the
// next cleanup
func (c *MemoryCache) Len() int {
	return c.items.ItemCount()
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(key string) error {
	c.items.Delete(key)
	return nil
}

// Clear removes all values from the cache
func (c *MemoryCache) Clear() error {
	c.items.Flush()
	return nil
}
