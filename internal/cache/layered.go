package cache

import (
	"time"

	"github.com/ppiankov/termslens/internal/model"
	"github.com/sirupsen/logrus"
)

// LayeredCache serves pages and analyses from memory, backed by the on-disk
// store so they survive a backend restart.
type LayeredCache struct {
	memory *MemoryCache
	disk   *DiskCache
}

// NewLayeredCache builds both layers from the cache config
func NewLayeredCache(cfg model.CacheConfig) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(cfg.MemoryTTL, cfg.MemoryMaxEntries),
		disk:   NewDiskCache(cfg.Dir, cfg.DiskTTL),
	}
}

// Get checks memory, then disk. Disk hits are copied into memory.
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		logrus.WithFields(logrus.Fields{"key": key, "layer": "memory"}).Debug("Cache hit")
		return val, true
	}

	val, found := c.disk.Get(key)
	if !found {
		return nil, false
	}
	logrus.WithFields(logrus.Fields{"key": key, "layer": "disk"}).Debug("Cache hit")
	_ = c.memory.Set(key, val, 0)
	return val, true
}

// Set writes through to both layers. When the disk write fails the memory
// copy stays and the error is returned.
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	_ = c.memory.Set(key, value, ttl)

	if err := c.disk.Set(key, value, ttl); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Disk cache write failed")
		return err
	}
	return nil
}

// Delete removes a value from both layers
func (c *LayeredCache) Delete(key string) error {
	_ = c.memory.Delete(key)
	return c.disk.Delete(key)
}

// Clear empties both layers
func (c *LayeredCache) Clear() error {
	_ = c.memory.Clear()
	return c.disk.Clear()
}
