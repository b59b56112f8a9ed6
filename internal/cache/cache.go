package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/termslens/internal/model"
)

// Kinds of cached backend data
const (
	KindPage     = "page"     // focus text extracted from a terms page
	KindAnalysis = "analysis" // compact analysis JSON for a URL
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey generates a cache key for one kind of data about a URL
func CacheKey(kind, url string) string {
	hash := sha256.Sum256([]byte(url))
	return "termslens:v1:" + kind + ":" + hex.EncodeToString(hash[:])
}

// Open builds the backend cache from config. A disabled cache stores nothing.
func Open(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return Noop{}
	}
	return NewLayeredCache(cfg)
}

// Noop is a cache that never hits
type Noop struct{}

func (Noop) Get(string) ([]byte, bool)               { return nil, false }
func (Noop) Set(string, []byte, time.Duration) error { return nil }
func (Noop) Delete(string) error                     { return nil }
func (Noop) Clear() error                            { return nil }
