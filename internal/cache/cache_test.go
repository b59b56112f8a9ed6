package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/termslens/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	page := CacheKey(KindPage, "https://api.example.com/terms")
	analysis := CacheKey(KindAnalysis, "https://api.example.com/terms")

	assert.True(t, strings.HasPrefix(page, "termslens:v1:page:"))
	assert.NotEqual(t, page, analysis)
	assert.Equal(t, page, CacheKey(KindPage, "https://api.example.com/terms"))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, 0)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestMemoryCache_EvictsSoonestExpiring(t *testing.T) {
	c := NewMemoryCache(time.Hour, 2)

	require.NoError(t, c.Set("page", []byte("terms text"), time.Minute))
	require.NoError(t, c.Set("analysis", []byte(`{"summary":"x"}`), 0))
	require.NoError(t, c.Set("analysis", []byte(`{"summary":"y"}`), 0))
	assert.Equal(t, 2, c.Len(), "overwriting a key does not evict")

	require.NoError(t, c.Set("other", []byte("more text"), 0))
	assert.Equal(t, 2, c.Len())

	_, ok := c.Get("page")
	assert.False(t, ok, "the entry closest to expiry is evicted")
	got, ok := c.Get("analysis")
	require.True(t, ok)
	assert.Equal(t, `{"summary":"y"}`, string(got))
	_, ok = c.Get("other")
	assert.True(t, ok)
}

func TestMemoryCache_CopiesValues(t *testing.T) {
	c := NewMemoryCache(time.Minute, 0)

	in := []byte("terms")
	require.NoError(t, c.Set("k", in, 0))
	in[0] = 'X'

	out, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "terms", string(out))

	out[0] = 'Y'
	again, _ := c.Get("k")
	assert.Equal(t, "terms", string(again))
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := CacheKey(KindAnalysis, "https://a.example.com")

	require.NoError(t, c.Set(key, []byte(`{"summary":"x"}`), 0))
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, `{"summary":"x"}`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are renamed into place")
	assert.NotContains(t, entries[0].Name(), ":")

	require.NoError(t, c.Set(key, []byte("old"), time.Nanosecond))
	time.Sleep(2 * time.Millisecond)
	_, ok = c.Get(key)
	assert.False(t, ok)
	_, err = os.Stat(filepath.Join(dir, entries[0].Name()))
	assert.True(t, os.IsNotExist(err), "expired entries are removed")

	assert.NoError(t, c.Delete(key), "deleting a missing entry is fine")
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	key := CacheKey(KindPage, "https://a.example.com")

	cfg := model.CacheConfig{Dir: dir, MemoryTTL: time.Minute, DiskTTL: time.Hour, MemoryMaxEntries: 8}
	first := NewLayeredCache(cfg)
	require.NoError(t, first.Set(key, []byte("terms text"), 0))

	// A fresh cache over the same directory simulates a restart
	second := NewLayeredCache(cfg)
	got, ok := second.Get(key)
	require.True(t, ok)
	assert.Equal(t, "terms text", string(got))

	mem, ok := second.memory.Get(key)
	require.True(t, ok)
	assert.Equal(t, "terms text", string(mem))

	require.NoError(t, second.Clear())
	_, ok = second.Get(key)
	assert.False(t, ok)
}

func TestOpen(t *testing.T) {
	assert.IsType(t, Noop{}, Open(model.CacheConfig{Enabled: false}))

	c := Open(model.CacheConfig{Enabled: true, Dir: t.TempDir(), MemoryTTL: time.Minute, DiskTTL: time.Hour})
	assert.IsType(t, &LayeredCache{}, c)

	var noop Noop
	require.NoError(t, noop.Set("k", []byte("v"), 0))
	_, ok := noop.Get("k")
	assert.False(t, ok)
}
