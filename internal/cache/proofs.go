package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const memorySweep = 10 * time.Minute

// ProofCache keeps proof ids in process memory and, when a directory is
// configured, mirrors them to disk. Disk hits are copied into memory.
type ProofCache struct {
	memory *gocache.Cache
	disk   *DiskCache
}

// NewProofCache returns a memory-only cache, or a memory+disk cache when dir is set
func NewProofCache(dir string, ttl time.Duration) *ProofCache {
	c := &ProofCache{memory: gocache.New(ttl, memorySweep)}
	if dir != "" {
		c.disk = NewDiskCache(dir, ttl)
	}
	return c
}

// Persistent reports whether entries survive a restart
func (c *ProofCache) Persistent() bool {
	return c.disk != nil
}

func (c *ProofCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		if b, ok := val.([]byte); ok {
			return b, true
		}
	}
	if c.disk == nil {
		return nil, false
	}

	val, found := c.disk.Get(key)
	if !found {
		return nil, false
	}
	c.memory.SetDefault(key, val)
	return val, true
}

// Set stores a proof id. A zero ttl uses the cache default.
func (c *ProofCache) Set(key string, value []byte, ttl time.Duration) error {
	memTTL := ttl
	if memTTL == 0 {
		memTTL = gocache.DefaultExpiration
	}
	c.memory.Set(key, value, memTTL)

	if c.disk == nil {
		return nil
	}
	return c.disk.Set(key, value, ttl)
}

func (c *ProofCache) Delete(key string) error {
	c.memory.Delete(key)
	if c.disk == nil {
		return nil
	}
	return c.disk.Delete(key)
}

func (c *ProofCache) Clear() error {
	c.memory.Flush()
	if c.disk == nil {
		return nil
	}
	return c.disk.Clear()
}

// Len counts unexpired entries held in memory
func (c *ProofCache) Len() int {
	return c.memory.ItemCount()
}
