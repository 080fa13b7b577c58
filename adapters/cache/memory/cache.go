package memory

import (
	"context"
	"sync"

	"dropweight/ports"
)

// Cache is an in-process weight cache. Entries live for the lifetime of the
// process; persistence across restarts is the sqldb adapter's job.
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewCache creates an empty in-memory weight cache
func NewCache() *Cache {
	return &Cache{entries: make(map[string][]byte)}
}

// Get returns the stored payload and whether the key was present
func (c *Cache) Get(ctx context.Context, key ports.WeightCacheKey) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	payload, ok := c.entries[key.String()]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, true, nil
}

// Put stores a payload, replacing any existing entry for the key
func (c *Cache) Put(ctx context.Context, key ports.WeightCacheKey, payload []byte) error {
	stored := make([]byte, len(payload))
	copy(stored, payload)

	c.mu.Lock()
	c.entries[key.String()] = stored
	c.mu.Unlock()
	return nil
}

// Len returns the number of cached results
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
