package cache

import (
	"context"
	"sync"
	"time"

	"laundryops/internal/domain"
)

// MemoryEstimateCache is a process-local EstimateCache, used in tests and
// when Redis is not configured for a single-instance deployment.
type MemoryEstimateCache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     domain.DeliveryEstimate
	expiresAt time.Time
}

func NewMemoryEstimateCache() *MemoryEstimateCache {
	return &MemoryEstimateCache{now: time.Now, entries: make(map[string]memoryEntry)}
}

func (c *MemoryEstimateCache) Get(_ context.Context, key string) (*domain.DeliveryEstimate, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	value := entry.value
	return &value, true, nil
}

func (c *MemoryEstimateCache) Set(_ context.Context, key string, value *domain.DeliveryEstimate, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{value: *value, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *MemoryEstimateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
