// Package cache stores BKT parameters tuned for a condition set so the
// personalization service is asked at most once per key and TTL.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/example/masterybot/pkg/models"
)

// ParamCache maps a condition key to tuned parameters.
type ParamCache interface {
	Get(ctx context.Context, key string) (models.BKTParams, bool, error)
	Set(ctx context.Context, key string, p models.BKTParams) error
}

type memoryEntry struct {
	params  models.BKTParams
	expires time.Time
}

// MemoryParamCache is an in-process ParamCache.
type MemoryParamCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryParamCache(ttl time.Duration) *MemoryParamCache {
	return &MemoryParamCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryParamCache) Get(_ context.Context, key string) (models.BKTParams, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return models.BKTParams{}, false, nil
	}
	if c.ttl > 0 && !c.now().Before(e.expires) {
		delete(c.entries, key)
		return models.BKTParams{}, false, nil
	}
	return e.params, true, nil
}

func (c *MemoryParamCache) Set(_ context.Context, key string, p models.BKTParams) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{params: p, expires: c.now().Add(c.ttl)}
	return nil
}
