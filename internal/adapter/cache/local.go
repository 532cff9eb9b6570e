package cache

import (
	"context"
	"sync"
	"time"

	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"

	gocache "github.com/patrickmn/go-cache"
)

var _ port.TodoCache = (*LocalTodoCache)(nil)

// LocalTodoCache keeps read results in process memory. It suits a single
// replica; with several replicas each one only sees its own invalidations.
type LocalTodoCache struct {
	store *gocache.Cache

	// mu orders stores against InvalidateAll so a stale generation never
	// lands after the flush.
	mu  sync.RWMutex
	gen uint64
}

func NewLocalTodoCache(ttl time.Duration) *LocalTodoCache {
	return &LocalTodoCache{store: gocache.New(ttl, 2*ttl)}
}

func (c *LocalTodoCache) Generation(ctx context.Context) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.gen, nil
}

func (c *LocalTodoCache) GetPage(ctx context.Context, gen uint64, key string) (*port.TodoPage, bool, error) {
	v, found := c.get(gen, keyPagePrefix+key)
	if !found {
		return nil, false, nil
	}

	page := v.(port.TodoPage)

	return &page, true, nil
}

func (c *LocalTodoCache) SetPage(ctx context.Context, gen uint64, key string, page port.TodoPage) error {
	c.set(gen, keyPagePrefix+key, page)
	return nil
}

func (c *LocalTodoCache) GetStatistics(ctx context.Context, gen uint64) (*domain.Statistics, bool, error) {
	v, found := c.get(gen, keyStatistics)
	if !found {
		return nil, false, nil
	}

	stats := v.(domain.Statistics)

	return &stats, true, nil
}

func (c *LocalTodoCache) SetStatistics(ctx context.Context, gen uint64, stats domain.Statistics) error {
	c.set(gen, keyStatistics, stats)
	return nil
}

func (c *LocalTodoCache) GetOverdue(ctx context.Context, gen uint64) ([]domain.Todo, bool, error) {
	v, found := c.get(gen, keyOverdue)
	if !found {
		return nil, false, nil
	}

	return v.([]domain.Todo), true, nil
}

func (c *LocalTodoCache) SetOverdue(ctx context.Context, gen uint64, todos []domain.Todo) error {
	c.set(gen, keyOverdue, todos)
	return nil
}

func (c *LocalTodoCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.store.Flush()

	return nil
}

func (c *LocalTodoCache) get(gen uint64, key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if gen != c.gen {
		return nil, false
	}

	return c.store.Get(key)
}

// set drops values computed under an older generation.
func (c *LocalTodoCache) set(gen uint64, key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}

	c.store.SetDefault(key, value)
}
