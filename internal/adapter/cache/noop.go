package cache

import (
	"context"

	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
)

var _ port.TodoCache = NoOpTodoCache{}

// NoOpTodoCache always misses.
type NoOpTodoCache struct{}

func (NoOpTodoCache) Generation(ctx context.Context) (uint64, error) {
	return 0, nil
}

func (NoOpTodoCache) GetPage(ctx context.Context, gen uint64, key string) (*port.TodoPage, bool, error) {
	return nil, false, nil
}

func (NoOpTodoCache) SetPage(ctx context.Context, gen uint64, key string, page port.TodoPage) error {
	return nil
}

func (NoOpTodoCache) GetStatistics(ctx context.Context, gen uint64) (*domain.Statistics, bool, error) {
	return nil, false, nil
}

func (NoOpTodoCache) SetStatistics(ctx context.Context, gen uint64, stats domain.Statistics) error {
	return nil
}

func (NoOpTodoCache) GetOverdue(ctx context.Context, gen uint64) ([]domain.Todo, bool, error) {
	return nil, false, nil
}

func (NoOpTodoCache) SetOverdue(ctx context.Context, gen uint64, todos []domain.Todo) error {
	return nil
}

func (NoOpTodoCache) InvalidateAll(ctx context.Context) error {
	return nil
}
