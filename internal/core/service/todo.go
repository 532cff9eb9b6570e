package service

import (
	"context"
	"crypto/md5"
	"fmt"
	"time"

	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
	"todoapi/internal/core/query"
	. "todoapi/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var _ port.TodoService = (*TodoService)(nil)

type TodoService struct {
	repo    port.TodoRepository
	cache   port.TodoCache
	metrics port.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

type Option func(*TodoService)

// WithClock replaces time.Now, mainly for overdue tests.
func WithClock(now func() time.Time) Option {
	return func(s *TodoService) {
		s.now = now
	}
}

func NewTodoService(repo port.TodoRepository, cache port.TodoCache, metrics port.Metrics, logger *zap.Logger, opts ...Option) *TodoService {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &TodoService{
		repo:    repo,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *TodoService) Create(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	var created domain.Todo

	err := ServiceSpanWrapper(ctx, "todo", "Create", func(ctx context.Context) error {
		var err error

		created, err = s.repo.Insert(ctx, todo)
		if err != nil {
			s.logger.Error("Repository insert failed", zap.Error(err), zap.String("title", todo.Title))
			return err
		}

		s.afterWrite(ctx, "create")
		return nil
	})

	return created, err
}

func (s *TodoService) List(ctx context.Context, spec query.Spec) (port.TodoPage, error) {
	ctx, span := CreateChildSpan(ctx, "service.todo.List", []attribute.KeyValue{
		attribute.Int64("todo.skip", spec.Skip),
		attribute.Int64("todo.limit", spec.Limit),
		attribute.String("todo.sort", spec.Sort.Field),
	})
	defer span.End()

	s.metrics.RecordTodoOperation(ctx, "list")

	key := pageKey(spec)
	gen, cacheable := s.generation(ctx)

	if cacheable {
		if page, ok := s.cachedPage(ctx, gen, key); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return page, nil
		}
	}

	todos, total, err := s.repo.FindMany(ctx, spec)
	if err != nil {
		AddSpanError(span, err)
		return port.TodoPage{}, err
	}

	page := port.TodoPage{Todos: todos, Total: total}

	if cacheable {
		if err := s.cache.SetPage(ctx, gen, key, page); err != nil {
			s.logger.Warn("Failed to cache todo page", zap.Error(err), zap.String("key", key))
		}
	}

	span.SetAttributes(
		attribute.Int("todo.count", len(todos)),
		attribute.Int64("todo.total", total),
	)

	return page, nil
}

func (s *TodoService) GetByID(ctx context.Context, id string) (domain.Todo, error) {
	var todo domain.Todo

	err := ServiceSpanWrapper(ctx, "todo", "GetByID", func(ctx context.Context) error {
		var err error
		todo, err = s.repo.FindOne(ctx, id)
		return err
	})

	s.metrics.RecordTodoOperation(ctx, "get")

	return todo, err
}

func (s *TodoService) Update(ctx context.Context, id string, patch domain.TodoPatch) (domain.Todo, error) {
	var updated domain.Todo

	err := ServiceSpanWrapper(ctx, "todo", "Update", func(ctx context.Context) error {
		var err error

		updated, err = s.repo.Update(ctx, id, patch)
		if err != nil {
			return err
		}

		s.afterWrite(ctx, "update")
		return nil
	})

	return updated, err
}

func (s *TodoService) ToggleCompletion(ctx context.Context, id string) (domain.Todo, error) {
	var toggled domain.Todo

	err := ServiceSpanWrapper(ctx, "todo", "ToggleCompletion", func(ctx context.Context) error {
		var err error

		toggled, err = s.repo.ToggleCompletion(ctx, id)
		if err != nil {
			return err
		}

		s.afterWrite(ctx, "toggle")
		return nil
	})

	return toggled, err
}

func (s *TodoService) Delete(ctx context.Context, id string) (domain.Todo, error) {
	var deleted domain.Todo

	err := ServiceSpanWrapper(ctx, "todo", "Delete", func(ctx context.Context) error {
		var err error

		deleted, err = s.repo.Delete(ctx, id)
		if err != nil {
			return err
		}

		s.afterWrite(ctx, "delete")
		return nil
	})

	return deleted, err
}

func (s *TodoService) DeleteCompleted(ctx context.Context) (int64, error) {
	var count int64

	err := ServiceSpanWrapper(ctx, "todo", "DeleteCompleted", func(ctx context.Context) error {
		var err error

		count, err = s.repo.DeleteCompleted(ctx)
		if err != nil {
			return err
		}

		s.logger.Info("Deleted completed todos", zap.Int64("count", count))
		s.afterWrite(ctx, "delete_completed")
		return nil
	})

	return count, err
}

func (s *TodoService) Statistics(ctx context.Context) (domain.Statistics, error) {
	s.metrics.RecordTodoOperation(ctx, "stats")

	gen, cacheable := s.generation(ctx)

	if cacheable {
		stats, found, err := s.cache.GetStatistics(ctx, gen)
		if err != nil {
			s.logger.Warn("Failed to read cached statistics", zap.Error(err))
		}

		if found {
			s.metrics.RecordCacheHit(ctx, "stats")
			return *stats, nil
		}
	}

	s.metrics.RecordCacheMiss(ctx, "stats")

	var fresh domain.Statistics

	err := ServiceSpanWrapper(ctx, "todo", "Statistics", func(ctx context.Context) error {
		var err error
		fresh, err = s.repo.Statistics(ctx)
		return err
	})

	if err != nil {
		return domain.Statistics{}, err
	}

	if cacheable {
		if err := s.cache.SetStatistics(ctx, gen, fresh); err != nil {
			s.logger.Warn("Failed to cache statistics", zap.Error(err))
		}
	}

	return fresh, nil
}

// Overdue results depend on the clock, so they are cached only as long as the
// cache TTL allows and dropped on every write.
func (s *TodoService) Overdue(ctx context.Context) ([]domain.Todo, error) {
	s.metrics.RecordTodoOperation(ctx, "overdue")

	gen, cacheable := s.generation(ctx)

	if cacheable {
		todos, found, err := s.cache.GetOverdue(ctx, gen)
		if err != nil {
			s.logger.Warn("Failed to read cached overdue todos", zap.Error(err))
		}

		if found {
			s.metrics.RecordCacheHit(ctx, "overdue")
			return todos, nil
		}
	}

	s.metrics.RecordCacheMiss(ctx, "overdue")

	var todos []domain.Todo

	err := ServiceSpanWrapper(ctx, "todo", "Overdue", func(ctx context.Context) error {
		var err error
		todos, err = s.repo.OverdueIncomplete(ctx, s.now())
		return err
	})

	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.SetOverdue(ctx, gen, todos); err != nil {
			s.logger.Warn("Failed to cache overdue todos", zap.Error(err))
		}
	}

	return todos, nil
}

// generation is captured before any repository read. When it cannot be
// read the call bypasses the cache entirely.
func (s *TodoService) generation(ctx context.Context) (uint64, bool) {
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.logger.Warn("Failed to read cache generation", zap.Error(err))
		return 0, false
	}

	return gen, true
}

func (s *TodoService) cachedPage(ctx context.Context, gen uint64, key string) (port.TodoPage, bool) {
	page, found, err := s.cache.GetPage(ctx, gen, key)
	if err != nil {
		s.logger.Warn("Failed to read cached todo page", zap.Error(err), zap.String("key", key))
	}

	if !found {
		s.metrics.RecordCacheMiss(ctx, "page")
		return port.TodoPage{}, false
	}

	s.metrics.RecordCacheHit(ctx, "page")

	return *page, true
}

// afterWrite drops every cached read. A failed invalidation is logged, not
// returned: the write itself already succeeded.
func (s *TodoService) afterWrite(ctx context.Context, operation string) {
	s.metrics.RecordTodoOperation(ctx, operation)

	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Error("Failed to invalidate todo cache", zap.Error(err), zap.String("operation", operation))
	}
}

func pageKey(spec query.Spec) string {
	f := spec.Filter

	completed := "-"
	if f.Completed != nil {
		completed = fmt.Sprint(*f.Completed)
	}

	priority := "-"
	if f.Priority != nil {
		priority = f.Priority.String()
	}

	raw := fmt.Sprintf("%s|%s|%s|%s|%t|%d|%d",
		completed, priority, f.Search, spec.Sort.Field, spec.Sort.Descending, spec.Skip, spec.Limit)

	return fmt.Sprintf("%x", md5.Sum([]byte(raw)))
}
