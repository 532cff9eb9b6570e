package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"todoapi/internal/adapter/cache"
	"todoapi/internal/adapter/database/memory"
	"todoapi/internal/core/domain"
	"todoapi/internal/core/model/request"
	"todoapi/internal/core/port"
	"todoapi/internal/core/query"
	"todoapi/internal/core/service"
	"todoapi/internal/core/telemetry"
	"todoapi/pkg/test/factory"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"
)

var now = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

type TodoServiceTestSuite struct {
	suite.Suite
	Repo    *memory.TodoRepository
	Cache   *cache.LocalTodoCache
	Service *service.TodoService
}

func (s *TodoServiceTestSuite) SetupTest() {
	s.Repo = memory.NewTodoRepositoryWithClock(func() time.Time { return now })
	s.Cache = cache.NewLocalTodoCache(time.Minute)
	s.Service = service.NewTodoService(s.Repo, s.Cache, telemetry.NewNoOpMetrics(), nil,
		service.WithClock(func() time.Time { return now }))
}

func TestTodoServiceTestSuite(t *testing.T) {
	RegisterTestingT(t)

	suite.Run(t, new(TodoServiceTestSuite))
}

func (s *TodoServiceTestSuite) defaultSpec() query.Spec {
	spec, errs := query.Build(request.ListParams{}, query.DefaultOptions())
	s.Require().Empty(errs)

	return spec
}

func (s *TodoServiceTestSuite) TestCreate_AppliesDefaults() {
	created, err := s.Service.Create(context.Background(), factory.NewTodo(map[string]any{"Title": "Buy milk"}))

	Expect(err).To(BeNil())
	Expect(created.ID).NotTo(BeEmpty())
	Expect(created.Completed).To(BeFalse())
	Expect(created.Priority).To(Equal(domain.PriorityMedium))
	Expect(created.CreatedAt).To(Equal(now))
}

func (s *TodoServiceTestSuite) TestList_ServesFromCacheUntilWrite() {
	ctx := context.Background()

	_, err := s.Service.Create(ctx, factory.NewTodo())
	Expect(err).To(BeNil())

	page, err := s.Service.List(ctx, s.defaultSpec())
	Expect(err).To(BeNil())
	Expect(page.Total).To(Equal(int64(1)))

	// Written behind the service's back, so the cached page is still served.
	_, _ = s.Repo.Insert(ctx, factory.NewTodo())

	page, _ = s.Service.List(ctx, s.defaultSpec())
	Expect(page.Total).To(Equal(int64(1)))

	_, err = s.Service.Create(ctx, factory.NewTodo())
	Expect(err).To(BeNil())

	page, _ = s.Service.List(ctx, s.defaultSpec())
	Expect(page.Total).To(Equal(int64(3)))
}

func (s *TodoServiceTestSuite) TestGetByID_Errors() {
	_, err := s.Service.GetByID(context.Background(), "nope")
	Expect(errors.Is(err, domain.ErrInvalidTodoID)).To(BeTrue())

	_, err = s.Service.GetByID(context.Background(), "507f1f77bcf86cd799439011")
	Expect(errors.Is(err, domain.ErrTodoNotFound)).To(BeTrue())
}

func (s *TodoServiceTestSuite) TestUpdate_OnlyTouchesSuppliedFields() {
	ctx := context.Background()

	created, _ := s.Service.Create(ctx, factory.NewTodo(map[string]any{
		"Title":       "Buy milk",
		"Description": "two liters",
		"Priority":    domain.PriorityHigh,
	}))

	completed := true
	updated, err := s.Service.Update(ctx, created.ID, domain.TodoPatch{Completed: &completed})

	Expect(err).To(BeNil())
	Expect(updated.Completed).To(BeTrue())
	Expect(updated.Title).To(Equal("Buy milk"))
	Expect(updated.Description).To(Equal("two liters"))
	Expect(updated.Priority).To(Equal(domain.PriorityHigh))
}

func (s *TodoServiceTestSuite) TestToggleTwiceRestoresState() {
	ctx := context.Background()

	created, _ := s.Service.Create(ctx, factory.NewTodo())

	first, err := s.Service.ToggleCompletion(ctx, created.ID)
	Expect(err).To(BeNil())
	Expect(first.Completed).To(BeTrue())

	second, err := s.Service.ToggleCompletion(ctx, created.ID)
	Expect(err).To(BeNil())
	Expect(second.Completed).To(BeFalse())
}

func (s *TodoServiceTestSuite) TestDelete_ThenNotFound() {
	ctx := context.Background()

	created, _ := s.Service.Create(ctx, factory.NewTodo())

	deleted, err := s.Service.Delete(ctx, created.ID)
	Expect(err).To(BeNil())
	Expect(deleted.ID).To(Equal(created.ID))

	_, err = s.Service.GetByID(ctx, created.ID)
	Expect(errors.Is(err, domain.ErrTodoNotFound)).To(BeTrue())
}

func (s *TodoServiceTestSuite) TestStatistics_InvalidatedByBulkDelete() {
	ctx := context.Background()

	_, _ = s.Service.Create(ctx, factory.NewTodo(map[string]any{"Completed": true, "Priority": domain.PriorityLow}))
	_, _ = s.Service.Create(ctx, factory.NewTodo(map[string]any{"Priority": domain.PriorityHigh}))

	stats, err := s.Service.Statistics(ctx)
	Expect(err).To(BeNil())
	Expect(stats.Total).To(Equal(int64(2)))
	Expect(stats.Completed).To(Equal(int64(1)))
	Expect(stats.ByPriority).To(HaveKeyWithValue(domain.PriorityMedium, int64(0)))

	count, err := s.Service.DeleteCompleted(ctx)
	Expect(err).To(BeNil())
	Expect(count).To(Equal(int64(1)))

	stats, _ = s.Service.Statistics(ctx)
	Expect(stats.Total).To(Equal(int64(1)))
	Expect(stats.Completed).To(Equal(int64(0)))
	Expect(stats.Pending).To(Equal(int64(1)))
}

func (s *TodoServiceTestSuite) TestOverdue_UsesServiceClock() {
	ctx := context.Background()

	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	_, _ = s.Service.Create(ctx, factory.NewTodo(map[string]any{"Title": "late", "DueDate": &yesterday}))
	_, _ = s.Service.Create(ctx, factory.NewTodo(map[string]any{"Title": "soon", "DueDate": &tomorrow}))
	_, _ = s.Service.Create(ctx, factory.NewTodo(map[string]any{"Title": "done", "DueDate": &yesterday, "Completed": true}))

	todos, err := s.Service.Overdue(ctx)

	Expect(err).To(BeNil())
	Expect(todos).To(HaveLen(1))
	Expect(todos[0].Title).To(Equal("late"))
}

type failingRepository struct {
	port.TodoRepository
}

func (failingRepository) Insert(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	return domain.Todo{}, errors.New("connection reset")
}

func (s *TodoServiceTestSuite) TestCreate_PropagatesRepositoryFailures() {
	svc := service.NewTodoService(failingRepository{}, cache.NoOpTodoCache{}, telemetry.NewNoOpMetrics(), nil)

	_, err := svc.Create(context.Background(), factory.NewTodo())

	Expect(err).To(MatchError("connection reset"))
}

// pausingRepository holds the first FindMany and Statistics call after the
// store has been read, until release is closed.
type pausingRepository struct {
	*memory.TodoRepository

	loaded  chan struct{}
	release chan struct{}
	paused  atomic.Bool
}

func newPausingRepository(repo *memory.TodoRepository) *pausingRepository {
	return &pausingRepository{
		TodoRepository: repo,
		loaded:         make(chan struct{}),
		release:        make(chan struct{}),
	}
}

func (r *pausingRepository) pause() {
	if r.paused.CompareAndSwap(false, true) {
		close(r.loaded)
		<-r.release
	}
}

func (r *pausingRepository) FindMany(ctx context.Context, spec query.Spec) ([]domain.Todo, int64, error) {
	todos, total, err := r.TodoRepository.FindMany(ctx, spec)
	r.pause()
	return todos, total, err
}

func (r *pausingRepository) Statistics(ctx context.Context) (domain.Statistics, error) {
	stats, err := r.TodoRepository.Statistics(ctx)
	r.pause()
	return stats, err
}

func (s *TodoServiceTestSuite) TestList_ReadOverlappingWriteIsNotCached() {
	ctx := context.Background()
	repo := newPausingRepository(s.Repo)
	svc := service.NewTodoService(repo, s.Cache, telemetry.NewNoOpMetrics(), nil)

	done := make(chan port.TodoPage)
	go func() {
		page, _ := svc.List(ctx, s.defaultSpec())
		done <- page
	}()

	<-repo.loaded

	_, err := svc.Create(ctx, factory.NewTodo())
	Expect(err).To(BeNil())

	close(repo.release)
	Expect((<-done).Total).To(Equal(int64(0)))

	page, err := svc.List(ctx, s.defaultSpec())
	Expect(err).To(BeNil())
	Expect(page.Total).To(Equal(int64(1)))
	Expect(page.Todos).To(HaveLen(1))
}

func (s *TodoServiceTestSuite) TestStatistics_ReadOverlappingWriteIsNotCached() {
	ctx := context.Background()
	repo := newPausingRepository(s.Repo)
	svc := service.NewTodoService(repo, s.Cache, telemetry.NewNoOpMetrics(), nil)

	done := make(chan domain.Statistics)
	go func() {
		stats, _ := svc.Statistics(ctx)
		done <- stats
	}()

	<-repo.loaded

	_, err := svc.Create(ctx, factory.NewTodo(map[string]any{"Priority": domain.PriorityHigh}))
	Expect(err).To(BeNil())

	close(repo.release)
	Expect((<-done).Total).To(Equal(int64(0)))

	stats, err := svc.Statistics(ctx)
	Expect(err).To(BeNil())
	Expect(stats.Total).To(Equal(int64(1)))
	Expect(stats.ByPriority[domain.PriorityHigh]).To(Equal(int64(1)))
}
