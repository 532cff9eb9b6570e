package port

import (
	"context"
	"time"

	"todoapi/internal/core/domain"
	"todoapi/internal/core/query"
)

// TodoRepository is the storage boundary. Implementations return
// domain.ErrTodoNotFound and domain.ErrInvalidTodoID for the matching cases
// and wrap everything else as infrastructure failures.
type TodoRepository interface {
	Insert(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	FindMany(ctx context.Context, spec query.Spec) ([]domain.Todo, int64, error)
	FindOne(ctx context.Context, id string) (domain.Todo, error)
	Update(ctx context.Context, id string, patch domain.TodoPatch) (domain.Todo, error)
	ToggleCompletion(ctx context.Context, id string) (domain.Todo, error)
	Delete(ctx context.Context, id string) (domain.Todo, error)
	DeleteCompleted(ctx context.Context) (int64, error)
	Statistics(ctx context.Context) (domain.Statistics, error)
	OverdueIncomplete(ctx context.Context, now time.Time) ([]domain.Todo, error)
	EnsureIndexes(ctx context.Context) error
	Ping(ctx context.Context) error
}

type TodoPage struct {
	Todos []domain.Todo
	Total int64
}

type TodoService interface {
	Create(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	List(ctx context.Context, spec query.Spec) (TodoPage, error)
	GetByID(ctx context.Context, id string) (domain.Todo, error)
	Update(ctx context.Context, id string, patch domain.TodoPatch) (domain.Todo, error)
	ToggleCompletion(ctx context.Context, id string) (domain.Todo, error)
	Delete(ctx context.Context, id string) (domain.Todo, error)
	DeleteCompleted(ctx context.Context) (int64, error)
	Statistics(ctx context.Context) (domain.Statistics, error)
	Overdue(ctx context.Context) ([]domain.Todo, error)
}

// TodoCache stores derived read results. A miss is (nil, false, nil).
//
// Entries belong to a generation. Readers capture Generation before loading
// from the repository and pass it to Get and Set; InvalidateAll starts a new
// generation, so a result computed before a write is never served after it.
type TodoCache interface {
	Generation(ctx context.Context) (uint64, error)
	GetPage(ctx context.Context, gen uint64, key string) (*TodoPage, bool, error)
	SetPage(ctx context.Context, gen uint64, key string, page TodoPage) error
	GetStatistics(ctx context.Context, gen uint64) (*domain.Statistics, bool, error)
	SetStatistics(ctx context.Context, gen uint64, stats domain.Statistics) error
	GetOverdue(ctx context.Context, gen uint64) ([]domain.Todo, bool, error)
	SetOverdue(ctx context.Context, gen uint64, todos []domain.Todo) error
	InvalidateAll(ctx context.Context) error
}
