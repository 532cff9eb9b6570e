package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
	"todoapi/internal/core/query"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ port.TodoRepository = (*TodoRepository)(nil)

// TodoRepository keeps todos in process. It issues ObjectID-shaped ids so
// id validation behaves exactly like the MongoDB repository.
type TodoRepository struct {
	mu    sync.RWMutex
	todos map[string]domain.Todo
	now   func() time.Time
}

func NewTodoRepository() *TodoRepository {
	return &TodoRepository{
		todos: make(map[string]domain.Todo),
		now:   time.Now,
	}
}

// NewTodoRepositoryWithClock is NewTodoRepository with a controllable clock.
func NewTodoRepositoryWithClock(now func() time.Time) *TodoRepository {
	repo := NewTodoRepository()
	repo.now = now
	return repo
}

func (r *TodoRepository) Insert(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()

	todo.ID = primitive.NewObjectIDFromTimestamp(now).Hex()
	todo.CreatedAt = now
	todo.UpdatedAt = now

	if todo.Tags == nil {
		todo.Tags = []string{}
	}

	r.todos[todo.ID] = clone(todo)

	return clone(todo), nil
}

func (r *TodoRepository) FindMany(ctx context.Context, spec query.Spec) ([]domain.Todo, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]domain.Todo, 0)

	for _, todo := range r.todos {
		if spec.Filter.Matches(todo) {
			matched = append(matched, clone(todo))
		}
	}

	slices.SortFunc(matched, spec.Sort.Compare)

	total := int64(len(matched))

	if spec.Skip < 0 {
		spec.Skip = 0
	}

	if spec.Skip >= total {
		return []domain.Todo{}, total, nil
	}

	end := total
	if spec.Limit > 0 && spec.Limit < total-spec.Skip {
		end = spec.Skip + spec.Limit
	}

	return matched[spec.Skip:end], total, nil
}

func (r *TodoRepository) FindOne(ctx context.Context, id string) (domain.Todo, error) {
	if err := validateID(id); err != nil {
		return domain.Todo{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	todo, ok := r.todos[id]
	if !ok {
		return domain.Todo{}, domain.ErrTodoNotFound
	}

	return clone(todo), nil
}

func (r *TodoRepository) Update(ctx context.Context, id string, patch domain.TodoPatch) (domain.Todo, error) {
	if err := validateID(id); err != nil {
		return domain.Todo{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	todo, ok := r.todos[id]
	if !ok {
		return domain.Todo{}, domain.ErrTodoNotFound
	}

	patch.Apply(&todo, r.now().UTC())
	r.todos[id] = clone(todo)

	return clone(todo), nil
}

func (r *TodoRepository) ToggleCompletion(ctx context.Context, id string) (domain.Todo, error) {
	if err := validateID(id); err != nil {
		return domain.Todo{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	todo, ok := r.todos[id]
	if !ok {
		return domain.Todo{}, domain.ErrTodoNotFound
	}

	todo.Completed = !todo.Completed
	todo.Touch(r.now().UTC())
	r.todos[id] = todo

	return clone(todo), nil
}

func (r *TodoRepository) Delete(ctx context.Context, id string) (domain.Todo, error) {
	if err := validateID(id); err != nil {
		return domain.Todo{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	todo, ok := r.todos[id]
	if !ok {
		return domain.Todo{}, domain.ErrTodoNotFound
	}

	delete(r.todos, id)

	return todo, nil
}

func (r *TodoRepository) DeleteCompleted(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64

	for id, todo := range r.todos {
		if todo.Completed {
			delete(r.todos, id)
			count++
		}
	}

	return count, nil
}

func (r *TodoRepository) Statistics(ctx context.Context) (domain.Statistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := domain.NewStatistics()

	for _, todo := range r.todos {
		var completed int64
		if todo.Completed {
			completed = 1
		}

		stats.Add(todo.Priority, 1, completed)
	}

	return stats, nil
}

func (r *TodoRepository) OverdueIncomplete(ctx context.Context, now time.Time) ([]domain.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	overdue := make([]domain.Todo, 0)

	for _, todo := range r.todos {
		if todo.IsOverdue(now) {
			overdue = append(overdue, clone(todo))
		}
	}

	slices.SortFunc(overdue, query.Sort{Field: "dueDate"}.Compare)

	return overdue, nil
}

func (r *TodoRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

func (r *TodoRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func validateID(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return domain.ErrInvalidTodoID
	}

	return nil
}

// clone detaches slices and pointers so callers never alias stored records.
func clone(todo domain.Todo) domain.Todo {
	if todo.Tags != nil {
		todo.Tags = slices.Clone(todo.Tags)
	}

	if todo.DueDate != nil {
		due := *todo.DueDate
		todo.DueDate = &due
	}

	return todo
}
