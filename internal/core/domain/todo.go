package domain

import (
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the allowed priorities in ascending order of urgency.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) String() string {
	return string(p)
}

func (p Priority) IsValid() bool {
	for _, allowed := range Priorities {
		if p == allowed {
			return true
		}
	}

	return false
}

// ParsePriority accepts only the exact lowercase names.
func ParsePriority(value string) (Priority, bool) {
	p := Priority(value)
	return p, p.IsValid()
}

type Todo struct {
	ID          string
	Title       string
	Description string
	Completed   bool
	Priority    Priority
	DueDate     *time.Time
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTodo applies creation defaults. Timestamps and ID are left to the repository.
func NewTodo(title, description string, priority Priority, dueDate *time.Time, tags []string) Todo {
	if priority == "" {
		priority = PriorityMedium
	}

	if tags == nil {
		tags = []string{}
	}

	return Todo{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Completed:   false,
		Priority:    priority,
		DueDate:     dueDate,
		Tags:        tags,
	}
}

func (t *Todo) IsOverdue(now time.Time) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.Before(now)
}

// Touch stamps UpdatedAt, keeping it no earlier than CreatedAt.
func (t *Todo) Touch(now time.Time) {
	if now.Before(t.CreatedAt) {
		now = t.CreatedAt
	}

	t.UpdatedAt = now
}

// TodoPatch carries the fields of a partial update. Nil means "leave unchanged".
// DueDateSet distinguishes an explicit null (clear the deadline) from absence.
type TodoPatch struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *Priority
	DueDate     *time.Time
	DueDateSet  bool
	Tags        []string
	TagsSet     bool
}

func (p TodoPatch) IsEmpty() bool {
	return p.Title == nil &&
		p.Description == nil &&
		p.Completed == nil &&
		p.Priority == nil &&
		!p.DueDateSet &&
		!p.TagsSet
}

// Apply copies the supplied fields onto todo and refreshes UpdatedAt.
func (p TodoPatch) Apply(todo *Todo, now time.Time) {
	if p.Title != nil {
		todo.Title = strings.TrimSpace(*p.Title)
	}

	if p.Description != nil {
		todo.Description = strings.TrimSpace(*p.Description)
	}

	if p.Completed != nil {
		todo.Completed = *p.Completed
	}

	if p.Priority != nil {
		todo.Priority = *p.Priority
	}

	if p.DueDateSet {
		todo.DueDate = p.DueDate
	}

	if p.TagsSet {
		todo.Tags = p.Tags
		if todo.Tags == nil {
			todo.Tags = []string{}
		}
	}

	todo.Touch(now)
}

type Statistics struct {
	Total      int64
	Completed  int64
	Pending    int64
	ByPriority map[Priority]int64
}

// NewStatistics returns zeroed statistics with every priority present.
func NewStatistics() Statistics {
	byPriority := make(map[Priority]int64, len(Priorities))

	for _, p := range Priorities {
		byPriority[p] = 0
	}

	return Statistics{ByPriority: byPriority}
}

// Add folds one priority bucket into the totals.
func (s *Statistics) Add(priority Priority, count, completed int64) {
	s.Total += count
	s.Completed += completed
	s.Pending = s.Total - s.Completed
	s.ByPriority[priority] += count
}
