package query

import (
	"strings"
	"time"

	"todoapi/internal/core/domain"
)

// Matches evaluates the filter in process, with the same semantics as Document.
func (f Filter) Matches(todo domain.Todo) bool {
	if f.Completed != nil && todo.Completed != *f.Completed {
		return false
	}

	if f.Priority != nil && todo.Priority != *f.Priority {
		return false
	}

	if f.Search != "" {
		needle := strings.ToLower(f.Search)

		if !strings.Contains(strings.ToLower(todo.Title), needle) &&
			!strings.Contains(strings.ToLower(todo.Description), needle) {
			return false
		}
	}

	return true
}

// Compare orders two todos by the sort field then by ID, honoring direction.
func (s Sort) Compare(a, b domain.Todo) int {
	c := compareField(s.Field, a, b)
	if c == 0 {
		c = strings.Compare(a.ID, b.ID)
	}

	if s.Descending {
		return -c
	}

	return c
}

func compareField(field string, a, b domain.Todo) int {
	switch field {
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "description":
		return strings.Compare(a.Description, b.Description)
	case "completed":
		return compareBool(a.Completed, b.Completed)
	case "priority":
		return strings.Compare(a.Priority.String(), b.Priority.String())
	case "dueDate":
		return compareOptionalTime(a.DueDate, b.DueDate)
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// Null deadlines sort before any date, as they do in MongoDB.
func compareOptionalTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}
