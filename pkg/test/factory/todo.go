package factory

import (
	"fmt"
	"time"

	"todoapi/internal/core/domain"

	fab "github.com/Goldziher/fabricator"
	"github.com/google/uuid"
)

// NewTodo builds a todo with fake data. Fields not present in customData are
// reset to values the validation rules accept, and ID and timestamps are left
// for the repository to assign.
func NewTodo(customData ...map[string]any) domain.Todo {
	todo := fab.New(domain.Todo{}).Build(customData...)

	given := make(map[string]bool)
	for _, data := range customData {
		for key := range data {
			given[key] = true
		}
	}

	defaults := map[string]func(){
		"ID":          func() { todo.ID = "" },
		"Title":       func() { todo.Title = fmt.Sprintf("Todo %s", uuid.NewString()[:8]) },
		"Description": func() { todo.Description = "" },
		"Completed":   func() { todo.Completed = false },
		"Priority":    func() { todo.Priority = domain.PriorityMedium },
		"DueDate":     func() { todo.DueDate = nil },
		"Tags":        func() { todo.Tags = []string{} },
		"CreatedAt":   func() { todo.CreatedAt = time.Time{} },
		"UpdatedAt":   func() { todo.UpdatedAt = time.Time{} },
	}

	for field, reset := range defaults {
		if !given[field] {
			reset()
		}
	}

	return todo
}
