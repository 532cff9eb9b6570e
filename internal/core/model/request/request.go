package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"todoapi/internal/core/domain"
)

// NullableTime tells an absent field apart from an explicit null.
// Accepts RFC3339 (with or without fractional seconds) or a bare date.
type NullableTime struct {
	Set  bool
	Time *time.Time
}

var dueDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (n *NullableTime) UnmarshalJSON(data []byte) error {
	n.Set = true

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Time = nil
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("dueDate must be a date string or null")
	}

	raw = strings.TrimSpace(raw)

	if raw == "" {
		n.Time = nil
		return nil
	}

	for _, layout := range dueDateLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			parsed = parsed.UTC()
			n.Time = &parsed
			return nil
		}
	}

	return fmt.Errorf("dueDate must be an RFC3339 timestamp or a YYYY-MM-DD date")
}

// TodoRequest is the JSON body of create and update calls. Every field is
// optional at this level; Validation decides what a given operation requires.
type TodoRequest struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Completed   *bool        `json:"completed"`
	Priority    *string      `json:"priority"`
	DueDate     NullableTime `json:"dueDate"`
	Tags        *[]string    `json:"tags"`
}

// Normalize trims title and description and cleans the tag list in place.
// Priority is left as sent; it must match an allowed value exactly.
func (r *TodoRequest) Normalize() {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		r.Title = &title
	}

	if r.Description != nil {
		description := strings.TrimSpace(*r.Description)
		r.Description = &description
	}

	if r.Tags != nil {
		tags := NormalizeTags(*r.Tags)
		r.Tags = &tags
	}
}

// NormalizeTags trims, drops blanks and removes duplicates keeping the first occurrence.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))

	for _, tag := range tags {
		tag = strings.TrimSpace(tag)

		if tag == "" {
			continue
		}

		if _, dup := seen[tag]; dup {
			continue
		}

		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	return out
}

func (r TodoRequest) ToTodo() domain.Todo {
	var title, description string
	var priority domain.Priority
	var tags []string

	if r.Title != nil {
		title = *r.Title
	}

	if r.Description != nil {
		description = *r.Description
	}

	if r.Priority != nil {
		priority = domain.Priority(*r.Priority)
	}

	if r.Tags != nil {
		tags = *r.Tags
	}

	todo := domain.NewTodo(title, description, priority, r.DueDate.Time, tags)

	if r.Completed != nil {
		todo.Completed = *r.Completed
	}

	return todo
}

func (r TodoRequest) ToPatch() domain.TodoPatch {
	patch := domain.TodoPatch{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		DueDate:     r.DueDate.Time,
		DueDateSet:  r.DueDate.Set,
	}

	if r.Priority != nil {
		priority := domain.Priority(*r.Priority)
		patch.Priority = &priority
	}

	if r.Tags != nil {
		patch.Tags = *r.Tags
		patch.TagsSet = true
	}

	return patch
}

// ListParams mirrors the query string of GET /todos. Pointer fields are nil when absent.
type ListParams struct {
	Completed *string
	Priority  *string
	Search    *string
	SortBy    string
	Order     string
	Page      string
	Limit     string
}
