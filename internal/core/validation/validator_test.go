package validation

import (
	"strings"
	"testing"

	"todoapi/internal/core/model/request"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T {
	return &v
}

func TestValidateTodo_Create(t *testing.T) {
	cases := []struct {
		name     string
		req      request.TodoRequest
		expected []string
	}{
		{
			name:     "missing title",
			req:      request.TodoRequest{},
			expected: []string{"Title is required"},
		},
		{
			name:     "blank title",
			req:      request.TodoRequest{Title: ptr("    ")},
			expected: []string{"Title is required"},
		},
		{
			name:     "short title after trim",
			req:      request.TodoRequest{Title: ptr("  ab  ")},
			expected: []string{"Title must be at least 3 characters"},
		},
		{
			name:     "long title",
			req:      request.TodoRequest{Title: ptr(strings.Repeat("x", TitleMaxLength+1))},
			expected: []string{"Title cannot exceed 100 characters"},
		},
		{
			name: "long description and bad priority together",
			req: request.TodoRequest{
				Title:       ptr("Buy milk"),
				Description: ptr(strings.Repeat("d", DescriptionMaxLength+1)),
				Priority:    ptr("urgent"),
			},
			expected: []string{
				"Description cannot exceed 500 characters",
				"Priority must be one of: low, medium, high",
			},
		},
		{
			name:     "valid minimal payload",
			req:      request.TodoRequest{Title: ptr("Buy milk")},
			expected: []string{},
		},
		{
			name:     "title exactly at bounds",
			req:      request.TodoRequest{Title: ptr("abc"), Priority: ptr("high")},
			expected: []string{},
		},
		{
			name:     "priority in the wrong case",
			req:      request.TodoRequest{Title: ptr("Buy milk"), Priority: ptr("HIGH")},
			expected: []string{"Priority must be one of: low, medium, high"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req

			assert.Equal(t, tc.expected, ValidateTodo(&req, OnCreate))
		})
	}
}

func TestValidateTodo_ReportsEveryViolation(t *testing.T) {
	RegisterTestingT(t)

	req := request.TodoRequest{
		Title:       ptr("ab"),
		Description: ptr(strings.Repeat("d", 600)),
		Priority:    ptr("none"),
	}

	errs := ValidateTodo(&req, OnCreate)

	Expect(errs).To(HaveLen(3))
	Expect(errs[0]).To(Equal("Title must be at least 3 characters"))
}

func TestValidateTodo_Update(t *testing.T) {
	t.Run("should accept an empty patch", func(t *testing.T) {
		req := request.TodoRequest{}

		assert.Empty(t, ValidateTodo(&req, OnUpdate))
	})

	t.Run("should reject a blank title when present", func(t *testing.T) {
		req := request.TodoRequest{Title: ptr("  ")}

		assert.Equal(t, []string{"Title must be at least 3 characters"}, ValidateTodo(&req, OnUpdate))
	})

	t.Run("should reject an empty priority when present", func(t *testing.T) {
		req := request.TodoRequest{Priority: ptr("")}

		assert.Equal(t, []string{"Priority must be one of: low, medium, high"}, ValidateTodo(&req, OnUpdate))
	})

	t.Run("should validate only supplied fields", func(t *testing.T) {
		req := request.TodoRequest{Description: ptr("fine")}

		assert.Empty(t, ValidateTodo(&req, OnUpdate))
	})
}

func TestValidateTodo_Tags(t *testing.T) {
	t.Run("should limit tag count", func(t *testing.T) {
		tags := make([]string, 0, MaxTags+1)
		for i := 0; i <= MaxTags; i++ {
			tags = append(tags, strings.Repeat("t", i+1))
		}

		req := request.TodoRequest{Title: ptr("Tagged"), Tags: &tags}

		assert.Equal(t, []string{"Tags cannot contain more than 20 items"}, ValidateTodo(&req, OnCreate))
	})

	t.Run("should limit tag length", func(t *testing.T) {
		tags := []string{"ok", strings.Repeat("t", TagMaxLength+1)}
		req := request.TodoRequest{Title: ptr("Tagged"), Tags: &tags}

		assert.Equal(t, []string{"Each tag cannot exceed 30 characters"}, ValidateTodo(&req, OnCreate))
	})

	t.Run("should normalize before counting", func(t *testing.T) {
		tags := []string{" home ", "home", "", "work"}
		req := request.TodoRequest{Title: ptr("Tagged"), Tags: &tags}

		assert.Empty(t, ValidateTodo(&req, OnCreate))
		assert.Equal(t, []string{"home", "work"}, *req.Tags)
	})
}
