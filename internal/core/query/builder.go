package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"todoapi/internal/core/domain"
	"todoapi/internal/core/model/request"
)

const (
	DefaultSortBy = "createdAt"
	DefaultPage   = 1
	DefaultLimit  = 10
	MaxLimit      = 100
)

// SortableFields is the allow-list of sortBy values, each mapped to its document key.
var SortableFields = []string{
	"title",
	"description",
	"completed",
	"priority",
	"dueDate",
	"createdAt",
	"updatedAt",
}

type Filter struct {
	Completed *bool
	Priority  *domain.Priority
	Search    string
}

type Sort struct {
	Field      string
	Descending bool
}

type Spec struct {
	Filter Filter
	Sort   Sort
	Page   int
	Skip   int64
	Limit  int64
}

type Options struct {
	DefaultLimit int
	MaxLimit     int
}

func DefaultOptions() Options {
	return Options{DefaultLimit: DefaultLimit, MaxLimit: MaxLimit}
}

// TotalPages is ceil(total/limit).
func (s Spec) TotalPages(total int64) int {
	if s.Limit <= 0 || total <= 0 {
		return 0
	}

	return int((total + s.Limit - 1) / s.Limit)
}

// Build turns list parameters into a Spec. Every rejected parameter is
// reported; the Spec is only meaningful when no errors are returned.
func Build(params request.ListParams, opts Options) (Spec, []string) {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultLimit
	}

	if opts.MaxLimit <= 0 {
		opts.MaxLimit = MaxLimit
	}

	errs := []string{}

	spec := Spec{
		Sort:  Sort{Field: DefaultSortBy, Descending: true},
		Page:  DefaultPage,
		Limit: int64(opts.DefaultLimit),
	}

	if params.Completed != nil {
		switch *params.Completed {
		case "true":
			completed := true
			spec.Filter.Completed = &completed
		case "false":
			completed := false
			spec.Filter.Completed = &completed
		default:
			errs = append(errs, "completed must be either true or false")
		}
	}

	if params.Priority != nil {
		if priority, ok := domain.ParsePriority(*params.Priority); ok {
			spec.Filter.Priority = &priority
		} else {
			errs = append(errs, "priority must be one of: low, medium, high")
		}
	}

	if params.Search != nil {
		spec.Filter.Search = strings.TrimSpace(*params.Search)
	}

	if params.SortBy != "" {
		if isSortable(params.SortBy) {
			spec.Sort.Field = params.SortBy
		} else {
			errs = append(errs, fmt.Sprintf("sortBy must be one of: %s", strings.Join(SortableFields, ", ")))
		}
	}

	switch strings.ToLower(params.Order) {
	case "", "desc":
		spec.Sort.Descending = true
	case "asc":
		spec.Sort.Descending = false
	default:
		errs = append(errs, "order must be either asc or desc")
	}

	if params.Page != "" {
		page, err := strconv.Atoi(params.Page)
		if err != nil || page < 1 {
			errs = append(errs, "page must be a positive integer")
		} else {
			spec.Page = page
		}
	}

	if params.Limit != "" {
		limit, err := strconv.Atoi(params.Limit)
		if err != nil || limit < 1 {
			errs = append(errs, "limit must be a positive integer")
		} else {
			spec.Limit = int64(min(limit, opts.MaxLimit))
		}
	}

	spec.Skip = skipFor(spec.Page, spec.Limit)

	return spec, errs
}

// skipFor saturates so skip+limit always fits in an int64. A page that far
// past the end is simply empty.
func skipFor(page int, limit int64) int64 {
	if limit < 1 {
		return 0
	}

	pagesBefore := int64(page - 1)
	ceiling := math.MaxInt64 - limit

	if pagesBefore > ceiling/limit {
		return ceiling
	}

	return pagesBefore * limit
}

func isSortable(field string) bool {
	for _, allowed := range SortableFields {
		if field == allowed {
			return true
		}
	}

	return false
}
