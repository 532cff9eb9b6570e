package response

import (
	"time"

	"todoapi/internal/core/domain"
)

// Envelope wraps every response body.
type Envelope struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message,omitempty"`
	Data       any      `json:"data,omitempty"`
	Errors     []string `json:"errors,omitempty"`
	Error      string   `json:"error,omitempty"`
	Count      *int     `json:"count,omitempty"`
	Total      *int64   `json:"total,omitempty"`
	Page       *int     `json:"page,omitempty"`
	TotalPages *int     `json:"totalPages,omitempty"`
}

type TodoResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func NewTodoResponse(todo domain.Todo) TodoResponse {
	tags := todo.Tags
	if tags == nil {
		tags = []string{}
	}

	return TodoResponse{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		Completed:   todo.Completed,
		Priority:    todo.Priority.String(),
		DueDate:     todo.DueDate,
		Tags:        tags,
		CreatedAt:   todo.CreatedAt,
		UpdatedAt:   todo.UpdatedAt,
	}
}

func NewTodoListResponse(todos []domain.Todo) []TodoResponse {
	data := make([]TodoResponse, 0, len(todos))

	for _, todo := range todos {
		data = append(data, NewTodoResponse(todo))
	}

	return data
}

type StatisticsResponse struct {
	Total      int64            `json:"total"`
	Completed  int64            `json:"completed"`
	Pending    int64            `json:"pending"`
	ByPriority map[string]int64 `json:"byPriority"`
}

func NewStatisticsResponse(stats domain.Statistics) StatisticsResponse {
	byPriority := make(map[string]int64, len(domain.Priorities))

	for _, p := range domain.Priorities {
		byPriority[p.String()] = stats.ByPriority[p]
	}

	for p, count := range stats.ByPriority {
		if !p.IsValid() {
			byPriority[p.String()] = count
		}
	}

	return StatisticsResponse{
		Total:      stats.Total,
		Completed:  stats.Completed,
		Pending:    stats.Pending,
		ByPriority: byPriority,
	}
}

type DeletedCountResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}

type HealthResponse struct {
	Status   string            `json:"status"`
	Uptime   string            `json:"uptime"`
	Version  string            `json:"version,omitempty"`
	Checks   map[string]string `json:"checks,omitempty"`
	Database string            `json:"database"`
}
