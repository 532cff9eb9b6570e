package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	. "todoapi/internal/adapter/http/helper"
	"todoapi/internal/core/domain"
	"todoapi/internal/core/model/request"
	"todoapi/internal/core/model/response"
	"todoapi/internal/core/port"
	"todoapi/internal/core/query"
	"todoapi/internal/core/validation"
	"todoapi/pkg/logger"
	. "todoapi/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type TodoHandler struct {
	svc       port.TodoService
	queryOpts query.Options
	Logger    *logger.Logger
}

func NewTodoHandler(todoService port.TodoService, queryOpts query.Options, log *logger.Logger) *TodoHandler {
	if log == nil {
		log = logger.NewNop()
	}

	return &TodoHandler{
		svc:       todoService,
		queryOpts: queryOpts,
		Logger:    log,
	}
}

func (t *TodoHandler) CreateTodo(c *gin.Context) {
	var req request.TodoRequest

	if errs := decodeBody(c, &req); errs != nil {
		SendValidationError(c, errs)
		return
	}

	if errs := validation.ValidateTodo(&req, validation.OnCreate); len(errs) > 0 {
		SendValidationError(c, errs)
		return
	}

	todo, err := t.svc.Create(c.Request.Context(), req.ToTodo())
	if err != nil {
		t.fail(c, err, "Error creating todo")
		return
	}

	SendSuccess(c, http.StatusCreated, response.NewTodoResponse(todo), "Todo created successfully")
}

func (t *TodoHandler) GetAllTodos(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.todo.GetAllTodos", []attribute.KeyValue{
		attribute.String("handler.operation", "GetAllTodos"),
		attribute.String("handler.method", c.Request.Method),
		attribute.String("handler.path", c.FullPath()),
	})

	defer span.End()

	spec, errs := query.Build(listParams(c), t.queryOpts)
	if len(errs) > 0 {
		SendValidationError(c, errs)
		return
	}

	page, err := t.svc.List(ctx, spec)
	if err != nil {
		AddSpanError(span, err)
		t.fail(c, err, "Error fetching todos")
		return
	}

	span.SetAttributes(
		attribute.Int("http.status_code", http.StatusOK),
		attribute.Int64("todo.total", page.Total),
	)

	SendList(c, response.NewTodoListResponse(page.Todos), ListMeta{
		Count:      len(page.Todos),
		Total:      page.Total,
		Page:       spec.Page,
		TotalPages: spec.TotalPages(page.Total),
	}, true)
}

func (t *TodoHandler) GetTodo(c *gin.Context) {
	todo, err := t.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		t.fail(c, err, "Error fetching todo")
		return
	}

	SendSuccess(c, http.StatusOK, response.NewTodoResponse(todo))
}

func (t *TodoHandler) UpdateTodo(c *gin.Context) {
	var req request.TodoRequest

	if errs := decodeBody(c, &req); errs != nil {
		SendValidationError(c, errs)
		return
	}

	if errs := validation.ValidateTodo(&req, validation.OnUpdate); len(errs) > 0 {
		SendValidationError(c, errs)
		return
	}

	todo, err := t.svc.Update(c.Request.Context(), c.Param("id"), req.ToPatch())
	if err != nil {
		t.fail(c, err, "Error updating todo")
		return
	}

	SendSuccess(c, http.StatusOK, response.NewTodoResponse(todo), "Todo updated successfully")
}

func (t *TodoHandler) ToggleTodo(c *gin.Context) {
	todo, err := t.svc.ToggleCompletion(c.Request.Context(), c.Param("id"))
	if err != nil {
		t.fail(c, err, "Error toggling todo")
		return
	}

	SendSuccess(c, http.StatusOK, response.NewTodoResponse(todo), "Todo status toggled successfully")
}

func (t *TodoHandler) DeleteTodo(c *gin.Context) {
	todo, err := t.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		t.fail(c, err, "Error deleting todo")
		return
	}

	SendSuccess(c, http.StatusOK, response.NewTodoResponse(todo), "Todo deleted successfully")
}

func (t *TodoHandler) DeleteCompleted(c *gin.Context) {
	count, err := t.svc.DeleteCompleted(c.Request.Context())
	if err != nil {
		t.fail(c, err, "Error deleting completed todos")
		return
	}

	SendSuccess(c, http.StatusOK, response.DeletedCountResponse{DeletedCount: count},
		fmt.Sprintf("%d completed todos deleted", count))
}

func (t *TodoHandler) GetStatistics(c *gin.Context) {
	stats, err := t.svc.Statistics(c.Request.Context())
	if err != nil {
		t.fail(c, err, "Error fetching statistics")
		return
	}

	SendSuccess(c, http.StatusOK, response.NewStatisticsResponse(stats))
}

func (t *TodoHandler) GetOverdue(c *gin.Context) {
	todos, err := t.svc.Overdue(c.Request.Context())
	if err != nil {
		t.fail(c, err, "Error fetching overdue todos")
		return
	}

	SendList(c, response.NewTodoListResponse(todos), ListMeta{Count: len(todos)}, false)
}

// fail maps a service error onto the envelope. Infrastructure errors are
// logged in full and reported with a generic message only.
func (t *TodoHandler) fail(c *gin.Context, err error, message string) {
	var validationErr *domain.ValidationError

	switch {
	case errors.Is(err, domain.ErrInvalidTodoID):
		SendInvalidIDError(c)
	case errors.Is(err, domain.ErrTodoNotFound):
		SendNotFoundError(c, MessageTodoNotFound)
	case errors.As(err, &validationErr):
		SendValidationError(c, validationErr.Errors)
	default:
		t.Logger.Ctx(c.Request.Context()).Error(message,
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("id", c.Param("id")),
		)

		SendInternalError(c, message)
	}
}

func listParams(c *gin.Context) request.ListParams {
	optional := func(key string) *string {
		if value, ok := c.GetQuery(key); ok {
			return &value
		}

		return nil
	}

	return request.ListParams{
		Completed: optional("completed"),
		Priority:  optional("priority"),
		Search:    optional("search"),
		SortBy:    c.Query("sortBy"),
		Order:     c.Query("order"),
		Page:      c.Query("page"),
		Limit:     c.Query("limit"),
	}
}

// decodeBody reads a single JSON object, rejecting unknown fields and
// mistyped values. It returns nil on success.
func decodeBody(c *gin.Context, dest *request.TodoRequest) []string {
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()

	err := decoder.Decode(dest)
	if err == nil {
		if decoder.More() {
			return []string{"Request body must contain a single JSON object"}
		}

		return nil
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.Is(err, io.EOF):
		return []string{"Request body is required"}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return []string{"Request body is not valid JSON"}
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return []string{"Request body must be a JSON object"}
		}

		return []string{fmt.Sprintf("%s has an invalid type", typeErr.Field)}
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return []string{fmt.Sprintf("Unknown field %s", field)}
	default:
		return []string{err.Error()}
	}
}
