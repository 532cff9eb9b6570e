package helper

import (
	"net/http"

	"todoapi/internal/core/model/response"

	"github.com/gin-gonic/gin"
)

const (
	MessageValidationFailed = "Validation failed"
	MessageInvalidID        = "Invalid todo ID format"
	MessageTodoNotFound     = "Todo not found"
	MessageRouteNotFound    = "Route not found"
	MessageTooManyRequests  = "Too many requests"
	MessageInternalError    = "Internal server error"
)

// ListMeta carries the optional paging fields of a read envelope.
type ListMeta struct {
	Count      int
	Total      int64
	Page       int
	TotalPages int
}

func SendSuccess(c *gin.Context, statusCode int, data any, message ...string) {
	body := response.Envelope{
		Success: true,
		Data:    data,
	}

	if len(message) > 0 && message[0] != "" {
		body.Message = message[0]
	}

	c.JSON(statusCode, body)
}

// SendList writes a read envelope. Count is always present; the paging
// fields only when meta carries a total.
func SendList(c *gin.Context, data any, meta ListMeta, withPaging bool) {
	body := response.Envelope{
		Success: true,
		Data:    data,
		Count:   &meta.Count,
	}

	if withPaging {
		body.Total = &meta.Total
		body.Page = &meta.Page
		body.TotalPages = &meta.TotalPages
	}

	c.JSON(http.StatusOK, body)
}

func SendError(c *gin.Context, statusCode int, message string, errors []string, detail ...string) {
	body := response.Envelope{
		Success: false,
		Message: message,
		Errors:  errors,
	}

	if len(detail) > 0 {
		body.Error = detail[0]
	}

	c.AbortWithStatusJSON(statusCode, body)
}

func SendValidationError(c *gin.Context, errors []string) {
	if errors == nil {
		errors = []string{}
	}

	SendError(c, http.StatusBadRequest, MessageValidationFailed, errors)
}

func SendInvalidIDError(c *gin.Context) {
	SendError(c, http.StatusBadRequest, MessageInvalidID, nil)
}

func SendNotFoundError(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, message, nil)
}

func SendTooManyRequests(c *gin.Context) {
	SendError(c, http.StatusTooManyRequests, MessageTooManyRequests, nil)
}

// SendInternalError never exposes the underlying error; callers log it.
func SendInternalError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, message, nil, MessageInternalError)
}
