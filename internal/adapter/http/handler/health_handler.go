package handler

import (
	"context"
	"net/http"
	"time"

	. "todoapi/internal/adapter/http/helper"
	"todoapi/internal/core/model/response"
	"todoapi/internal/core/port"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// StoreChecker reports the document store through the repository's Ping.
type StoreChecker struct {
	Repo port.TodoRepository
}

func (StoreChecker) Name() string {
	return "database"
}

func (s StoreChecker) HealthCheck(ctx context.Context) error {
	return s.Repo.Ping(ctx)
}

type HealthHandler struct {
	store    port.HealthChecker
	checkers []port.HealthChecker
	version  string
	started  time.Time
}

// NewHealthHandler takes the store checker first; extra checkers only affect readiness.
func NewHealthHandler(store port.HealthChecker, version string, extra ...port.HealthChecker) *HealthHandler {
	return &HealthHandler{
		store:    store,
		checkers: append([]port.HealthChecker{store}, extra...),
		version:  version,
		started:  time.Now(),
	}
}

// Health is the liveness probe: 200 while the process serves requests, with
// the store state reported in the body.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	database := "connected"
	if err := h.store.HealthCheck(ctx); err != nil {
		database = "disconnected"
	}

	SendSuccess(c, http.StatusOK, response.HealthResponse{
		Status:   "ok",
		Uptime:   time.Since(h.started).Round(time.Second).String(),
		Version:  h.version,
		Database: database,
	})
}

// Ready fails with 503 when any dependency check fails.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.checkers))
	ready := true

	for _, checker := range h.checkers {
		if err := checker.HealthCheck(ctx); err != nil {
			checks[checker.Name()] = "unavailable"
			ready = false
			continue
		}

		checks[checker.Name()] = "ok"
	}

	body := response.HealthResponse{
		Status:   "ready",
		Uptime:   time.Since(h.started).Round(time.Second).String(),
		Version:  h.version,
		Checks:   checks,
		Database: checks[h.store.Name()],
	}

	if !ready {
		body.Status = "not ready"

		c.JSON(http.StatusServiceUnavailable, response.Envelope{
			Success: false,
			Message: "Service not ready",
			Data:    body,
		})

		return
	}

	SendSuccess(c, http.StatusOK, body)
}
