package routes

import (
	"todoapi/internal/adapter/http/handler"
	"todoapi/internal/adapter/http/helper"
	"todoapi/internal/core/telemetry"
	"todoapi/pkg/config"
	"todoapi/pkg/logger"
	. "todoapi/pkg/middlewares"

	"github.com/gin-gonic/gin"
)

type HandlersConfig struct {
	TodoHandler   *handler.TodoHandler
	HealthHandler *handler.HealthHandler
}

func SetupRouter(handlers HandlersConfig, metrics *telemetry.AppMetrics, log *logger.Logger, cfg config.Config) *gin.Engine {
	router := newEngine()

	SetupGinMiddleware(router, cfg.App.Name, metrics, log, cfg)

	registerRoutes(router, handlers)

	return router
}

// SetupRouterForTests mounts the routes with request ids and panic recovery only.
func SetupRouterForTests(handlers HandlersConfig) *gin.Engine {
	router := newEngine()

	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger.NewNop()))

	registerRoutes(router, handlers)

	return router
}

func newEngine() *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = false

	router.NoRoute(func(c *gin.Context) {
		helper.SendNotFoundError(c, helper.MessageRouteNotFound)
	})

	return router
}

func registerRoutes(router *gin.Engine, handlers HandlersConfig) {
	if handlers.HealthHandler != nil {
		router.GET("/health", handlers.HealthHandler.Health)
		router.GET("/ready", handlers.HealthHandler.Ready)
	}

	if handlers.TodoHandler == nil {
		return
	}

	todos := router.Group("/todos")
	{
		todos.POST("", handlers.TodoHandler.CreateTodo)
		todos.GET("", handlers.TodoHandler.GetAllTodos)

		// Static segments win over :id in gin's tree.
		todos.GET("/stats", handlers.TodoHandler.GetStatistics)
		todos.GET("/overdue", handlers.TodoHandler.GetOverdue)
		todos.DELETE("/completed", handlers.TodoHandler.DeleteCompleted)

		todos.GET("/:id", handlers.TodoHandler.GetTodo)
		todos.PUT("/:id", handlers.TodoHandler.UpdateTodo)
		todos.PATCH("/:id/toggle", handlers.TodoHandler.ToggleTodo)
		todos.DELETE("/:id", handlers.TodoHandler.DeleteTodo)
	}
}
