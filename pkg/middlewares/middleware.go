package middlewares

import (
	"context"
	"strings"
	"time"

	"todoapi/internal/adapter/http/helper"
	"todoapi/internal/core/telemetry"
	"todoapi/pkg/config"
	"todoapi/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func MetricsMiddleware(metrics *telemetry.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.IncrementActiveRequests(c.Request.Context())
		defer metrics.DecrementActiveRequests(c.Request.Context())

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.RecordRequest(
			c.Request.Context(),
			c.Request.Method,
			path,
			c.Writer.Status(),
			time.Since(start),
		)
	}
}

// TimeoutMiddleware bounds every downstream store call made with the request context.
func TimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RecoveryMiddleware turns a panic into the 500 envelope.
func RecoveryMiddleware(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Ctx(c.Request.Context()).Error("Recovered from panic",
			zap.Any("panic", recovered),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Stack("stack"),
		)

		helper.SendInternalError(c, "Unexpected error while handling the request")
	})
}

func GetClientIP(c *gin.Context) string {
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		ips := strings.Split(ip, ",")
		return strings.TrimSpace(ips[0])
	}

	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}

	ip := c.ClientIP()

	if ip == "" {
		return "unknown"
	}

	return ip
}

func SetupGinMiddleware(router *gin.Engine, serviceName string, metrics *telemetry.AppMetrics, log *logger.Logger, cfg config.Config) {
	router.Use(RequestIDMiddleware())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(LoggingMiddleware(log))
	router.Use(MetricsMiddleware(metrics))
	router.Use(RecoveryMiddleware(log))

	if cfg.RateLimit.Enabled {
		rateLimiter := NewRateLimiter(log.Zap(), metrics, cfg.RateLimit)
		router.Use(rateLimiter.RateLimitMiddleware())
	}

	router.Use(TimeoutMiddleware(cfg.HTTP.RequestTimeout))
}
