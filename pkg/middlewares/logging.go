package middlewares

import (
	"time"

	"todoapi/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func LoggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		if raw != "" {
			path = path + "?" + raw
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", GetClientIP(c)),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.String("request_id", RequestIDFromContext(c.Request.Context())),
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Ctx(c.Request.Context()).Error("HTTP Request", fields...)
		case status >= 400:
			log.Ctx(c.Request.Context()).Warn("HTTP Request", fields...)
		default:
			log.Ctx(c.Request.Context()).Info("HTTP Request", fields...)
		}
	}
}
