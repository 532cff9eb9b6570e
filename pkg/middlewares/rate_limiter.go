package middlewares

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"todoapi/internal/adapter/http/helper"
	"todoapi/internal/core/telemetry"
	"todoapi/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

type RateLimitEndpointConfig struct {
	Requests int
	Window   time.Duration
	KeyFunc  func(*gin.Context) string
}

// RateLimiter is a fixed-window limiter keyed by route and client IP.
type RateLimiter struct {
	cache   *cache.Cache
	config  map[string]RateLimitEndpointConfig
	logger  *zap.Logger
	metrics *telemetry.AppMetrics
	mutex   sync.RWMutex
	now     func() time.Time
}

type RateLimitEntry struct {
	Count     int
	ResetTime time.Time
}

func NewRateLimiter(logger *zap.Logger, metrics *telemetry.AppMetrics, cfg config.RateLimitConfig) *RateLimiter {
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}

	configs := map[string]RateLimitEndpointConfig{
		"default": {
			Requests: cfg.Requests,
			Window:   window,
			KeyFunc:  GetClientIP,
		},
		// Writes that rewrite many documents get a tighter budget.
		"DELETE /todos/completed": {
			Requests: max(1, cfg.Requests/10),
			Window:   window,
			KeyFunc:  GetClientIP,
		},
	}

	return &RateLimiter{
		cache:   cache.New(window, 2*window),
		config:  configs,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		methodPath := c.Request.Method + " " + path

		rl.mutex.RLock()
		config, exists := rl.config[methodPath]
		if !exists {
			config = rl.config["default"]
		}
		rl.mutex.RUnlock()

		key := fmt.Sprintf("rate_limit:%s:%s", methodPath, config.KeyFunc(c))

		allowed, remaining, resetTime := rl.checkRateLimit(key, config)

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			if rl.metrics != nil {
				rl.metrics.RecordRateLimitHit(c.Request.Context(), path)
			}

			rl.logger.Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.String("path", path),
				zap.Int("limit", config.Requests),
				zap.Duration("window", config.Window))

			retryAfter := max(1, int(resetTime.Sub(rl.now()).Seconds()))
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			helper.SendTooManyRequests(c)
			return
		}

		if rl.metrics != nil {
			rl.metrics.RecordRateLimitAllowed(c.Request.Context(), path)
		}

		c.Next()
	}
}

func (rl *RateLimiter) checkRateLimit(key string, config RateLimitEndpointConfig) (bool, int, time.Time) {
	now := rl.now()

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if entry, found := rl.cache.Get(key); found {
		rateLimitEntry := entry.(RateLimitEntry)

		if now.Before(rateLimitEntry.ResetTime) {
			if rateLimitEntry.Count >= config.Requests {
				return false, 0, rateLimitEntry.ResetTime
			}

			rateLimitEntry.Count++
			rl.cache.Set(key, rateLimitEntry, rateLimitEntry.ResetTime.Sub(now))

			return true, config.Requests - rateLimitEntry.Count, rateLimitEntry.ResetTime
		}
	}

	resetTime := now.Add(config.Window)
	rl.cache.Set(key, RateLimitEntry{Count: 1, ResetTime: resetTime}, config.Window)

	return true, config.Requests - 1, resetTime
}

// SetConfig overrides the budget for a "METHOD /route" key, or "default".
func (rl *RateLimiter) SetConfig(methodPath string, config RateLimitEndpointConfig) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if config.KeyFunc == nil {
		config.KeyFunc = GetClientIP
	}

	rl.config[methodPath] = config
}
