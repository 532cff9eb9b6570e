package port

import (
	"context"
	"time"
)

// Metrics lets the core emit operational counters without knowing the backend.
type Metrics interface {
	RecordTodoOperation(ctx context.Context, operation string)
	RecordDatabaseOperation(ctx context.Context, operation string, duration time.Duration, err error)
	RecordCacheHit(ctx context.Context, key string)
	RecordCacheMiss(ctx context.Context, key string)
}

// HealthChecker is a named dependency probe used by the readiness endpoint.
type HealthChecker interface {
	Name() string
	HealthCheck(ctx context.Context) error
}
