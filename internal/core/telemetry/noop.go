package telemetry

import (
	"context"
	"time"

	"todoapi/internal/core/port"
)

// NoOpMetrics discards everything. Used in tests and when metrics are disabled.
type NoOpMetrics struct{}

var _ port.Metrics = NoOpMetrics{}

func NewNoOpMetrics() port.Metrics {
	return NoOpMetrics{}
}

func (NoOpMetrics) RecordTodoOperation(ctx context.Context, operation string) {}

func (NoOpMetrics) RecordDatabaseOperation(ctx context.Context, operation string, duration time.Duration, err error) {
}

func (NoOpMetrics) RecordCacheHit(ctx context.Context, key string) {}

func (NoOpMetrics) RecordCacheMiss(ctx context.Context, key string) {}
