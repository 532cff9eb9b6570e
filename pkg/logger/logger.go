package logger

import (
	"context"
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a zap logger wrapped with otelzap, so Ctx(ctx) entries carry the
// active trace and span ids.
type Logger struct {
	*otelzap.Logger
	ServiceName string
}

func New(serviceName, level string) (*Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.TimeKey = "timestamp"
	config.InitialFields = map[string]any{"service": serviceName}

	zapLogger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create zap logger: %w", err)
	}

	return &Logger{
		Logger:      otelzap.New(zapLogger, otelzap.WithMinLevel(lvl)),
		ServiceName: serviceName,
	}, nil
}

// NewNop discards everything. Used by tests and CLI commands that do not log.
func NewNop() *Logger {
	return &Logger{Logger: otelzap.New(zap.NewNop())}
}

// Zap returns the plain zap logger for components that take *zap.Logger.
func (l *Logger) Zap() *zap.Logger {
	return l.Logger.Logger
}

func (l *Logger) Sync() error {
	return l.Logger.Sync()
}

func (l *Logger) InfoWithTrace(ctx context.Context, msg string, fields ...zap.Field) {
	l.Ctx(ctx).Info(msg, fields...)
}

func (l *Logger) ErrorWithTrace(ctx context.Context, msg string, fields ...zap.Field) {
	l.Ctx(ctx).Error(msg, fields...)
}
