package observability

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides structured logging with context awareness.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
}

// Field represents a structured log field.
type Field = zap.Field

// NewLogger builds a zap logger. format "console" (or "text") produces a
// development encoder; anything else is JSON.
func NewLogger(level, format string) (*zap.Logger, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "console", "text":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// ContextLogger injects trace correlation fields taken from the context.
type ContextLogger struct {
	base        *zap.Logger
	serviceName string
	correlate   bool
}

var _ Logger = (*ContextLogger)(nil)

// NewContextLogger wraps base. With correlate off it logs exactly like base.
func NewContextLogger(base *zap.Logger, serviceName string, correlate bool) *ContextLogger {
	return &ContextLogger{
		base:        base,
		serviceName: serviceName,
		correlate:   correlate,
	}
}

// For returns a logger carrying the correlation fields of ctx.
func (l *ContextLogger) For(ctx context.Context) *zap.Logger {
	if !l.correlate {
		return l.base
	}
	fields := []zap.Field{zap.String("service.name", l.serviceName)}
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		fields = append(fields,
			zap.String("trace_id", traceID),
			zap.String("span_id", SpanIDFromContext(ctx)))
	}
	return l.base.With(fields...)
}

func (l *ContextLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.For(ctx).Debug(msg, fields...)
}

func (l *ContextLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.For(ctx).Info(msg, fields...)
}

func (l *ContextLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.For(ctx).Warn(msg, fields...)
}

func (l *ContextLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.For(ctx).Error(msg, fields...)
}
