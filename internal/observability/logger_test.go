package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{name: "json info", level: "info", format: "json"},
		{name: "console debug", level: "debug", format: "console"},
		{name: "text alias", level: "warn", format: "text"},
		{name: "empty level defaults", level: "", format: "json"},
		{name: "invalid level", level: "loud", format: "json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, logger)
				assert.Contains(t, err.Error(), "invalid log level")
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
			_ = logger.Sync()
		})
	}
}

func TestContextLogger(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	spanCtx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	t.Run("correlation adds trace fields", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		l := NewContextLogger(zap.New(core), "app", true)

		l.Info(spanCtx, "handled")

		require.Equal(t, 1, logs.Len())
		fields := logs.All()[0].ContextMap()
		assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
		assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
		assert.Equal(t, "app", fields["service.name"])
	})

	t.Run("correlation without span", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		l := NewContextLogger(zap.New(core), "app", true)

		l.Warn(context.Background(), "no span")

		fields := logs.All()[0].ContextMap()
		assert.NotContains(t, fields, "trace_id")
		assert.Equal(t, "app", fields["service.name"])
	})

	t.Run("correlation disabled", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		l := NewContextLogger(zap.New(core), "app", false)

		l.Debug(spanCtx, "quiet")
		l.Error(spanCtx, "loud", zap.String("k", "v"))

		require.Equal(t, 2, logs.Len())
		fields := logs.All()[1].ContextMap()
		assert.NotContains(t, fields, "trace_id")
		assert.NotContains(t, fields, "service.name")
		assert.Equal(t, "v", fields["k"])
	})
}
