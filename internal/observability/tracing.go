package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/upb/instrumented-api"

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled      bool
	ServiceName  string
	Endpoint     string        // OTLP gRPC collector, e.g. "localhost:4317"
	Insecure     bool          // plaintext gRPC
	SampleRate   float64       // 0.0 to 1.0
	BatchTimeout time.Duration // batch span processor flush interval
}

// Tracing owns the tracer provider used by the service.
type Tracing struct {
	provider *sdktrace.TracerProvider
	logger   *zap.Logger
}

// NewTracing configures the global tracer provider and propagator. When
// tracing is disabled the global no-op provider stays in place and every
// trace ID lookup yields an empty string.
func NewTracing(ctx context.Context, cfg TracingConfig, logger *zap.Logger) (*Tracing, error) {
	t := &Tracing{logger: logger}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled {
		logger.Info("tracing disabled")
		return t, nil
	}

	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			attribute.String("compose_service", cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 5 * time.Second
	}

	t.provider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(batchTimeout)),
		sdktrace.WithSampler(sdktrace.ParentBased(samplerFor(cfg.SampleRate))),
	)
	otel.SetTracerProvider(t.provider)

	logger.Info("tracing initialized",
		zap.String("service", cfg.ServiceName),
		zap.String("endpoint", cfg.Endpoint),
		zap.Float64("sample_rate", cfg.SampleRate),
		zap.Bool("insecure", cfg.Insecure))

	return t, nil
}

func samplerFor(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0.0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// TracerProvider returns the configured provider, or the global one when
// tracing is disabled.
func (t *Tracing) TracerProvider() trace.TracerProvider {
	if t == nil || t.provider == nil {
		return otel.GetTracerProvider()
	}
	return t.provider
}

// Tracer returns the service tracer.
func (t *Tracing) Tracer() trace.Tracer {
	return t.TracerProvider().Tracer(instrumentationName)
}

// Middleware starts a server span around next. spanName names the span
// for a request; nil falls back to the HTTP method.
func (t *Tracing) Middleware(next http.Handler, spanName func(*http.Request) string) http.Handler {
	if spanName == nil {
		spanName = func(r *http.Request) string { return r.Method }
	}
	return otelhttp.NewHandler(next, "http.server",
		otelhttp.WithTracerProvider(t.TracerProvider()),
		otelhttp.WithPropagators(otel.GetTextMapPropagator()),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return spanName(r)
		}),
	)
}

// Transport wraps base so outgoing requests carry the active trace context.
func (t *Tracing) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return otelhttp.NewTransport(base,
		otelhttp.WithTracerProvider(t.TracerProvider()),
		otelhttp.WithPropagators(otel.GetTextMapPropagator()),
	)
}

// Shutdown flushes pending spans.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	if err := t.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}
	t.logger.Info("tracer provider shut down")
	return nil
}

// TraceIDFromContext returns the active span's trace ID as a hex string, or
// "" when no span is active.
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// SpanIDFromContext returns the active span's ID, or "".
func SpanIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasSpanID() {
		return ""
	}
	return sc.SpanID().String()
}
