package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/upb/instrumented-api/config"
	"github.com/upb/instrumented-api/internal/observability"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Observability
	ContextLogger *observability.ContextLogger
	Metrics       *observability.Registry
	Tracing       *observability.Tracing

	// HTTPClient propagates trace context to downstream services (/chain).
	HTTPClient *http.Client
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initTracing(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	deps.initObservability(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.String("app_name", cfg.AppName),
		zap.String("router", cfg.Server.Router))
	return deps, nil
}

// initTracing sets up the tracer provider and the instrumented HTTP client
func (d *Dependencies) initTracing(ctx context.Context, cfg *config.Config) error {
	tracing, err := observability.NewTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Observability.TracingEnabled,
		ServiceName: cfg.AppName,
		Endpoint:    cfg.Observability.TracingEndpoint,
		Insecure:    cfg.Observability.TracingInsecure,
		SampleRate:  cfg.Observability.TracingSampleRate,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.Tracing = tracing
	d.HTTPClient = &http.Client{
		Transport: tracing.Transport(http.DefaultTransport),
		Timeout:   cfg.Server.WriteTimeout,
	}
	return nil
}

// initObservability builds the metrics registry and the correlating logger
func (d *Dependencies) initObservability(cfg *config.Config) {
	d.Metrics = observability.NewRegistry(observability.RegistryOptions{
		Namespace:      cfg.Observability.MetricsNamespace,
		IncludeRuntime: cfg.Observability.MetricsRuntime,
	})
	d.ContextLogger = observability.NewContextLogger(d.Logger, cfg.AppName, cfg.Observability.LogCorrelation)

	d.Logger.Info("metrics registry initialized",
		zap.String("namespace", cfg.Observability.MetricsNamespace),
		zap.String("path", cfg.Observability.MetricsPath),
		zap.Bool("runtime_collectors", cfg.Observability.MetricsRuntime))
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if err := d.Tracing.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	if d.HTTPClient != nil {
		d.HTTPClient.CloseIdleConnections()
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %w", errors.Join(errs...))
	}

	return nil
}
