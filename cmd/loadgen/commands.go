package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/upb/instrumented-api/internal/loadgen"
	"github.com/upb/instrumented-api/internal/observability"
	"go.uber.org/zap"
)

// globalOptions are shared by every subcommand.
type globalOptions struct {
	logLevel     string
	logFormat    string
	otlpEndpoint string
	serviceName  string
	timeout      time.Duration
}

// session bundles what a subcommand needs to issue traced requests.
type session struct {
	logger  *zap.Logger
	client  *http.Client
	tracing *observability.Tracing
}

func (g *globalOptions) open(ctx context.Context) (*session, error) {
	logger, err := observability.NewLogger(g.logLevel, g.logFormat)
	if err != nil {
		return nil, err
	}

	tracing, err := observability.NewTracing(ctx, observability.TracingConfig{
		Enabled:     g.otlpEndpoint != "",
		ServiceName: g.serviceName,
		Endpoint:    g.otlpEndpoint,
		Insecure:    true,
		SampleRate:  1.0,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	return &session{
		logger:  logger,
		tracing: tracing,
		client: &http.Client{
			Transport: tracing.Transport(http.DefaultTransport),
			Timeout:   g.timeout,
		},
	}, nil
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.tracing.Shutdown(ctx); err != nil {
		s.logger.Warn("failed to flush spans", zap.Error(err))
	}
	s.client.CloseIdleConnections()
	_ = s.logger.Sync()
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:   "loadgen",
		Short: "Synthetic traffic generator for the instrumented API",
		Long: `Drives the demo endpoints of one or more instrumented API instances so
that request metrics, exemplars and traces have something to show.

Modes:
  run    simulated users picking weighted tasks with random pauses
  sweep  every endpoint on every server per iteration, then a fixed sleep`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "console", "log format: json or console")
	root.PersistentFlags().StringVar(&g.otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC collector for client spans (disabled when empty)")
	root.PersistentFlags().StringVar(&g.serviceName, "service-name", "loadgen", "service.name of client spans")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 30*time.Second, "per-request timeout")

	root.AddCommand(newRunCmd(g), newSweepCmd(g))
	return root
}

func newRunCmd(g *globalOptions) *cobra.Command {
	opts := loadgen.DefaultRunOptions()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate users issuing weighted random requests",
		Example: `  # 10 users, one new user per second, until interrupted:
  loadgen run --host http://localhost:8000 --users 10 --spawn-rate 1

  # Short smoke run:
  loadgen run -H http://localhost:8000 -u 5 -r 5 -t 30s --wait-min 100ms --wait-max 500ms`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			runner, err := loadgen.NewRunner(opts, s.client, s.logger)
			if err != nil {
				return err
			}
			stats, err := runner.Run(cmd.Context())
			loadgen.LogReport(s.logger, stats)
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.Host, "host", "H", opts.Host, "base URL of the target service")
	cmd.Flags().IntVarP(&opts.Users, "users", "u", opts.Users, "number of concurrent users")
	cmd.Flags().Float64VarP(&opts.SpawnRate, "spawn-rate", "r", opts.SpawnRate, "users started per second")
	cmd.Flags().DurationVar(&opts.WaitMin, "wait-min", opts.WaitMin, "minimum pause between tasks")
	cmd.Flags().DurationVar(&opts.WaitMax, "wait-max", opts.WaitMax, "maximum pause between tasks")
	cmd.Flags().DurationVarP(&opts.Duration, "run-time", "t", opts.Duration, "stop after this long (0 runs until interrupted)")
	cmd.Flags().IntVar(&opts.Iterations, "iterations", opts.Iterations, "tasks per user (0 is unlimited)")

	return cmd
}

func newSweepCmd(g *globalOptions) *cobra.Command {
	opts := loadgen.DefaultSweepOptions()

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Request every endpoint on every server, then sleep",
		Example: `  # Default three local instances until interrupted:
  loadgen sweep

  # Ten iterations against two instances:
  loadgen sweep --servers localhost:8000,localhost:8001 --iterations 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			stats, err := loadgen.Sweep(cmd.Context(), opts, s.client, s.logger)
			loadgen.LogReport(s.logger, stats)
			return err
		},
	}

	cmd.Flags().StringSliceVar(&opts.Servers, "servers", opts.Servers, "host:port or base URL of each instance")
	cmd.Flags().StringSliceVar(&opts.Endpoints, "endpoints", opts.Endpoints, "paths requested on every server")
	cmd.Flags().DurationVar(&opts.Sleep, "sleep", opts.Sleep, "pause after each iteration")
	cmd.Flags().IntVar(&opts.VUs, "vus", opts.VUs, "concurrent virtual users")
	cmd.Flags().IntVar(&opts.Iterations, "iterations", opts.Iterations, "iterations per virtual user (0 is unlimited)")
	cmd.Flags().DurationVarP(&opts.Duration, "duration", "d", opts.Duration, "stop after this long (0 runs until interrupted)")

	return cmd
}
