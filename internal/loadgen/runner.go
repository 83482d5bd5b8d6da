package loadgen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/instrumented-api/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// RunOptions configures a Runner.
type RunOptions struct {
	// Host is the base URL of the target, e.g. "http://localhost:8000".
	Host      string  `validate:"required,url"`
	Users     int     `validate:"gte=1"`
	SpawnRate float64 `validate:"gt=0"` // users started per second
	// Each user waits a uniform random time in [WaitMin, WaitMax] between
	// tasks.
	WaitMin time.Duration `validate:"gte=0"`
	WaitMax time.Duration `validate:"gtefield=WaitMin"`
	// Duration bounds the whole run; zero runs until the context ends.
	Duration time.Duration `validate:"gte=0"`
	// Iterations bounds the tasks per user; zero means unlimited.
	Iterations int `validate:"gte=0"`
	Tasks      []Task
}

// DefaultRunOptions matches a headless run with 10 users spawned at one per
// second, waiting 1 to 5 seconds between tasks.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		Host:      "http://localhost:8000",
		Users:     10,
		SpawnRate: 1,
		WaitMin:   time.Second,
		WaitMax:   5 * time.Second,
		Tasks:     DefaultTasks,
	}
}

// Runner simulates concurrent users against one host.
type Runner struct {
	opts   RunOptions
	picker *Picker
	req    *requester
	logger *zap.Logger
	wait   func(ctx context.Context, d time.Duration) error
}

// NewRunner validates opts. client carries the transport used for every
// request; pass one wrapped with trace propagation to link load generator
// spans to the service.
func NewRunner(opts RunOptions, client *http.Client, logger *zap.Logger) (*Runner, error) {
	if err := utils.ValidateStruct(&opts); err != nil {
		return nil, fmt.Errorf("invalid run options: %w", err)
	}
	if len(opts.Tasks) == 0 {
		opts.Tasks = DefaultTasks
	}
	picker, err := NewPicker(opts.Tasks)
	if err != nil {
		return nil, err
	}
	opts.Host = strings.TrimRight(opts.Host, "/")

	return &Runner{
		opts:   opts,
		picker: picker,
		req:    &requester{client: client, stats: NewStats(), logger: logger},
		logger: logger,
		wait:   sleep,
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run spawns users at the configured rate and blocks until every user is
// done, the duration elapses or ctx is canceled. The returned stats cover
// every completed request.
func (r *Runner) Run(ctx context.Context) ([]TaskStats, error) {
	if r.opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Duration)
		defer cancel()
	}

	limiter := rate.NewLimiter(rate.Limit(r.opts.SpawnRate), 1)
	g, gctx := errgroup.WithContext(ctx)

	r.logger.Info("starting load generation",
		zap.String("host", r.opts.Host),
		zap.Int("users", r.opts.Users),
		zap.Float64("spawn_rate", r.opts.SpawnRate))

	for i := 0; i < r.opts.Users; i++ {
		if err := limiter.Wait(gctx); err != nil {
			// The run ended before every user was spawned.
			break
		}
		userID := uuid.NewString()
		g.Go(func() error {
			return r.user(gctx, userID)
		})
	}

	err := g.Wait()
	return r.req.stats.Snapshot(), err
}

// user runs one simulated user's task loop.
func (r *Runner) user(ctx context.Context, userID string) error {
	r.logger.Debug("user started", zap.String("user_id", userID))
	for i := 0; r.opts.Iterations == 0 || i < r.opts.Iterations; i++ {
		if ctx.Err() != nil {
			return nil
		}
		task := r.picker.Pick()
		r.req.get(ctx, task.Name, r.opts.Host+task.Path, userID)

		if r.opts.Iterations > 0 && i == r.opts.Iterations-1 {
			break
		}
		if err := r.wait(ctx, r.waitTime()); err != nil {
			return nil
		}
	}
	return nil
}

func (r *Runner) waitTime() time.Duration {
	span := r.opts.WaitMax - r.opts.WaitMin
	if span <= 0 {
		return r.opts.WaitMin
	}
	return r.opts.WaitMin + rand.N(span+1)
}
