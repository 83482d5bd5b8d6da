package loadgen

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/instrumented-api/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultServers are the three demo service instances.
var DefaultServers = []string{"localhost:8000", "localhost:8001", "localhost:8002"}

// SweepOptions configures Sweep.
type SweepOptions struct {
	// Servers are host:port pairs or base URLs.
	Servers   []string `validate:"min=1,dive,required"`
	Endpoints []string `validate:"min=1,dive,startswith=/"`
	// Sleep is the pause at the end of every iteration.
	Sleep time.Duration `validate:"gte=0"`
	// VUs is the number of concurrent virtual users.
	VUs int `validate:"gte=1"`
	// Iterations per virtual user; zero runs until Duration or ctx ends.
	Iterations int           `validate:"gte=0"`
	Duration   time.Duration `validate:"gte=0"`
}

// DefaultSweepOptions hits every demo endpoint on the three default servers
// with a single virtual user, pausing half a second per iteration.
func DefaultSweepOptions() SweepOptions {
	return SweepOptions{
		Servers:   DefaultServers,
		Endpoints: DefaultPaths(),
		Sleep:     500 * time.Millisecond,
		VUs:       1,
	}
}

// baseURL adds a scheme to bare host:port servers.
func baseURL(server string) string {
	if strings.HasPrefix(server, "http://") || strings.HasPrefix(server, "https://") {
		return strings.TrimRight(server, "/")
	}
	return "http://" + strings.TrimRight(server, "/")
}

// Sweep runs iterations in which every endpoint of every server is requested
// once, in order. Stats are keyed by "<server><endpoint>".
func Sweep(ctx context.Context, opts SweepOptions, client *http.Client, logger *zap.Logger) ([]TaskStats, error) {
	if err := utils.ValidateStruct(&opts); err != nil {
		return nil, fmt.Errorf("invalid sweep options: %w", err)
	}
	if opts.Iterations == 0 && opts.Duration == 0 {
		if _, ok := ctx.Deadline(); !ok && ctx.Done() == nil {
			return nil, fmt.Errorf("invalid sweep options: unbounded sweep needs iterations, a duration or a cancelable context")
		}
	}
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	req := &requester{client: client, stats: NewStats(), logger: logger}
	g, gctx := errgroup.WithContext(ctx)

	logger.Info("starting sweep",
		zap.Strings("servers", opts.Servers),
		zap.Int("endpoints", len(opts.Endpoints)),
		zap.Int("vus", opts.VUs))

	for v := 0; v < opts.VUs; v++ {
		vu := uuid.NewString()
		g.Go(func() error {
			for i := 0; opts.Iterations == 0 || i < opts.Iterations; i++ {
				for _, server := range opts.Servers {
					base := baseURL(server)
					for _, endpoint := range opts.Endpoints {
						if gctx.Err() != nil {
							return nil
						}
						req.get(gctx, server+endpoint, base+endpoint, vu)
					}
				}
				if err := sleep(gctx, opts.Sleep); err != nil {
					return nil
				}
			}
			return nil
		})
	}

	err := g.Wait()
	return req.stats.Snapshot(), err
}
