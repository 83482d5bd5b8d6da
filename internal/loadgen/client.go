package loadgen

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
	userHeader      = "X-Loadgen-User"
)

// requester performs single GETs and records their outcome.
type requester struct {
	client *http.Client
	stats  *Stats
	logger *zap.Logger
}

// get requests url under the given task name. Failures are recorded, not
// returned, so one bad response never stops a user.
func (q *requester) get(ctx context.Context, name, url, userID string) {
	start := time.Now()
	status, err := q.do(ctx, url, userID)
	latency := time.Since(start)

	// A canceled run is not a failed request.
	if err != nil && ctx.Err() != nil {
		return
	}
	q.stats.Record(name, status, latency, err)

	if err != nil {
		q.logger.Debug("request failed", zap.String("task", name), zap.String("url", url), zap.Error(err))
		return
	}
	q.logger.Debug("request done",
		zap.String("task", name),
		zap.Int("status", status),
		zap.Duration("latency", latency))
}

func (q *requester) do(ctx context.Context, url, userID string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set(requestIDHeader, uuid.NewString())
	req.Header.Set(userHeader, userID)

	resp, err := q.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
