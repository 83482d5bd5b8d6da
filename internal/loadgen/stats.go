package loadgen

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskStats aggregates the outcome of every request made for one task.
type TaskStats struct {
	Name         string
	Requests     int
	Failures     int
	TotalLatency time.Duration
	MinLatency   time.Duration
	MaxLatency   time.Duration
	StatusCodes  map[int]int
}

// AvgLatency is the mean latency, zero when nothing was recorded.
func (s TaskStats) AvgLatency() time.Duration {
	if s.Requests == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.Requests)
}

// Stats collects per-task results from concurrent users.
type Stats struct {
	mu    sync.Mutex
	tasks map[string]*TaskStats
}

// NewStats creates an empty collector.
func NewStats() *Stats {
	return &Stats{tasks: make(map[string]*TaskStats)}
}

// IsFailure reports whether a request outcome counts as failed: a transport
// error or a status of 400 and above.
func IsFailure(status int, err error) bool {
	return err != nil || status >= http.StatusBadRequest
}

// Record adds one request outcome. status is 0 when err is non-nil.
func (s *Stats) Record(name string, status int, latency time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, ok := s.tasks[name]
	if !ok {
		ts = &TaskStats{Name: name, StatusCodes: make(map[int]int), MinLatency: latency}
		s.tasks[name] = ts
	}

	ts.Requests++
	if IsFailure(status, err) {
		ts.Failures++
	}
	if err == nil {
		ts.StatusCodes[status]++
	}
	ts.TotalLatency += latency
	if latency < ts.MinLatency {
		ts.MinLatency = latency
	}
	if latency > ts.MaxLatency {
		ts.MaxLatency = latency
	}
}

// Snapshot returns a copy of every task's stats, sorted by name.
func (s *Stats) Snapshot() []TaskStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TaskStats, 0, len(s.tasks))
	for _, ts := range s.tasks {
		c := *ts
		c.StatusCodes = make(map[int]int, len(ts.StatusCodes))
		for code, n := range ts.StatusCodes {
			c.StatusCodes[code] = n
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Totals sums requests and failures over all tasks.
func Totals(stats []TaskStats) (requests, failures int) {
	for _, s := range stats {
		requests += s.Requests
		failures += s.Failures
	}
	return requests, failures
}

// LogReport writes one line per task and a summary line.
func LogReport(logger *zap.Logger, stats []TaskStats) {
	for _, s := range stats {
		logger.Info("task stats",
			zap.String("task", s.Name),
			zap.Int("requests", s.Requests),
			zap.Int("failures", s.Failures),
			zap.Duration("avg", s.AvgLatency()),
			zap.Duration("min", s.MinLatency),
			zap.Duration("max", s.MaxLatency),
			zap.Any("status_codes", s.StatusCodes))
	}
	requests, failures := Totals(stats)
	logger.Info("load generation finished",
		zap.Int("requests", requests),
		zap.Int("failures", failures))
}
