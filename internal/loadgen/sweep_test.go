package loadgen

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/instrumented-api/utils"
	"go.uber.org/zap"
)

func TestDefaultSweepOptions(t *testing.T) {
	opts := DefaultSweepOptions()
	assert.Equal(t, []string{"localhost:8000", "localhost:8001", "localhost:8002"}, opts.Servers)
	assert.Equal(t, DefaultPaths(), opts.Endpoints)
	assert.Equal(t, 500*time.Millisecond, opts.Sleep)
	assert.Equal(t, 1, opts.VUs)
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8000", baseURL("localhost:8000"))
	assert.Equal(t, "http://localhost:8000", baseURL("http://localhost:8000/"))
	assert.Equal(t, "https://api.example.com", baseURL("https://api.example.com"))
}

func TestSweep(t *testing.T) {
	a, recA := newRecordingServer(t)
	b, recB := newRecordingServer(t)
	serverA := strings.TrimPrefix(a.URL, "http://")

	opts := SweepOptions{
		Servers:    []string{serverA, b.URL},
		Endpoints:  []string{"/", "/error_test"},
		VUs:        2,
		Iterations: 3,
	}

	stats, err := Sweep(context.Background(), opts, http.DefaultClient, zap.NewNop())
	require.NoError(t, err)

	// 2 VUs x 3 iterations x 2 servers x 2 endpoints
	requests, failures := Totals(stats)
	assert.Equal(t, 24, requests)
	assert.Equal(t, 12, failures)
	assert.Equal(t, map[string]int{"/": 6, "/error_test": 6}, recA.paths)
	assert.Equal(t, map[string]int{"/": 6, "/error_test": 6}, recB.paths)

	require.Len(t, stats, 4)
	names := make([]string, len(stats))
	for i, s := range stats {
		names[i] = s.Name
		assert.Equal(t, 6, s.Requests)
	}
	assert.Contains(t, names, serverA+"/error_test")
	assert.Contains(t, names, b.URL+"/")
}

func TestSweep_SleepsBetweenIterations(t *testing.T) {
	ts, rec := newRecordingServer(t)

	opts := SweepOptions{
		Servers:    []string{ts.URL},
		Endpoints:  []string{"/"},
		VUs:        1,
		Iterations: 3,
		Sleep:      50 * time.Millisecond,
	}

	start := time.Now()
	_, err := Sweep(context.Background(), opts, http.DefaultClient, zap.NewNop())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	assert.Equal(t, 3, rec.total())
}

func TestSweep_Duration(t *testing.T) {
	ts, _ := newRecordingServer(t)

	opts := SweepOptions{
		Servers:   []string{ts.URL},
		Endpoints: []string{"/"},
		VUs:       1,
		Sleep:     10 * time.Millisecond,
		Duration:  100 * time.Millisecond,
	}

	stats, err := Sweep(context.Background(), opts, http.DefaultClient, zap.NewNop())
	require.NoError(t, err)
	requests, _ := Totals(stats)
	assert.Positive(t, requests)
}

func TestSweep_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SweepOptions)
		field  string
	}{
		{"no servers", func(o *SweepOptions) { o.Servers = nil }, "Servers"},
		{"relative endpoint", func(o *SweepOptions) { o.Endpoints = []string{"io_task"} }, "Endpoints[0]"},
		{"no vus", func(o *SweepOptions) { o.VUs = 0 }, "VUs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultSweepOptions()
			opts.Iterations = 1
			tt.mutate(&opts)

			_, err := Sweep(context.Background(), opts, http.DefaultClient, zap.NewNop())
			require.Error(t, err)
			assert.Contains(t, utils.GetValidationFields(err), tt.field)
		})
	}

	t.Run("unbounded", func(t *testing.T) {
		_, err := Sweep(context.Background(), DefaultSweepOptions(), http.DefaultClient, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unbounded")
	})
}
