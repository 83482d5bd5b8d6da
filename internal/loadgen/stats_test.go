package loadgen

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestIsFailure(t *testing.T) {
	assert.False(t, IsFailure(200, nil))
	assert.False(t, IsFailure(300, nil))
	assert.True(t, IsFailure(400, nil))
	assert.True(t, IsFailure(500, nil))
	assert.True(t, IsFailure(0, errors.New("refused")))
}

func TestStats_Record(t *testing.T) {
	s := NewStats()
	s.Record("/home", 200, 10*time.Millisecond, nil)
	s.Record("/home", 500, 30*time.Millisecond, nil)
	s.Record("/home", 0, 20*time.Millisecond, errors.New("refused"))
	s.Record("/chain", 200, time.Millisecond, nil)

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "/chain", snap[0].Name)

	home := snap[1]
	assert.Equal(t, 3, home.Requests)
	assert.Equal(t, 2, home.Failures)
	assert.Equal(t, 10*time.Millisecond, home.MinLatency)
	assert.Equal(t, 30*time.Millisecond, home.MaxLatency)
	assert.Equal(t, 20*time.Millisecond, home.AvgLatency())
	assert.Equal(t, map[int]int{200: 1, 500: 1}, home.StatusCodes)

	requests, failures := Totals(snap)
	assert.Equal(t, 4, requests)
	assert.Equal(t, 2, failures)
}

func TestStats_SnapshotIsACopy(t *testing.T) {
	s := NewStats()
	s.Record("/home", 200, time.Millisecond, nil)

	snap := s.Snapshot()
	snap[0].StatusCodes[200] = 99

	assert.Equal(t, 1, s.Snapshot()[0].StatusCodes[200])
}

func TestStats_Concurrent(t *testing.T) {
	s := NewStats()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Record("/home", 200, time.Millisecond, nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Snapshot()[0].Requests)
}

func TestTaskStats_AvgLatencyEmpty(t *testing.T) {
	assert.Zero(t, TaskStats{}.AvgLatency())
}

func TestLogReport(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewStats()
	s.Record("/home", 200, time.Millisecond, nil)
	s.Record("/error_test", 500, time.Millisecond, nil)

	LogReport(zap.New(core), s.Snapshot())

	assert.Equal(t, 2, logs.FilterMessage("task stats").Len())
	summary := logs.FilterMessage("load generation finished").All()
	require.Len(t, summary, 1)
	assert.EqualValues(t, 2, summary[0].ContextMap()["requests"])
	assert.EqualValues(t, 1, summary[0].ContextMap()["failures"])
}
