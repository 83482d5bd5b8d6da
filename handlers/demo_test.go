package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/instrumented-api/config"
	"github.com/upb/instrumented-api/internal/observability"
	"github.com/upb/instrumented-api/internal/routing"
	"github.com/upb/instrumented-api/utils"
	"go.uber.org/zap"
)

func newTestDemoHandler(cfg config.DemoConfig, selfURL string) *DemoHandler {
	h := NewDemoHandler(cfg, selfURL, http.DefaultClient, observability.NewContextLogger(zap.NewNop(), "test", true))
	h.sleep = func(context.Context, time.Duration) error { return nil }
	return h
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body MessageResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body.Message
}

func TestDemoHandler_SimpleEndpoints(t *testing.T) {
	h := newTestDemoHandler(config.DemoConfig{CPUIterations: 1000}, "http://self")

	tests := []struct {
		name    string
		handler http.HandlerFunc
		message string
	}{
		{"home", h.HandleHome, "Hello World"},
		{"io task", h.HandleIOTask, "IO bound task finish!"},
		{"cpu task", h.HandleCPUTask, "CPU bound task finish!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handler(w, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.message, decodeMessage(t, w))
		})
	}
}

func TestDemoHandler_IOTaskSleeps(t *testing.T) {
	h := newTestDemoHandler(config.DemoConfig{IODelay: 250 * time.Millisecond}, "http://self")
	var slept time.Duration
	h.sleep = func(_ context.Context, d time.Duration) error {
		slept = d
		return nil
	}

	h.HandleIOTask(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/io_task", nil))
	assert.Equal(t, 250*time.Millisecond, slept)
}

func TestDemoHandler_IOTaskCanceled(t *testing.T) {
	h := NewDemoHandler(config.DemoConfig{IODelay: time.Hour}, "http://self", http.DefaultClient,
		observability.NewContextLogger(zap.NewNop(), "test", false))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := httptest.NewRecorder()
	h.HandleIOTask(w, httptest.NewRequest(http.MethodGet, "/io_task", nil).WithContext(ctx))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestDemoHandler_RandomSleep(t *testing.T) {
	h := newTestDemoHandler(config.DemoConfig{RandomSleepMax: time.Second}, "http://self")

	var bound int
	h.intN = func(n int) int {
		bound = n
		return 300
	}
	var slept time.Duration
	h.sleep = func(_ context.Context, d time.Duration) error {
		slept = d
		return nil
	}

	w := httptest.NewRecorder()
	h.HandleRandomSleep(w, httptest.NewRequest(http.MethodGet, "/random_sleep", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1001, bound)
	assert.Equal(t, 300*time.Millisecond, slept)
	assert.Equal(t, "random sleep 300ms", decodeMessage(t, w))
}

func TestDemoHandler_RandomSleepDisabled(t *testing.T) {
	h := newTestDemoHandler(config.DemoConfig{}, "http://self")
	h.intN = func(int) int {
		t.Fatal("intN must not be called without an upper bound")
		return 0
	}

	w := httptest.NewRecorder()
	h.HandleRandomSleep(w, httptest.NewRequest(http.MethodGet, "/random_sleep", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDemoHandler_RandomStatus(t *testing.T) {
	h := newTestDemoHandler(config.DemoConfig{}, "http://self")

	for i, want := range RandomStatuses {
		t.Run(http.StatusText(want), func(t *testing.T) {
			h.intN = func(n int) int {
				assert.Equal(t, len(RandomStatuses), n)
				return i
			}

			w := httptest.NewRecorder()
			h.HandleRandomStatus(w, httptest.NewRequest(http.MethodGet, "/random_status", nil))
			assert.Equal(t, want, w.Code)
		})
	}
}

func TestDemoHandler_Chain(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer downstream.Close()

	t.Run("defaults to own endpoints", func(t *testing.T) {
		h := newTestDemoHandler(config.DemoConfig{}, downstream.URL)

		w := httptest.NewRecorder()
		h.HandleChain(w, httptest.NewRequest(http.MethodGet, "/chain", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var body ChainResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "/chain", body.Path)
		require.Len(t, body.Calls, 3)
		assert.Equal(t, []string{"/", "/io_task", "/cpu_task"}, paths)
		for _, c := range body.Calls {
			assert.Equal(t, http.StatusOK, c.StatusCode)
		}
	})

	t.Run("configured targets", func(t *testing.T) {
		paths = nil
		h := newTestDemoHandler(config.DemoConfig{ChainTargets: []string{downstream.URL + "/random_status"}}, "http://unused")

		w := httptest.NewRecorder()
		h.HandleChain(w, httptest.NewRequest(http.MethodGet, "/chain", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"/random_status"}, paths)
	})

	t.Run("unreachable target is a bad gateway", func(t *testing.T) {
		dead := httptest.NewServer(http.NotFoundHandler())
		deadURL := dead.URL
		dead.Close()

		h := newTestDemoHandler(config.DemoConfig{ChainTargets: []string{deadURL + "/"}}, "http://unused")

		w := httptest.NewRecorder()
		h.HandleChain(w, httptest.NewRequest(http.MethodGet, "/chain", nil))
		assert.Equal(t, http.StatusBadGateway, w.Code)

		var body utils.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "chain call failed", body.Message)
		assert.Equal(t, deadURL+"/", body.Details["url"])
	})
}

func TestDemoHandler_ErrorTestPanics(t *testing.T) {
	h := newTestDemoHandler(config.DemoConfig{}, "http://self")

	defer func() {
		v := recover()
		require.NotNil(t, v)
		err, ok := v.(*DemoError)
		require.True(t, ok)
		assert.Equal(t, ErrorTypeInternal, err.Type)
	}()

	h.HandleErrorTest(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/error_test", nil))
}

func TestDemoHandler_Item(t *testing.T) {
	h := newTestDemoHandler(config.DemoConfig{}, "http://self")
	router := routing.NewChiRouter(routing.NewTable(
		routing.NewRoute(http.MethodGet, "/items/{id}", http.HandlerFunc(h.HandleItem)),
	))

	t.Run("numeric id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/42", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Data ItemResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, 42, body.Data.ID)
	})

	t.Run("non numeric id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/abc", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler("app-a")
	h.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	w := httptest.NewRecorder()
	h.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var body HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, HealthResponse{Status: "ok", AppName: "app-a", Timestamp: "2024-01-02T03:04:05Z"}, body)
}
