package handlers

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/upb/instrumented-api/config"
	"github.com/upb/instrumented-api/internal/observability"
	"github.com/upb/instrumented-api/internal/routing"
	"github.com/upb/instrumented-api/utils"
	"go.uber.org/zap"
)

// RandomStatuses are the codes /random_status picks from.
var RandomStatuses = []int{
	http.StatusOK,
	http.StatusMultipleChoices,
	http.StatusBadRequest,
	http.StatusInternalServerError,
}

// MessageResponse is the body of the simple demo endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// ChainCall reports one downstream call made by /chain.
type ChainCall struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
}

// ChainResponse is the body of /chain.
type ChainResponse struct {
	Path  string      `json:"path"`
	Calls []ChainCall `json:"calls"`
}

// DemoHandler serves the synthetic workloads the load generator drives.
type DemoHandler struct {
	cfg          config.DemoConfig
	chainTargets []string
	client       *http.Client
	logger       *observability.ContextLogger
	intN         func(n int) int
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewDemoHandler creates a DemoHandler. When cfg has no chain targets,
// /chain calls selfURL's /, /io_task and /cpu_task.
func NewDemoHandler(cfg config.DemoConfig, selfURL string, client *http.Client, logger *observability.ContextLogger) *DemoHandler {
	targets := cfg.ChainTargets
	if len(targets) == 0 {
		targets = []string{selfURL + "/", selfURL + "/io_task", selfURL + "/cpu_task"}
	}
	return &DemoHandler{
		cfg:          cfg,
		chainTargets: targets,
		client:       client,
		logger:       logger,
		intN:         rand.IntN,
		sleep:        sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleHome handles GET /
func (h *DemoHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	h.logger.Info(r.Context(), "hello world")
	_ = utils.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Hello World"})
}

// HandleIOTask handles GET /io_task
func (h *DemoHandler) HandleIOTask(w http.ResponseWriter, r *http.Request) {
	if err := h.sleep(r.Context(), h.cfg.IODelay); err != nil {
		HandleError(w, NewDemoError(ErrorTypeInternal, "io task interrupted", err), h.logger.For(r.Context()))
		return
	}
	h.logger.Info(r.Context(), "io task")
	_ = utils.WriteJSON(w, http.StatusOK, MessageResponse{Message: "IO bound task finish!"})
}

// HandleCPUTask handles GET /cpu_task
func (h *DemoHandler) HandleCPUTask(w http.ResponseWriter, r *http.Request) {
	acc := 0
	for i := 0; i < h.cfg.CPUIterations; i++ {
		acc += i * i % 7
	}
	h.logger.Debug(r.Context(), "cpu task", zap.Int("iterations", h.cfg.CPUIterations), zap.Int("result", acc))
	_ = utils.WriteJSON(w, http.StatusOK, MessageResponse{Message: "CPU bound task finish!"})
}

// HandleRandomSleep handles GET /random_sleep
func (h *DemoHandler) HandleRandomSleep(w http.ResponseWriter, r *http.Request) {
	var d time.Duration
	if maxMs := int(h.cfg.RandomSleepMax / time.Millisecond); maxMs > 0 {
		d = time.Duration(h.intN(maxMs+1)) * time.Millisecond
	}
	if err := h.sleep(r.Context(), d); err != nil {
		HandleError(w, NewDemoError(ErrorTypeInternal, "random sleep interrupted", err), h.logger.For(r.Context()))
		return
	}
	h.logger.Info(r.Context(), "random sleep", zap.Duration("slept", d))
	_ = utils.WriteJSON(w, http.StatusOK, MessageResponse{Message: fmt.Sprintf("random sleep %s", d)})
}

// HandleRandomStatus handles GET /random_status
func (h *DemoHandler) HandleRandomStatus(w http.ResponseWriter, r *http.Request) {
	status := RandomStatuses[h.intN(len(RandomStatuses))]
	h.logger.Info(r.Context(), "random status", zap.Int("status", status))
	if status == http.StatusOK {
		_ = utils.WriteJSON(w, status, MessageResponse{Message: "random status"})
		return
	}
	_ = utils.WriteError(w, status, "random status", nil)
}

// HandleChain handles GET /chain. Every target is called in order with the
// request context, so the outgoing calls join the current trace.
func (h *DemoHandler) HandleChain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := ChainResponse{Path: "/chain"}

	for _, target := range h.chainTargets {
		status, err := h.call(ctx, target)
		if err != nil {
			HandleError(w, NewDemoError(ErrorTypeUpstream, "chain call failed", err).WithDetail("url", target), h.logger.For(ctx))
			return
		}
		resp.Calls = append(resp.Calls, ChainCall{URL: target, StatusCode: status})
	}

	h.logger.Info(ctx, "chain finished", zap.Int("calls", len(resp.Calls)))
	_ = utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *DemoHandler) call(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// HandleErrorTest handles GET /error_test. It always fails by panicking.
func (h *DemoHandler) HandleErrorTest(w http.ResponseWriter, r *http.Request) {
	h.logger.Error(r.Context(), "about to fail")
	panic(NewDemoError(ErrorTypeInternal, "error test", nil))
}

// ItemResponse is the body of /items/{id}.
type ItemResponse struct {
	ID int `json:"id"`
}

// HandleItem handles GET /items/{id}
func (h *DemoHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	raw := routing.Param(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		HandleError(w, NewDemoError(ErrorTypeValidation, "item id must be a non-negative integer", err).WithDetail("id", raw), h.logger.For(r.Context()))
		return
	}
	_ = utils.WriteOK(w, ItemResponse{ID: id})
}
