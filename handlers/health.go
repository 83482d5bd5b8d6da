package handlers

import (
	"net/http"
	"time"

	"github.com/upb/instrumented-api/utils"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	AppName   string `json:"app_name"`
	Timestamp string `json:"timestamp"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	appName string
	now     func() time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(appName string) *HealthHandler {
	return &HealthHandler{appName: appName, now: time.Now}
}

// HandleHealth handles GET /healthz.
// Always returns 200 while the process is serving.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		AppName:   h.appName,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}
