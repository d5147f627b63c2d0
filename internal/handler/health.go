package handler

import (
	"net/http"

	"github.com/debot-app/debot-backend/internal/bus"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	busClient *bus.Client
}

// NewHealthHandler creates a new health handler. busClient may be nil when
// the event journal is not configured.
func NewHealthHandler(busClient *bus.Client) *HealthHandler {
	return &HealthHandler{
		busClient: busClient,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	// NATS health matters only when the journal is configured.
	if h.busClient != nil && !h.busClient.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
