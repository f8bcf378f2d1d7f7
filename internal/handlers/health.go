package handlers

import (
	"net/http"
	"sync/atomic"

	"github.com/crucial707/authsvc/internal/auth"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "Authentication Service"

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status         string `json:"status"`
	Service        string `json:"service"`
	DatabaseStatus string `json:"database_status"`
}

// ==========================
// Health Handler
// ==========================
type HealthHandler struct {
	Auth *auth.Service
	// SchemaReady is set once the startup schema check succeeded. Nil means always ready.
	SchemaReady *atomic.Bool
}

// Health returns 200 when the store answers and 503 otherwise; never 500.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.Auth.Health(r.Context())

	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{
		Status:         status.Status,
		Service:        ServiceName,
		DatabaseStatus: status.Database,
	})
}

// Ready additionally requires the users table to have been ensured at startup.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.SchemaReady != nil && !h.SchemaReady.Load() {
		JSONMessage(w, "schema not initialized", http.StatusServiceUnavailable)
		return
	}
	if !h.Auth.Health(r.Context()).Healthy() {
		JSONMessage(w, "database unreachable", http.StatusServiceUnavailable)
		return
	}
	JSONMessage(w, "ready", http.StatusOK)
}
