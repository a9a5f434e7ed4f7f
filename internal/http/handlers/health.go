package handlers

import (
	"log/slog"
	"net/http"

	"github.com/rinkrivals/game-sync-service/internal/syncer"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	logger   *slog.Logger
	statusFn func() syncer.Status
}

// NewHealthHandler constructs a HealthHandler. A nil statusFn reports ready unconditionally.
func NewHealthHandler(logger *slog.Logger, statusFn func() syncer.Status) *HealthHandler {
	return &HealthHandler{logger: logger, statusFn: statusFn}
}

// Health reports the service health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := r.Context().Err(); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "shutting down", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// Ready reports whether the sync loop is healthy enough to take traffic.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.statusFn == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"}, h.logger)
		return
	}
	status := h.statusFn()
	if status.IsReady() {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":     "ready",
			"lastSync":   status.LastSuccess,
			"lastResult": status.LastResult,
		}, h.logger)
		return
	}
	msg := status.LastError
	if msg == "" {
		msg = "not ready"
	}
	writeError(w, r, http.StatusServiceUnavailable, msg, h.logger)
}
