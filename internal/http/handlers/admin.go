package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rinkrivals/game-sync-service/internal/http/requestutil"
	"github.com/rinkrivals/game-sync-service/internal/logging"
	"github.com/rinkrivals/game-sync-service/internal/syncer"
)

// CacheInvalidator drops cached game statuses.
type CacheInvalidator interface {
	Invalidate(gameID string)
	InvalidateAll()
}

// SyncTrigger runs a sync cycle on demand.
type SyncTrigger interface {
	TriggerNow(ctx context.Context) (syncer.CycleResult, error)
}

// AdminHandler exposes operator endpoints guarded by ADMIN_TOKEN.
type AdminHandler struct {
	cache   CacheInvalidator
	trigger SyncTrigger
	token   string
	logger  *slog.Logger
}

// NewAdminHandler constructs an AdminHandler. An empty token rejects every request.
func NewAdminHandler(cache CacheInvalidator, trigger SyncTrigger, token string, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		cache:   cache,
		trigger: trigger,
		token:   token,
		logger:  logger,
	}
}

// RequireToken rejects requests without a matching bearer token.
func (h *AdminHandler) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.authorize(r) {
			logging.Warn(h.logger, "admin unauthorized", nil,
				slog.String("path", r.URL.Path),
				slog.String("client_ip", requestutil.ClientIP(r)),
			)
			writeError(w, r, http.StatusUnauthorized, "unauthorized", h.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// InvalidateGame drops the cached status for {gameID}.
func (h *AdminHandler) InvalidateGame(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r, h.logger)
	gameID := strings.TrimSpace(chi.URLParam(r, "gameID"))
	if gameID == "" {
		writeError(w, r, http.StatusBadRequest, "invalid game id", logger)
		return
	}
	h.cache.Invalidate(gameID)
	logging.Info(logger, "admin invalidated game status", logging.FieldGameID, gameID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "gameId": gameID}, logger)
}

// InvalidateAll drops every cached status.
func (h *AdminHandler) InvalidateAll(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r, h.logger)
	h.cache.InvalidateAll()
	logging.Info(logger, "admin invalidated all game statuses")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
}

// Sync runs a cycle now and returns its result. A cycle already in flight yields 409.
func (h *AdminHandler) Sync(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r, h.logger)
	result, err := h.trigger.TriggerNow(r.Context())
	switch {
	case errors.Is(err, syncer.ErrCycleRunning):
		writeError(w, r, http.StatusConflict, err.Error(), logger)
		return
	case err != nil:
		logging.Warn(logger, "admin sync failed", err)
		writeError(w, r, http.StatusServiceUnavailable, "sync cycle failed", logger)
		return
	}
	logging.Info(logger, "admin sync complete", logging.FieldCount, len(result.Transitions))
	writeJSON(w, http.StatusOK, result, logger)
}

func (h *AdminHandler) authorize(r *http.Request) bool {
	if h.token == "" {
		return false
	}
	return r.Header.Get("Authorization") == "Bearer "+h.token
}
