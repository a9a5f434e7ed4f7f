package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rinkrivals/game-sync-service/internal/domain/challenges"
	"github.com/rinkrivals/game-sync-service/internal/http/middleware"
	"github.com/rinkrivals/game-sync-service/internal/logging"
)

func writeJSON(w http.ResponseWriter, status int, payload any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error(logger, "failed to encode response", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, logger *slog.Logger) {
	reqID := middleware.RequestIDFromContext(r.Context())
	if reqID == "" {
		reqID = r.Header.Get("X-Request-ID")
	}
	body := map[string]string{"error": message}
	if reqID != "" {
		body["requestId"] = reqID
	}
	writeJSON(w, status, body, logger)
}

// domainStatus maps challenge rule violations to HTTP status codes.
func domainStatus(err error) int {
	switch {
	case errors.Is(err, challenges.ErrChallengeNotFound):
		return http.StatusNotFound
	case errors.Is(err, challenges.ErrTicketCount),
		errors.Is(err, challenges.ErrInvalidTicket),
		errors.Is(err, challenges.ErrTicketNotFound):
		return http.StatusBadRequest
	case errors.Is(err, challenges.ErrOwnerCannotLeave),
		errors.Is(err, challenges.ErrNotMember),
		errors.Is(err, challenges.ErrNotInvited):
		return http.StatusForbidden
	case challenges.IsDomainError(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeServiceError writes domain errors verbatim and hides everything else behind a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status := domainStatus(err)
	if status == http.StatusInternalServerError {
		logging.Error(logger, "request failed", err)
		writeError(w, r, status, "internal error", logger)
		return
	}
	writeError(w, r, status, err.Error(), logger)
}

func loggerFromContext(r *http.Request, fallback *slog.Logger) *slog.Logger {
	if r == nil {
		return fallback
	}
	return logging.FromContext(r.Context(), fallback)
}
