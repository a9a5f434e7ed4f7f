package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rinkrivals/game-sync-service/internal/domain/games"
)

// StatusLookup resolves the cached or freshly fetched phase of a game.
type StatusLookup interface {
	GetStatus(ctx context.Context, gameID string) *games.Status
}

// GamesHandler exposes the game status view the sync loop works from.
type GamesHandler struct {
	statuses StatusLookup
	logger   *slog.Logger
	now      func() time.Time
}

// NewGamesHandler constructs a GamesHandler.
func NewGamesHandler(statuses StatusLookup, logger *slog.Logger) *GamesHandler {
	return &GamesHandler{statuses: statuses, logger: logger, now: time.Now}
}

type gameStatusResponse struct {
	games.Status
	TimeUntilStartSeconds int64 `json:"timeUntilStartSeconds"`
}

// GameStatus returns the status for {gameID}, or 404 when no upstream path could resolve it.
func (h *GamesHandler) GameStatus(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r, h.logger)
	gameID := strings.TrimSpace(chi.URLParam(r, "gameID"))
	if gameID == "" || strings.ContainsAny(gameID, " \t/") {
		writeError(w, r, http.StatusBadRequest, "invalid game id", logger)
		return
	}

	status := h.statuses.GetStatus(r.Context(), gameID)
	if status == nil {
		writeError(w, r, http.StatusNotFound, "game status unavailable", logger)
		return
	}

	until := games.TimeUntilStart(status.StartTimeUTC, h.now())
	writeJSON(w, http.StatusOK, gameStatusResponse{
		Status:                *status,
		TimeUntilStartSeconds: int64(until / time.Second),
	}, logger)
}
