package realtime

import (
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rinkrivals/game-sync-service/internal/logging"
)

// Handler upgrades /ws requests into sessions registered with a hub.
type Handler struct {
	hub      *Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewHandler builds a websocket handler. An origins list containing "*" accepts any origin.
func NewHandler(hub *Hub, logger *slog.Logger, origins []string) *Handler {
	h := &Handler{
		hub:      hub,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(origins),
	}
	return h
}

func originChecker(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(origins) == 0 || slices.Contains(origins, "*") {
			return true
		}
		return slices.Contains(origins, origin)
	}
}

// ServeHTTP upgrades the connection and runs the session until it closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context(), h.logger)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn(logger, "websocket upgrade failed", err)
		return
	}

	s := newSession(uuid.NewString(), conn, h.hub, logger)
	if !h.track(s) {
		s.Close()
		return
	}
	defer h.untrack(s)

	logging.Debug(logger, "websocket session opened", logging.FieldSessionID, s.id)
	go s.writePump()
	s.readPump()
	logging.Debug(logger, "websocket session closed", logging.FieldSessionID, s.id)
}

// Close ends every open session and refuses new ones.
func (h *Handler) Close() {
	h.mu.Lock()
	h.closed = true
	open := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		open = append(open, s)
	}
	h.mu.Unlock()

	for _, s := range open {
		s.Close()
	}
}

// OpenSessions returns the number of live connections.
func (h *Handler) OpenSessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Handler) track(s *Session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.sessions[s.id] = s
	return true
}

func (h *Handler) untrack(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, s.id)
}
