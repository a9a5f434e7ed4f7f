package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rinkrivals/game-sync-service/internal/domain/challenges"
	"github.com/rinkrivals/game-sync-service/internal/http/requestutil"
	"github.com/rinkrivals/game-sync-service/internal/logging"
	"github.com/rinkrivals/game-sync-service/internal/membership"
)

const maxBodyBytes = 16 << 10

// MembershipService is the subset of membership.Service the handlers call.
type MembershipService interface {
	Join(ctx context.Context, req membership.JoinRequest) (challenges.Challenge, error)
	Leave(ctx context.Context, challengeID, userID string) (challenges.Challenge, error)
	Decline(ctx context.Context, challengeID, userID string) (challenges.Challenge, error)
}

// MembershipHandler exposes join, leave and decline for the user named in X-User-ID.
type MembershipHandler struct {
	svc    MembershipService
	logger *slog.Logger
}

// NewMembershipHandler constructs a MembershipHandler.
func NewMembershipHandler(svc MembershipService, logger *slog.Logger) *MembershipHandler {
	return &MembershipHandler{svc: svc, logger: logger}
}

type joinBody struct {
	TicketIDs []string `json:"ticketIds"`
}

// Join handles POST /challenges/{challengeID}/join with body {"ticketIds":["…"]}.
func (h *MembershipHandler) Join(w http.ResponseWriter, r *http.Request) {
	challengeID, userID, logger, ok := h.actor(w, r)
	if !ok {
		return
	}

	var body joinBody
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", logger)
		return
	}

	c, err := h.svc.Join(r.Context(), membership.JoinRequest{
		ChallengeID: challengeID,
		UserID:      userID,
		TicketIDs:   body.TicketIDs,
	})
	h.respond(w, r, "join", c, err, logger)
}

// Leave handles POST /challenges/{challengeID}/leave.
func (h *MembershipHandler) Leave(w http.ResponseWriter, r *http.Request) {
	challengeID, userID, logger, ok := h.actor(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Leave(r.Context(), challengeID, userID)
	h.respond(w, r, "leave", c, err, logger)
}

// Decline handles POST /challenges/{challengeID}/decline.
func (h *MembershipHandler) Decline(w http.ResponseWriter, r *http.Request) {
	challengeID, userID, logger, ok := h.actor(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Decline(r.Context(), challengeID, userID)
	h.respond(w, r, "decline", c, err, logger)
}

func (h *MembershipHandler) actor(w http.ResponseWriter, r *http.Request) (string, string, *slog.Logger, bool) {
	logger := loggerFromContext(r, h.logger)
	userID := requestutil.UserID(r)
	if userID == "" {
		writeError(w, r, http.StatusUnauthorized, "missing "+requestutil.UserIDHeader, logger)
		return "", "", logger, false
	}
	challengeID := strings.TrimSpace(chi.URLParam(r, "challengeID"))
	if challengeID == "" {
		writeError(w, r, http.StatusBadRequest, "invalid challenge id", logger)
		return "", "", logger, false
	}
	return challengeID, userID, logger, true
}

func (h *MembershipHandler) respond(w http.ResponseWriter, r *http.Request, op string, c challenges.Challenge, err error, logger *slog.Logger) {
	if err != nil {
		logging.Info(logger, "membership change rejected", logging.FieldChallengeID, chi.URLParam(r, "challengeID"), "operation", op, "reason", err.Error())
		writeServiceError(w, r, err, logger)
		return
	}
	logging.Info(logger, "membership changed", logging.FieldChallengeID, c.ID, "operation", op)
	writeJSON(w, http.StatusOK, c, logger)
}
