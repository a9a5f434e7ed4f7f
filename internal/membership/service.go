// Package membership applies join, leave and decline to challenges with optimistic concurrency.
package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rinkrivals/game-sync-service/internal/domain/challenges"
	"github.com/rinkrivals/game-sync-service/internal/logging"
	"github.com/rinkrivals/game-sync-service/internal/metrics"
	"github.com/rinkrivals/game-sync-service/internal/realtime"
)

// maxAttempts bounds how many times a membership write is re-read and retried after a version conflict.
const maxAttempts = 3

// JoinRequest carries the acting user and the tickets they submitted.
type JoinRequest struct {
	ChallengeID string   `json:"challengeId"`
	UserID      string   `json:"userId"`
	TicketIDs   []string `json:"ticketIds"`
}

// Service validates membership changes and persists them with a version compare.
type Service struct {
	store     challenges.Store
	tickets   challenges.TicketLookup
	publisher realtime.Publisher
	logger    *slog.Logger
	metrics   *metrics.Recorder
}

// New constructs a Service. logger and rec may be nil.
func New(store challenges.Store, tickets challenges.TicketLookup, publisher realtime.Publisher, logger *slog.Logger, rec *metrics.Recorder) *Service {
	return &Service{
		store:     store,
		tickets:   tickets,
		publisher: publisher,
		logger:    logger,
		metrics:   rec,
	}
}

// Join adds req.UserID as a member. A PENDING challenge that reaches the activation threshold is promoted inline.
func (s *Service) Join(ctx context.Context, req JoinRequest) (challenges.Challenge, error) {
	if len(req.TicketIDs) != 1 || req.TicketIDs[0] == "" {
		return challenges.Challenge{}, challenges.ErrTicketCount
	}

	var ticket *challenges.Ticket
	before, after, err := s.apply(ctx, "join", req.ChallengeID, func(c challenges.Challenge) (challenges.Challenge, error) {
		if ticket == nil {
			t, err := s.lookupTicket(ctx, req.TicketIDs[0])
			if err != nil {
				return c, err
			}
			ticket = &t
		}
		return challenges.Join(c, req.UserID, *ticket)
	})
	if err != nil {
		return challenges.Challenge{}, err
	}

	s.publish(ctx, realtime.Joined(after.ID, req.UserID))
	if before.Status != after.Status {
		s.metrics.RecordTransition(string(before.Status), string(after.Status))
		logging.Info(logging.FromContext(ctx, s.logger), "challenge activated on join",
			logging.FieldChallengeID, after.ID,
			logging.FieldFromStatus, string(before.Status),
			logging.FieldToStatus, string(after.Status),
		)
		s.publish(ctx, realtime.StatusChanged(after.ID, string(before.Status), string(after.Status)))
	}
	return after, nil
}

// Leave removes a non-owner member and their ticket.
func (s *Service) Leave(ctx context.Context, challengeID, userID string) (challenges.Challenge, error) {
	_, after, err := s.apply(ctx, "leave", challengeID, func(c challenges.Challenge) (challenges.Challenge, error) {
		return challenges.Leave(c, userID)
	})
	if err != nil {
		return challenges.Challenge{}, err
	}
	s.publish(ctx, realtime.Left(after.ID, userID))
	return after, nil
}

// Decline drops userID's pending invitation.
func (s *Service) Decline(ctx context.Context, challengeID, userID string) (challenges.Challenge, error) {
	_, after, err := s.apply(ctx, "decline", challengeID, func(c challenges.Challenge) (challenges.Challenge, error) {
		return challenges.Decline(c, userID)
	})
	if err != nil {
		return challenges.Challenge{}, err
	}
	s.publish(ctx, realtime.Declined(after.ID, userID))
	return after, nil
}

// NotifyCreated publishes a created event for a challenge persisted elsewhere.
func (s *Service) NotifyCreated(ctx context.Context, c challenges.Challenge) error {
	return s.publishErr(ctx, realtime.Created(c.ID, c.OwnerID))
}

// NotifyDeleted publishes a deleted event for a challenge removed elsewhere.
func (s *Service) NotifyDeleted(ctx context.Context, challengeID string) error {
	return s.publishErr(ctx, realtime.Deleted(challengeID))
}

// apply reads the challenge, runs mutate and writes the result if the version is unchanged.
// On a version conflict it re-reads and re-validates, up to maxAttempts.
func (s *Service) apply(ctx context.Context, op, challengeID string, mutate func(challenges.Challenge) (challenges.Challenge, error)) (challenges.Challenge, challenges.Challenge, error) {
	logger := logging.FromContext(ctx, s.logger)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		current, err := s.store.GetChallenge(ctx, challengeID)
		if err != nil {
			if challenges.IsDomainError(err) {
				return challenges.Challenge{}, challenges.Challenge{}, err
			}
			return challenges.Challenge{}, challenges.Challenge{}, fmt.Errorf("load challenge %s: %w", challengeID, err)
		}

		updated, err := mutate(current)
		if err != nil {
			return challenges.Challenge{}, challenges.Challenge{}, err
		}

		saved, err := s.store.ApplyMembershipChange(ctx, challengeID, current.Version, updated)
		if err != nil {
			if challenges.IsDomainError(err) {
				return challenges.Challenge{}, challenges.Challenge{}, err
			}
			return challenges.Challenge{}, challenges.Challenge{}, fmt.Errorf("save challenge %s: %w", challengeID, err)
		}
		if saved != nil {
			return current, *saved, nil
		}

		s.metrics.RecordConflict(op)
		logging.Debug(logger, "membership write lost a version race, retrying",
			logging.FieldChallengeID, challengeID,
			"operation", op,
			"attempt", attempt,
		)
	}
	logging.Warn(logger, "membership write gave up after repeated conflicts", challenges.ErrConflict,
		logging.FieldChallengeID, challengeID,
		"operation", op,
	)
	return challenges.Challenge{}, challenges.Challenge{}, challenges.ErrConflict
}

func (s *Service) lookupTicket(ctx context.Context, ticketID string) (challenges.Ticket, error) {
	t, err := s.tickets.GetTicket(ctx, ticketID)
	if errors.Is(err, challenges.ErrTicketNotFound) {
		return challenges.Ticket{}, challenges.ErrInvalidTicket
	}
	if err != nil {
		return challenges.Ticket{}, fmt.Errorf("lookup ticket %s: %w", ticketID, err)
	}
	return t, nil
}

func (s *Service) publish(ctx context.Context, ev realtime.Event) {
	if err := s.publishErr(ctx, ev); err != nil {
		logging.Warn(logging.FromContext(ctx, s.logger), "membership event publish failed", err,
			logging.FieldChallengeID, ev.ChallengeID,
			logging.FieldEventType, string(ev.Type),
		)
	}
}

func (s *Service) publishErr(ctx context.Context, ev realtime.Event) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.Publish(ctx, ev)
}
