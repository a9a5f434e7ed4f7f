package store

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rinkrivals/game-sync-service/internal/domain/challenges"
)

// ErrDuplicateID is returned when creating a record whose id already exists.
var ErrDuplicateID = errors.New("duplicate id")

// MemoryStore keeps challenges and tickets in memory behind a RWMutex.
// Every write bumps the challenge version so conditional writers can detect races.
type MemoryStore struct {
	mu         sync.RWMutex
	challenges map[string]challenges.Challenge
	tickets    map[string]challenges.Ticket
	now        func() time.Time
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		challenges: make(map[string]challenges.Challenge),
		tickets:    make(map[string]challenges.Ticket),
		now:        time.Now,
	}
}

// CreateChallenge inserts c. The owner is added as a member when missing and the version starts at 1.
func (s *MemoryStore) CreateChallenge(ctx context.Context, c challenges.Challenge) (challenges.Challenge, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.challenges[c.ID]; ok {
		return challenges.Challenge{}, ErrDuplicateID
	}
	stored := normalizeNew(c, s.now())
	s.challenges[c.ID] = stored
	return stored.Clone(), nil
}

// DeleteChallenge removes a challenge. Unknown ids return ErrChallengeNotFound.
func (s *MemoryStore) DeleteChallenge(ctx context.Context, id string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.challenges[id]; !ok {
		return challenges.ErrChallengeNotFound
	}
	delete(s.challenges, id)
	return nil
}

// PutTicket inserts or replaces a ticket.
func (s *MemoryStore) PutTicket(ctx context.Context, t challenges.Ticket) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[t.ID] = t
	return nil
}

// GetTicket implements challenges.TicketLookup.
func (s *MemoryStore) GetTicket(ctx context.Context, id string) (challenges.Ticket, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tickets[id]
	if !ok {
		return challenges.Ticket{}, challenges.ErrTicketNotFound
	}
	return t, nil
}

// ListTrackedGameIDs returns the sorted distinct game ids of non-terminal challenges.
func (s *MemoryStore) ListTrackedGameIDs(ctx context.Context) ([]string, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, c := range s.challenges {
		if c.Status.IsTerminal() {
			continue
		}
		if _, ok := seen[c.GameID]; ok {
			continue
		}
		seen[c.GameID] = struct{}{}
		ids = append(ids, c.GameID)
	}
	sort.Strings(ids)
	return ids, nil
}

// ListChallengesForGame returns copies of the non-terminal challenges for gameID, oldest first.
func (s *MemoryStore) ListChallengesForGame(ctx context.Context, gameID string) ([]challenges.Challenge, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]challenges.Challenge, 0)
	for _, c := range s.challenges {
		if c.GameID != gameID || c.Status.IsTerminal() {
			continue
		}
		result = append(result, c.Clone())
	}
	sortChallenges(result)
	return result, nil
}

// GetChallenge returns a copy of the challenge.
func (s *MemoryStore) GetChallenge(ctx context.Context, id string) (challenges.Challenge, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.challenges[id]
	if !ok {
		return challenges.Challenge{}, challenges.ErrChallengeNotFound
	}
	return c.Clone(), nil
}

// ConditionalSetStatus writes next only when the stored status equals expected.
func (s *MemoryStore) ConditionalSetStatus(ctx context.Context, id string, expected, next challenges.Status) (bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[id]
	if !ok {
		return false, challenges.ErrChallengeNotFound
	}
	if c.Status != expected {
		return false, nil
	}
	c.Status = next
	c.Version++
	c.UpdatedAt = s.now()
	s.challenges[id] = c
	return true, nil
}

// ApplyMembershipChange replaces membership fields and status when the stored version matches.
func (s *MemoryStore) ApplyMembershipChange(ctx context.Context, id string, expectedVersion int64, updated challenges.Challenge) (*challenges.Challenge, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[id]
	if !ok {
		return nil, challenges.ErrChallengeNotFound
	}
	if c.Version != expectedVersion {
		return nil, nil
	}
	next := updated.Clone()
	c.MemberIDs = next.MemberIDs
	c.InvitedUserIDs = next.InvitedUserIDs
	c.TicketIDs = next.TicketIDs
	c.Status = next.Status
	c.Version++
	c.UpdatedAt = s.now()
	s.challenges[id] = c

	out := c.Clone()
	return &out, nil
}

func normalizeNew(c challenges.Challenge, now time.Time) challenges.Challenge {
	out := c.Clone()
	if out.Status == "" {
		out.Status = challenges.StatusPending
	}
	if out.OwnerID != "" && !slices.Contains(out.MemberIDs, out.OwnerID) {
		out.MemberIDs = append([]string{out.OwnerID}, out.MemberIDs...)
	}
	out.InvitedUserIDs = slices.DeleteFunc(out.InvitedUserIDs, func(id string) bool {
		return slices.Contains(out.MemberIDs, id)
	})
	if out.TicketIDs == nil {
		out.TicketIDs = make(map[string]string)
	}
	if out.Version <= 0 {
		out.Version = 1
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.UpdatedAt = now
	return out
}

func sortChallenges(list []challenges.Challenge) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}

var (
	_ challenges.Store        = (*MemoryStore)(nil)
	_ challenges.TicketLookup = (*MemoryStore)(nil)
)
