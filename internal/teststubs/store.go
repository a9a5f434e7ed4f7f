package teststubs

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rinkrivals/game-sync-service/internal/domain/challenges"
	"github.com/rinkrivals/game-sync-service/internal/domain/games"
)

// FaultyStore wraps a real challenges.Store and injects failures.
type FaultyStore struct {
	challenges.Store

	mu sync.Mutex
	// ListErr fails ListTrackedGameIDs.
	ListErr error
	// GameErrs fails ListChallengesForGame per game id.
	GameErrs map[string]error
	// StaleStatus makes ConditionalSetStatus report a lost race for these challenge ids.
	StaleStatus map[string]bool
	// StaleMemberships makes the next n ApplyMembershipChange calls report a version mismatch.
	StaleMemberships int
	// BeforeApply runs before every ApplyMembershipChange and may mutate the wrapped store.
	BeforeApply func()

	SetStatusCalls atomic.Int32
	ApplyCalls     atomic.Int32
}

// SetListErr swaps the tracked-games listing error.
func (s *FaultyStore) SetListErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListErr = err
}

// ListTrackedGameIDs fails with ListErr when set.
func (s *FaultyStore) ListTrackedGameIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	err := s.ListErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.Store.ListTrackedGameIDs(ctx)
}

// ListChallengesForGame fails for ids present in GameErrs.
func (s *FaultyStore) ListChallengesForGame(ctx context.Context, gameID string) ([]challenges.Challenge, error) {
	s.mu.Lock()
	err := s.GameErrs[gameID]
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.Store.ListChallengesForGame(ctx, gameID)
}

// ConditionalSetStatus reports false without writing for ids in StaleStatus.
func (s *FaultyStore) ConditionalSetStatus(ctx context.Context, id string, expected, next challenges.Status) (bool, error) {
	s.SetStatusCalls.Add(1)
	s.mu.Lock()
	stale := s.StaleStatus[id]
	s.mu.Unlock()
	if stale {
		return false, nil
	}
	return s.Store.ConditionalSetStatus(ctx, id, expected, next)
}

// ApplyMembershipChange returns nil for the first StaleMemberships calls.
func (s *FaultyStore) ApplyMembershipChange(ctx context.Context, id string, expectedVersion int64, updated challenges.Challenge) (*challenges.Challenge, error) {
	s.ApplyCalls.Add(1)
	s.mu.Lock()
	hook := s.BeforeApply
	stale := s.StaleMemberships > 0
	if stale {
		s.StaleMemberships--
	}
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	if stale {
		return nil, nil
	}
	return s.Store.ApplyMembershipChange(ctx, id, expectedVersion, updated)
}

// StatusMap resolves game statuses from a fixed map, counting lookups.
type StatusMap struct {
	mu       sync.Mutex
	Statuses map[string]*games.Status
	Calls    atomic.Int32
}

// Set replaces the status for gameID. A nil status makes the game unresolved.
func (m *StatusMap) Set(gameID string, st *games.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Statuses == nil {
		m.Statuses = make(map[string]*games.Status)
	}
	m.Statuses[gameID] = st
}

// GetStatus returns a copy of the configured status or nil.
func (m *StatusMap) GetStatus(ctx context.Context, gameID string) *games.Status {
	m.Calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.Statuses[gameID]
	if st == nil {
		return nil
	}
	out := *st
	return &out
}
