package teststubs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rinkrivals/game-sync-service/internal/domain/games"
)

// ErrGameMissing is returned by StubSource.FetchGame for ids it does not know.
var ErrGameMissing = errors.New("stub: game missing")

// StubSource is a test double for providers.GameSource.
// When Block is non-nil every call waits for it to be closed (or for ctx) before answering.
type StubSource struct {
	mu          sync.Mutex
	Days        []games.ScheduleDay
	ScheduleErr error
	Games       map[string]games.Record
	GameErr     error
	Block       chan struct{}

	ScheduleCalls atomic.Int32
	GameCalls     atomic.Int32
}

// SetDays swaps the schedule returned by later calls.
func (s *StubSource) SetDays(days []games.ScheduleDay) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Days = days
}

// FetchSchedule returns the configured schedule and error while tracking calls.
func (s *StubSource) FetchSchedule(ctx context.Context) ([]games.ScheduleDay, error) {
	s.ScheduleCalls.Add(1)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ScheduleErr != nil {
		return nil, s.ScheduleErr
	}
	return s.Days, nil
}

// FetchGame returns the configured record for gameID while tracking calls.
func (s *StubSource) FetchGame(ctx context.Context, gameID string) (*games.Record, error) {
	s.GameCalls.Add(1)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GameErr != nil {
		return nil, s.GameErr
	}
	rec, ok := s.Games[gameID]
	if !ok {
		return nil, ErrGameMissing
	}
	return &rec, nil
}

func (s *StubSource) wait(ctx context.Context) error {
	if s.Block == nil {
		return nil
	}
	select {
	case <-s.Block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
