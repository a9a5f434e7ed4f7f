package teststubs

import (
	"context"
	"errors"
	"testing"

	"github.com/rinkrivals/game-sync-service/internal/domain/games"
)

func TestStubSourceTracksCalls(t *testing.T) {
	err := errors.New("boom")
	s := &StubSource{ScheduleErr: err}
	if _, got := s.FetchSchedule(context.Background()); !errors.Is(got, err) {
		t.Fatalf("expected error passthrough, got %v", got)
	}
	if s.ScheduleCalls.Load() != 1 {
		t.Fatalf("expected call count 1, got %d", s.ScheduleCalls.Load())
	}
}

func TestStubSourceFetchGame(t *testing.T) {
	s := &StubSource{Games: map[string]games.Record{"7": {ID: "7", GameState: "LIVE"}}}

	rec, err := s.FetchGame(context.Background(), "7")
	if err != nil || rec == nil || rec.GameState != "LIVE" {
		t.Fatalf("unexpected lookup rec=%+v err=%v", rec, err)
	}
	if _, err := s.FetchGame(context.Background(), "8"); !errors.Is(err, ErrGameMissing) {
		t.Fatalf("expected ErrGameMissing, got %v", err)
	}
	if s.GameCalls.Load() != 2 {
		t.Fatalf("expected 2 game calls, got %d", s.GameCalls.Load())
	}
}

func TestStubSourceBlockHonorsContext(t *testing.T) {
	s := &StubSource{Block: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.FetchSchedule(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}
