package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/rinkrivals/game-sync-service/internal/domain/challenges"
)

// openTestStore connects to TEST_DATABASE_URL or skips.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestStoreLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := uuid.NewString()
	gameID := "g-" + id
	t.Cleanup(func() { _ = s.DeleteChallenge(context.Background(), id) })

	created, err := s.CreateChallenge(ctx, challenges.Challenge{
		ID:             id,
		OwnerID:        "owner",
		GameID:         gameID,
		InvitedUserIDs: []string{"friend"},
		MaxMembers:     4,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != challenges.StatusPending || created.Version != 1 || !created.IsMember("owner") {
		t.Fatalf("unexpected created challenge %+v", created)
	}

	ids, err := s.ListTrackedGameIDs(ctx)
	if err != nil {
		t.Fatalf("list tracked: %v", err)
	}
	found := false
	for _, g := range ids {
		found = found || g == gameID
	}
	if !found {
		t.Fatalf("expected %s to be tracked", gameID)
	}

	updated := created.Clone()
	updated.MemberIDs = append(updated.MemberIDs, "friend")
	updated.InvitedUserIDs = nil
	updated.TicketIDs["friend"] = "t1"
	updated.Status = challenges.StatusActive

	if stale, err := s.ApplyMembershipChange(ctx, id, created.Version+5, updated); err != nil || stale != nil {
		t.Fatalf("expected version mismatch, got %+v err=%v", stale, err)
	}
	applied, err := s.ApplyMembershipChange(ctx, id, created.Version, updated)
	if err != nil || applied == nil {
		t.Fatalf("expected membership change, got %+v err=%v", applied, err)
	}
	if applied.Version != 2 || applied.TicketIDs["friend"] != "t1" || applied.MemberCount() != 2 {
		t.Fatalf("unexpected applied challenge %+v", applied)
	}

	ok, err := s.ConditionalSetStatus(ctx, id, challenges.StatusPending, challenges.StatusLive)
	if err != nil || ok {
		t.Fatalf("expected stale status CAS to fail, ok=%v err=%v", ok, err)
	}
	ok, err = s.ConditionalSetStatus(ctx, id, challenges.StatusActive, challenges.StatusFinished)
	if err != nil || !ok {
		t.Fatalf("expected status CAS to apply, ok=%v err=%v", ok, err)
	}

	list, err := s.ListChallengesForGame(ctx, gameID)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected finished challenge to be untracked, got %d err=%v", len(list), err)
	}

	if _, err := s.GetChallenge(ctx, "missing-"+id); !errors.Is(err, challenges.ErrChallengeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := s.ConditionalSetStatus(ctx, "missing-"+id, challenges.StatusPending, challenges.StatusActive); !errors.Is(err, challenges.ErrChallengeNotFound) {
		t.Fatalf("expected not found on CAS, got %v", err)
	}
}

func TestStoreTickets(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := uuid.NewString()
	if err := s.PutTicket(ctx, challenges.Ticket{ID: id, UserID: "u", GameID: "g"}); err != nil {
		t.Fatalf("put ticket: %v", err)
	}
	tk, err := s.GetTicket(ctx, id)
	if err != nil || tk.UserID != "u" {
		t.Fatalf("unexpected ticket %+v err=%v", tk, err)
	}
	if _, err := s.GetTicket(ctx, "missing-"+id); !errors.Is(err, challenges.ErrTicketNotFound) {
		t.Fatalf("expected ticket not found, got %v", err)
	}
}
