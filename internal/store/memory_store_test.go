package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/rinkrivals/game-sync-service/internal/domain/challenges"
)

func seedStore(t *testing.T, list ...challenges.Challenge) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range list {
		if c.CreatedAt.IsZero() {
			c.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		}
		if _, err := s.CreateChallenge(context.Background(), c); err != nil {
			t.Fatalf("create %s: %v", c.ID, err)
		}
	}
	return s
}

func TestCreateChallengeNormalizes(t *testing.T) {
	s := NewMemoryStore()
	c, err := s.CreateChallenge(context.Background(), challenges.Challenge{
		ID:             "c1",
		OwnerID:        "owner",
		GameID:         "g1",
		InvitedUserIDs: []string{"owner", "friend"},
		MaxMembers:     4,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Status != challenges.StatusPending || c.Version != 1 {
		t.Fatalf("expected PENDING v1, got %s v%d", c.Status, c.Version)
	}
	if diff := cmp.Diff([]string{"owner"}, c.MemberIDs); diff != "" {
		t.Fatalf("owner should be a member (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"friend"}, c.InvitedUserIDs); diff != "" {
		t.Fatalf("invitations must be disjoint from members (-want +got):\n%s", diff)
	}

	if _, err := s.CreateChallenge(context.Background(), challenges.Challenge{ID: "c1"}); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestListTrackedGameIDsSkipsTerminal(t *testing.T) {
	s := seedStore(t,
		challenges.Challenge{ID: "a", OwnerID: "o", GameID: "g2"},
		challenges.Challenge{ID: "b", OwnerID: "o", GameID: "g1", Status: challenges.StatusLive},
		challenges.Challenge{ID: "c", OwnerID: "o", GameID: "g2", Status: challenges.StatusActive},
		challenges.Challenge{ID: "d", OwnerID: "o", GameID: "g3", Status: challenges.StatusFinished},
		challenges.Challenge{ID: "e", OwnerID: "o", GameID: "g4", Status: challenges.StatusCancelled},
	)

	ids, err := s.ListTrackedGameIDs(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if diff := cmp.Diff([]string{"g1", "g2"}, ids); diff != "" {
		t.Fatalf("unexpected tracked games (-want +got):\n%s", diff)
	}

	list, err := s.ListChallengesForGame(context.Background(), "g2")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(list) != 2 || list[0].ID != "a" || list[1].ID != "c" {
		t.Fatalf("expected oldest-first challenges for g2, got %+v", list)
	}
}

func TestConditionalSetStatus(t *testing.T) {
	s := seedStore(t, challenges.Challenge{ID: "c1", OwnerID: "o", GameID: "g1"})
	ctx := context.Background()

	ok, err := s.ConditionalSetStatus(ctx, "c1", challenges.StatusActive, challenges.StatusLive)
	if err != nil || ok {
		t.Fatalf("expected mismatch to be rejected, ok=%v err=%v", ok, err)
	}
	ok, err = s.ConditionalSetStatus(ctx, "c1", challenges.StatusPending, challenges.StatusLive)
	if err != nil || !ok {
		t.Fatalf("expected write to apply, ok=%v err=%v", ok, err)
	}

	c, _ := s.GetChallenge(ctx, "c1")
	if c.Status != challenges.StatusLive || c.Version != 2 {
		t.Fatalf("expected LIVE v2, got %s v%d", c.Status, c.Version)
	}

	if _, err := s.ConditionalSetStatus(ctx, "missing", challenges.StatusPending, challenges.StatusLive); !errors.Is(err, challenges.ErrChallengeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestApplyMembershipChangeChecksVersion(t *testing.T) {
	s := seedStore(t, challenges.Challenge{ID: "c1", OwnerID: "o", GameID: "g1", InvitedUserIDs: []string{"u"}})
	ctx := context.Background()

	c, _ := s.GetChallenge(ctx, "c1")
	updated := c.Clone()
	updated.MemberIDs = append(updated.MemberIDs, "u")
	updated.InvitedUserIDs = nil
	updated.TicketIDs["u"] = "t1"
	updated.Status = challenges.StatusActive

	stale, err := s.ApplyMembershipChange(ctx, "c1", c.Version+1, updated)
	if err != nil || stale != nil {
		t.Fatalf("expected version mismatch to return nil, got %+v err=%v", stale, err)
	}

	got, err := s.ApplyMembershipChange(ctx, "c1", c.Version, updated)
	if err != nil || got == nil {
		t.Fatalf("expected write to apply, got %+v err=%v", got, err)
	}
	if got.Version != c.Version+1 || got.Status != challenges.StatusActive || got.TicketIDs["u"] != "t1" {
		t.Fatalf("unexpected stored challenge %+v", got)
	}

	// the old version is now stale
	again, err := s.ApplyMembershipChange(ctx, "c1", c.Version, updated)
	if err != nil || again != nil {
		t.Fatalf("expected stale version to be rejected, got %+v err=%v", again, err)
	}
}

func TestStatusWriteInvalidatesMembershipVersion(t *testing.T) {
	s := seedStore(t, challenges.Challenge{ID: "c1", OwnerID: "o", GameID: "g1"})
	ctx := context.Background()

	c, _ := s.GetChallenge(ctx, "c1")
	if ok, _ := s.ConditionalSetStatus(ctx, "c1", challenges.StatusPending, challenges.StatusLive); !ok {
		t.Fatalf("expected status write")
	}
	if got, _ := s.ApplyMembershipChange(ctx, "c1", c.Version, c); got != nil {
		t.Fatalf("expected membership write against pre-status version to be rejected")
	}
}

func TestGetChallengeReturnsCopy(t *testing.T) {
	s := seedStore(t, challenges.Challenge{ID: "c1", OwnerID: "o", GameID: "g1"})
	ctx := context.Background()

	c, _ := s.GetChallenge(ctx, "c1")
	c.MemberIDs[0] = "mutated"
	c.TicketIDs["x"] = "y"

	again, _ := s.GetChallenge(ctx, "c1")
	if again.MemberIDs[0] != "o" || len(again.TicketIDs) != 0 {
		t.Fatalf("expected store to remain unchanged, got %+v", again)
	}
}

func TestTicketsAndDelete(t *testing.T) {
	s := seedStore(t, challenges.Challenge{ID: "c1", OwnerID: "o", GameID: "g1"})
	ctx := context.Background()

	if _, err := s.GetTicket(ctx, "t1"); !errors.Is(err, challenges.ErrTicketNotFound) {
		t.Fatalf("expected ticket not found, got %v", err)
	}
	_ = s.PutTicket(ctx, challenges.Ticket{ID: "t1", UserID: "u", GameID: "g1"})
	if tk, err := s.GetTicket(ctx, "t1"); err != nil || tk.UserID != "u" {
		t.Fatalf("unexpected ticket %+v err=%v", tk, err)
	}

	if err := s.DeleteChallenge(ctx, "c1"); err != nil {
		t.Fatalf("expected delete, got %v", err)
	}
	if err := s.DeleteChallenge(ctx, "c1"); !errors.Is(err, challenges.ErrChallengeNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestSeed(t *testing.T) {
	s := NewMemoryStore()
	doc := `
tickets:
  - {id: t1, userId: alice, gameId: "2024020001"}
challenges:
  - id: c1
    ownerId: alice
    gameId: "2024020001"
    invited: [bob]
    tickets: {alice: t1}
    maxMembers: 4
  - id: c2
    ownerId: bob
    gameId: "2024020002"
    status: active
    members: [bob, carol]
`
	n, err := s.Seed(context.Background(), strings.NewReader(doc))
	if err != nil || n != 2 {
		t.Fatalf("expected 2 seeded challenges, got %d err=%v", n, err)
	}
	c2, _ := s.GetChallenge(context.Background(), "c2")
	if c2.Status != challenges.StatusActive || c2.MemberCount() != 2 {
		t.Fatalf("unexpected seeded challenge %+v", c2)
	}
	if _, err := s.GetTicket(context.Background(), "t1"); err != nil {
		t.Fatalf("expected seeded ticket, got %v", err)
	}

	bad := "challenges:\n  - {id: c3, ownerId: x, gameId: g, status: nope}\n"
	if _, err := s.Seed(context.Background(), strings.NewReader(bad)); err == nil {
		t.Fatalf("expected invalid status to fail")
	}
}
