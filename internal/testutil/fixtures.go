package testutil

import (
	"time"

	"github.com/rinkrivals/game-sync-service/internal/domain/challenges"
	"github.com/rinkrivals/game-sync-service/internal/domain/games"
)

// SampleStatus returns a game status in the given upstream state, starting an hour after now.
func SampleStatus(gameID, state string, now time.Time) games.Status {
	return games.NewStatus(gameID, games.Record{
		ID:           gameID,
		GameState:    state,
		StartTimeUTC: now.Add(time.Hour).UTC().Format(time.RFC3339),
	}, now)
}

// SampleChallenge returns a challenge owned by "owner" with the given extra members.
func SampleChallenge(id, gameID string, status challenges.Status, members ...string) challenges.Challenge {
	ids := append([]string{"owner"}, members...)
	tickets := make(map[string]string, len(ids))
	for _, m := range ids {
		tickets[m] = "ticket-" + id + "-" + m
	}
	return challenges.Challenge{
		ID:         id,
		OwnerID:    "owner",
		GameID:     gameID,
		Status:     status,
		MemberIDs:  ids,
		TicketIDs:  tickets,
		MaxMembers: 8,
	}
}
