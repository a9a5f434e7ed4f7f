package providers

import (
	"context"

	"github.com/rinkrivals/game-sync-service/internal/domain/games"
)

// GameSource defines how upstream game data is fetched.
// FetchSchedule returns the rolling window of date buckets the upstream currently publishes.
// FetchGame looks a single game up directly and returns ErrGameNotFound when the upstream has no usable body for it.
type GameSource interface {
	FetchSchedule(ctx context.Context) ([]games.ScheduleDay, error)
	FetchGame(ctx context.Context, gameID string) (*games.Record, error)
}
