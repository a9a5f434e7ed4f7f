package server

import (
	"context"

	"github.com/rinkrivals/game-sync-service/internal/syncer"
)

// Scheduler defines the sync loop behavior needed by the server.
type Scheduler interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
	Status() syncer.Status
	TriggerNow(ctx context.Context) (syncer.CycleResult, error)
}
