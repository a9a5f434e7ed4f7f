package providers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rinkrivals/game-sync-service/internal/domain/games"
)

// spacedSource wraps a GameSource and keeps at least gap between consecutive upstream calls.
type spacedSource struct {
	next   GameSource
	gap    time.Duration
	clock  clockwork.Clock
	logger *slog.Logger
	name   string

	mu   sync.Mutex
	last time.Time
}

// NewSpacedSource returns a GameSource that spaces calls by gap. Calls block until their slot arrives.
// A non-positive gap disables spacing and returns next unchanged.
func NewSpacedSource(next GameSource, gap time.Duration, clock clockwork.Clock, logger *slog.Logger, name string) GameSource {
	if gap <= 0 {
		return next
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &spacedSource{
		next:   next,
		gap:    gap,
		clock:  clock,
		logger: logger,
		name:   name,
	}
}

func (p *spacedSource) FetchSchedule(ctx context.Context) ([]games.ScheduleDay, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	return p.next.FetchSchedule(ctx)
}

func (p *spacedSource) FetchGame(ctx context.Context, gameID string) (*games.Record, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	return p.next.FetchGame(ctx, gameID)
}

// wait reserves the next slot and blocks until it arrives.
func (p *spacedSource) wait(ctx context.Context) error {
	if p.next == nil {
		logWithSource(ctx, p.logger, slog.LevelWarn, p.name, "provider unavailable")
		return ErrProviderUnavailable
	}

	p.mu.Lock()
	now := p.clock.Now()
	slot := now
	if !p.last.IsZero() {
		if earliest := p.last.Add(p.gap); earliest.After(now) {
			slot = earliest
		}
	}
	p.last = slot
	p.mu.Unlock()

	delay := slot.Sub(now)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := p.clock.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		logWithSource(ctx, p.logger, slog.LevelDebug, p.name, "spaced fetch canceled")
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}
