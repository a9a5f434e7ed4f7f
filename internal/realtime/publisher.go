package realtime

import (
	"context"
	"log/slog"

	"github.com/rinkrivals/game-sync-service/internal/logging"
	"github.com/rinkrivals/game-sync-service/internal/metrics"
)

type meteredPublisher struct {
	next    Publisher
	metrics *metrics.Recorder
	logger  *slog.Logger
}

// NewMeteredPublisher records every publish attempt and logs failures.
func NewMeteredPublisher(next Publisher, rec *metrics.Recorder, logger *slog.Logger) Publisher {
	return &meteredPublisher{next: next, metrics: rec, logger: logger}
}

func (p *meteredPublisher) Publish(ctx context.Context, ev Event) error {
	err := p.next.Publish(ctx, ev)
	p.metrics.RecordEventPublished(string(ev.Type), err)
	if err != nil {
		logging.Warn(logging.FromContext(ctx, p.logger), "event publish failed", err,
			logging.FieldChallengeID, ev.ChallengeID,
			logging.FieldEventType, string(ev.Type),
		)
	}
	return err
}
