package providers

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rinkrivals/game-sync-service/internal/domain/games"
	"github.com/rinkrivals/game-sync-service/internal/logging"
	"github.com/rinkrivals/game-sync-service/internal/metrics"
)

const (
	defaultMaxRetries     = 2
	defaultInitialBackoff = 200 * time.Millisecond
	defaultMaxBackoff     = 2 * time.Second
	// Longer Retry-After hints fail the call; the next sync cycle tries again.
	maxRateLimitWait = 5 * time.Second
)

// retryingSource wraps a GameSource with exponential backoff and records every attempt.
type retryingSource struct {
	inner      GameSource
	logger     *slog.Logger
	metrics    *metrics.Recorder
	name       string
	maxRetries int
	newBackOff func() backoff.BackOff
	wait       func(ctx context.Context, d time.Duration) error
}

// NewRetryingSource wraps inner with retries. maxRetries counts retries after the first attempt;
// non-positive values fall back to defaults. Errors that IsRetryable rejects are returned immediately,
// except a rate limit with a short Retry-After, which is waited out and retried once.
func NewRetryingSource(inner GameSource, logger *slog.Logger, recorder *metrics.Recorder, name string, maxRetries int, initial time.Duration) GameSource {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if initial <= 0 {
		initial = defaultInitialBackoff
	}
	if name == "" {
		name = "provider"
	}
	return &retryingSource{
		inner:      inner,
		logger:     logger,
		metrics:    recorder,
		name:       name,
		maxRetries: maxRetries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = initial
			b.MaxInterval = defaultMaxBackoff
			return b
		},
		wait: sleepContext,
	}
}

func (r *retryingSource) FetchSchedule(ctx context.Context) ([]games.ScheduleDay, error) {
	var days []games.ScheduleDay
	err := r.do(ctx, "schedule", func(ctx context.Context) error {
		out, err := r.inner.FetchSchedule(ctx)
		if err == nil {
			days = out
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return days, nil
}

func (r *retryingSource) FetchGame(ctx context.Context, gameID string) (*games.Record, error) {
	var rec *games.Record
	err := r.do(ctx, "game", func(ctx context.Context) error {
		out, err := r.inner.FetchGame(ctx, gameID)
		if err == nil {
			rec = out
		}
		return err
	}, slog.String(logging.FieldGameID, gameID))
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *retryingSource) do(ctx context.Context, op string, fn func(context.Context) error, args ...any) error {
	if r.inner == nil {
		return ErrProviderUnavailable
	}

	attempt := 0
	waitedOnLimit := false
	operation := func() error {
		attempt++
		start := time.Now()
		err := fn(ctx)
		r.metrics.RecordUpstreamAttempt(r.name, time.Since(start), err)
		if err == nil {
			return nil
		}
		if rlErr, ok := AsRateLimitError(err); ok {
			r.metrics.RecordRateLimit(r.name, rlErr.RetryAfter)
			if waitedOnLimit || rlErr.RetryAfter <= 0 || rlErr.RetryAfter > maxRateLimitWait {
				return backoff.Permanent(err)
			}
			waitedOnLimit = true
			logWithSource(ctx, r.logger, slog.LevelWarn, r.name, "upstream rate limited, waiting",
				append(args, "operation", op, "retry_after_ms", rlErr.RetryAfter.Milliseconds())...)
			if werr := r.wait(ctx, rlErr.RetryAfter); werr != nil {
				return backoff.Permanent(werr)
			}
			return err
		}
		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		logWithSource(ctx, r.logger, slog.LevelWarn, r.name, "upstream fetch retry",
			append(args, "operation", op, "attempt", attempt, "max_retries", r.maxRetries, "delay_ms", delay.Milliseconds(), "err", err)...)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), uint64(r.maxRetries)), ctx)
	err := backoff.RetryNotify(operation, policy, notify)
	if err != nil {
		logWithSource(ctx, r.logger, slog.LevelWarn, r.name, "upstream fetch failed",
			append(args, "operation", op, "attempts", attempt, "err", err)...)
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
