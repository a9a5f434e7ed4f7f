package providers

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rinkrivals/game-sync-service/internal/domain/games"
	"github.com/rinkrivals/game-sync-service/internal/metrics"
)

type flakeySource struct {
	failures int
	err      error
	calls    int
}

func (f *flakeySource) fail() error {
	f.calls++
	if f.calls <= f.failures {
		if f.err != nil {
			return f.err
		}
		return errors.New("boom")
	}
	return nil
}

func (f *flakeySource) FetchSchedule(ctx context.Context) ([]games.ScheduleDay, error) {
	_ = ctx
	if err := f.fail(); err != nil {
		return nil, err
	}
	return []games.ScheduleDay{{Date: "2024-01-01", Games: []games.Record{{ID: "ok"}}}}, nil
}

func (f *flakeySource) FetchGame(ctx context.Context, gameID string) (*games.Record, error) {
	_ = ctx
	if err := f.fail(); err != nil {
		return nil, err
	}
	return &games.Record{ID: gameID}, nil
}

func newTestRetrying(inner GameSource, rec *metrics.Recorder, maxRetries int) *retryingSource {
	rs := NewRetryingSource(inner, nil, rec, "flakey", maxRetries, time.Millisecond).(*retryingSource)
	rs.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return rs
}

func TestRetryingSourceRetriesAndSucceeds(t *testing.T) {
	fs := &flakeySource{failures: 2}
	rs := NewRetryingSource(fs, slog.Default(), metrics.NewRecorder(), "flakey", 2, time.Millisecond)

	days, err := rs.FetchSchedule(context.Background())
	if err != nil {
		t.Fatalf("expected success, got error %v", err)
	}
	if len(days) != 1 || days[0].Games[0].ID != "ok" {
		t.Fatalf("unexpected schedule %+v", days)
	}
	if fs.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", fs.calls)
	}
}

func TestRetryingSourceStopsAfterMaxRetries(t *testing.T) {
	fs := &flakeySource{failures: 5}
	rec := metrics.NewRecorder()
	rs := newTestRetrying(fs, rec, 1)

	if _, err := rs.FetchGame(context.Background(), "42"); err == nil {
		t.Fatal("expected error after retries")
	}
	if fs.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", fs.calls)
	}
	snap := rec.Snapshot("flakey")
	if snap.Calls != 2 || snap.Errors != 2 {
		t.Fatalf("unexpected metrics %+v", snap)
	}
}

func TestRetryingSourceDoesNotRetryFinalErrors(t *testing.T) {
	cases := []error{
		ErrGameNotFound,
		&StatusError{Provider: "nhl", StatusCode: 404},
		&RateLimitError{Provider: "nhl", StatusCode: 429, RetryAfter: time.Minute},
		&RateLimitError{Provider: "nhl", StatusCode: 429},
	}
	for _, want := range cases {
		fs := &flakeySource{failures: 5, err: want}
		rec := metrics.NewRecorder()
		rs := newTestRetrying(fs, rec, 3)

		_, err := rs.FetchGame(context.Background(), "42")
		if !errors.Is(err, want) {
			t.Fatalf("expected %v to be returned unchanged, got %v", want, err)
		}
		if fs.calls != 1 {
			t.Fatalf("expected a single attempt for %v, got %d", want, fs.calls)
		}
	}
}

func TestRetryingSourceRecordsRateLimitMetrics(t *testing.T) {
	fs := &flakeySource{failures: 1, err: &RateLimitError{Provider: "nhl", StatusCode: 429, RetryAfter: 30 * time.Second}}
	rec := metrics.NewRecorder()
	rs := newTestRetrying(fs, rec, 2)

	if _, err := rs.FetchSchedule(context.Background()); err == nil {
		t.Fatal("expected rate limit error")
	}
	snap := rec.Snapshot("flakey")
	if snap.RateLimitHits != 1 || snap.LastRetryAfter != 30*time.Second {
		t.Fatalf("unexpected rate limit metrics %+v", snap)
	}
}

func TestRetryingSourceWaitsOutShortRetryAfterOnce(t *testing.T) {
	limited := &RateLimitError{Provider: "nhl", StatusCode: 429, RetryAfter: 2 * time.Second}
	fs := &flakeySource{failures: 1, err: limited}
	rs := newTestRetrying(fs, metrics.NewRecorder(), 3)
	var waited []time.Duration
	rs.wait = func(ctx context.Context, d time.Duration) error {
		waited = append(waited, d)
		return nil
	}

	if _, err := rs.FetchGame(context.Background(), "42"); err != nil {
		t.Fatalf("expected success after waiting out rate limit, got %v", err)
	}
	if fs.calls != 2 || len(waited) != 1 || waited[0] != 2*time.Second {
		t.Fatalf("expected one wait of 2s and 2 attempts, got waits=%v calls=%d", waited, fs.calls)
	}

	fs = &flakeySource{failures: 5, err: limited}
	rs = newTestRetrying(fs, metrics.NewRecorder(), 3)
	waited = nil
	rs.wait = func(ctx context.Context, d time.Duration) error {
		waited = append(waited, d)
		return nil
	}
	if _, err := rs.FetchGame(context.Background(), "42"); !errors.Is(err, limited) {
		t.Fatalf("expected rate limit error after second limit, got %v", err)
	}
	if fs.calls != 2 || len(waited) != 1 {
		t.Fatalf("expected a single wait before giving up, got waits=%v calls=%d", waited, fs.calls)
	}
}

func TestRetryingSourceRateLimitWaitHonorsContext(t *testing.T) {
	fs := &flakeySource{failures: 5, err: &RateLimitError{Provider: "nhl", StatusCode: 429, RetryAfter: time.Second}}
	rs := newTestRetrying(fs, metrics.NewRecorder(), 3)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := rs.FetchGame(ctx, "42"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while waiting, got %v", err)
	}
	if fs.calls != 1 {
		t.Fatalf("expected no second attempt, got %d calls", fs.calls)
	}
}

func TestRetryingSourceRespectsContextCancel(t *testing.T) {
	fs := &flakeySource{failures: 5}
	rs := NewRetryingSource(fs, nil, metrics.NewRecorder(), "flakey", 3, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rs.FetchSchedule(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if fs.calls != 1 {
		t.Fatalf("expected no retries after cancel, got %d calls", fs.calls)
	}
}

func TestRetryingSourceHandlesNilInner(t *testing.T) {
	rs := NewRetryingSource(nil, nil, nil, "", 0, 0).(*retryingSource)
	if rs.name != "provider" || rs.maxRetries != defaultMaxRetries {
		t.Fatalf("expected defaults, got name=%s retries=%d", rs.name, rs.maxRetries)
	}
	if _, err := rs.FetchSchedule(context.Background()); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}
