// Package syncer runs the periodic game-status sync that advances challenge lifecycles.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/rinkrivals/game-sync-service/internal/domain/challenges"
	"github.com/rinkrivals/game-sync-service/internal/domain/games"
	"github.com/rinkrivals/game-sync-service/internal/logging"
	"github.com/rinkrivals/game-sync-service/internal/metrics"
	"github.com/rinkrivals/game-sync-service/internal/realtime"
)

const (
	defaultInterval    = time.Minute
	defaultConcurrency = 4
	unhealthyAfter     = 3
)

// ErrCycleRunning is returned when a cycle is requested while another one is in flight.
var ErrCycleRunning = errors.New("sync cycle already running")

// StatusSource resolves the current phase of a game. A nil result means unresolved.
type StatusSource interface {
	GetStatus(ctx context.Context, gameID string) *games.Status
}

// Scheduler checks every tracked game on an interval and applies lifecycle transitions.
type Scheduler struct {
	store       challenges.Store
	statuses    StatusSource
	publisher   realtime.Publisher
	logger      *slog.Logger
	metrics     *metrics.Recorder
	clock       clockwork.Clock
	interval    time.Duration
	concurrency int

	running atomic.Bool

	startMu  sync.Mutex
	started  bool
	done     chan struct{}
	loopDone chan struct{}
	stopOnce sync.Once

	statusMu sync.RWMutex
	status   Status
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock injects the clock used for ticking and timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithInterval sets the period between cycles. Non-positive values keep the default.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithConcurrency bounds how many games are checked at once.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(s *Scheduler) { s.metrics = rec }
}

// New constructs a Scheduler with sane defaults.
func New(store challenges.Store, statuses StatusSource, publisher realtime.Publisher, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:       store,
		statuses:    statuses,
		publisher:   publisher,
		clock:       clockwork.NewRealClock(),
		interval:    defaultInterval,
		concurrency: defaultConcurrency,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the configured period.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Start runs an initial cycle and then one per interval until ctx is cancelled or Stop is called.
// Cancelling ctx stops new cycles but does not cancel one already running.
// A tick that fires while a cycle is still running is skipped.
func (s *Scheduler) Start(ctx context.Context) {
	s.startMu.Lock()
	if s.started {
		s.startMu.Unlock()
		return
	}
	s.started = true
	s.loopDone = make(chan struct{})
	s.startMu.Unlock()

	ticker := s.clock.NewTicker(s.interval)
	// ctx only stops ticking; an in-flight cycle runs to completion and Stop bounds the wait.
	cycleCtx := context.WithoutCancel(ctx)

	go func() {
		defer close(s.loopDone)
		defer ticker.Stop()

		var inflight sync.WaitGroup
		defer inflight.Wait()

		tick := func() {
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				s.tick(cycleCtx)
			}()
		}

		logging.Info(s.logger, "sync scheduler started", logging.FieldDurationMS, s.interval.Milliseconds())
		tick()
		for {
			select {
			case <-ctx.Done():
				logging.Info(s.logger, "sync scheduler stopped")
				return
			case <-s.done:
				logging.Info(s.logger, "sync scheduler stopped")
				return
			case <-ticker.Chan():
				tick()
			}
		}
	}()
}

// Stop halts ticking and waits for an in-flight cycle to finish, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.done) })

	s.startMu.Lock()
	loopDone := s.loopDone
	s.startMu.Unlock()
	if loopDone == nil {
		return nil
	}
	select {
	case <-loopDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TriggerNow runs a cycle immediately. It returns ErrCycleRunning when one is already in flight.
func (s *Scheduler) TriggerNow(ctx context.Context) (CycleResult, error) {
	return s.RunCycle(ctx)
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.RunCycle(ctx); errors.Is(err, ErrCycleRunning) {
		logging.Debug(s.logger, "sync tick skipped, previous cycle still running")
	}
}

// RunCycle performs one full pass over the tracked games.
// Only a failure to list tracked games aborts the cycle; everything else is isolated per game.
func (s *Scheduler) RunCycle(ctx context.Context) (CycleResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.metrics.RecordSyncSkipped()
		return CycleResult{}, ErrCycleRunning
	}
	defer s.running.Store(false)

	start := s.clock.Now()
	result := CycleResult{StartedAt: start}
	s.recordAttempt(start)

	gameIDs, err := s.store.ListTrackedGameIDs(ctx)
	if err != nil {
		err = fmt.Errorf("list tracked games: %w", err)
		result.Duration = s.clock.Since(start)
		s.metrics.RecordSyncCycle(result.Duration, 0, err)
		logging.Error(s.logger, "sync cycle aborted", err, logging.FieldDurationMS, result.Duration.Milliseconds())
		s.recordFailure(err, result)
		return result, err
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, gameID := range gameIDs {
		g.Go(func() error {
			out := s.syncGame(ctx, gameID)
			mu.Lock()
			result.merge(out)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	result.GamesChecked = len(gameIDs)
	result.Duration = s.clock.Since(start)
	s.metrics.RecordSyncCycle(result.Duration, result.GameErrors, nil)
	s.recordSuccess(result)

	logging.Info(s.logger, "sync cycle complete",
		logging.FieldCount, len(result.Transitions),
		"games", result.GamesChecked,
		"unresolved", result.GamesUnresolved,
		"conflicts", result.Conflicts,
		logging.FieldDurationMS, result.Duration.Milliseconds(),
	)
	return result, nil
}

func (s *Scheduler) syncGame(ctx context.Context, gameID string) gameOutcome {
	var out gameOutcome
	logger := s.logger
	if logger != nil {
		logger = logger.With(logging.FieldGameID, gameID)
	}

	status := s.statuses.GetStatus(ctx, gameID)
	if status == nil {
		out.unresolved = true
		logging.Debug(logger, "game status unresolved, challenges left unchanged")
		return out
	}

	list, err := s.store.ListChallengesForGame(ctx, gameID)
	if err != nil {
		out.errors++
		logging.Warn(logger, "listing challenges for game failed", err)
		return out
	}

	for _, c := range list {
		next := challenges.NextStatus(c.Status, status, c.MemberCount())
		if next == c.Status {
			continue
		}
		applied, err := s.store.ConditionalSetStatus(ctx, c.ID, c.Status, next)
		if err != nil {
			out.errors++
			logging.Warn(logger, "challenge status update failed", err, logging.FieldChallengeID, c.ID)
			continue
		}
		if !applied {
			out.conflicts++
			s.metrics.RecordConflict("status")
			logging.Debug(logger, "challenge changed underneath sync, skipping",
				logging.FieldChallengeID, c.ID,
				logging.FieldFromStatus, string(c.Status),
			)
			continue
		}

		out.transitions = append(out.transitions, Transition{
			ChallengeID: c.ID,
			GameID:      gameID,
			From:        c.Status,
			To:          next,
		})
		s.metrics.RecordTransition(string(c.Status), string(next))
		logging.Info(logger, "challenge status advanced",
			logging.FieldChallengeID, c.ID,
			logging.FieldFromStatus, string(c.Status),
			logging.FieldToStatus, string(next),
		)

		if s.publisher == nil {
			continue
		}
		if err := s.publisher.Publish(ctx, realtime.StatusChanged(c.ID, string(c.Status), string(next))); err != nil {
			out.publishFailures++
			logging.Warn(logger, "status change publish failed", err, logging.FieldChallengeID, c.ID)
		}
	}
	return out
}

func (s *Scheduler) recordAttempt(at time.Time) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.LastAttempt = at
}

func (s *Scheduler) recordSuccess(result CycleResult) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.ConsecutiveFailures = 0
	s.status.LastError = ""
	s.status.LastSuccess = result.StartedAt
	s.status.LastResult = result.Summary()
}

func (s *Scheduler) recordFailure(err error, result CycleResult) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.ConsecutiveFailures++
	if err != nil {
		s.status.LastError = err.Error()
	}
	s.status.LastAttempt = result.StartedAt
}

// Status returns a snapshot of the scheduler's recent health.
func (s *Scheduler) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	out := s.status
	out.Running = s.running.Load()
	return out
}
