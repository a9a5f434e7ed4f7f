// Package gamestatus resolves the current phase of a game from the upstream and caches it briefly.
package gamestatus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/rinkrivals/game-sync-service/internal/domain/games"
	"github.com/rinkrivals/game-sync-service/internal/logging"
	"github.com/rinkrivals/game-sync-service/internal/metrics"
	"github.com/rinkrivals/game-sync-service/internal/providers"
)

// DefaultTTL is how long a resolved status is served from cache.
const DefaultTTL = 30 * time.Second

// DefaultLookupTimeout bounds one shared upstream lookup.
const DefaultLookupTimeout = 30 * time.Second

const scheduleKey = "\x00schedule"

// Provider answers "what phase is game X in?" with a TTL cache in front of the upstream.
// Lookups try the rolling schedule first and fall back to the direct game lookup.
// Failures are logged and reported as nil; they never surface as errors.
type Provider struct {
	source        providers.GameSource
	clock         clockwork.Clock
	ttl           time.Duration
	lookupTimeout time.Duration
	logger        *slog.Logger
	metrics       *metrics.Recorder

	mu      sync.RWMutex
	entries map[string]games.Status

	lookups  singleflight.Group
	schedule singleflight.Group
}

// Option configures a Provider.
type Option func(*Provider)

// WithClock overrides the clock used for TTL checks and FetchedAt.
func WithClock(clock clockwork.Clock) Option {
	return func(p *Provider) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithLookupTimeout overrides DefaultLookupTimeout. Non-positive values are ignored.
func WithLookupTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.lookupTimeout = d
		}
	}
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) { p.logger = logger }
}

// WithMetrics records lookup outcomes.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(p *Provider) { p.metrics = rec }
}

// New builds a Provider over source.
func New(source providers.GameSource, opts ...Option) *Provider {
	p := &Provider{
		source:        source,
		clock:         clockwork.NewRealClock(),
		ttl:           DefaultTTL,
		lookupTimeout: DefaultLookupTimeout,
		entries:       make(map[string]games.Status),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetStatus returns the status of gameID, or nil when it cannot be resolved right now.
// Concurrent misses for the same id share one upstream lookup. The shared lookup
// is detached from the caller that started it, so a caller giving up early does
// not fail the others; it is bounded by the lookup timeout instead.
func (p *Provider) GetStatus(ctx context.Context, gameID string) *games.Status {
	if gameID == "" {
		return nil
	}
	if st, ok := p.cached(gameID); ok {
		p.metrics.RecordStatusLookup(metrics.LookupCacheHit)
		return &st
	}

	v, _, _ := p.lookups.Do(gameID, func() (any, error) {
		if st, ok := p.cached(gameID); ok {
			return &st, nil
		}
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.lookupTimeout)
		defer cancel()
		st, outcome := p.resolve(lookupCtx, gameID)
		p.metrics.RecordStatusLookup(outcome)
		if st == nil {
			p.drop(gameID)
			return nil, nil
		}
		p.put(*st)
		return st, nil
	})

	st, _ := v.(*games.Status)
	if st == nil {
		return nil
	}
	out := *st
	return &out
}

// Invalidate drops the cached entry for gameID.
func (p *Provider) Invalidate(gameID string) {
	p.drop(gameID)
}

// InvalidateAll empties the cache.
func (p *Provider) InvalidateAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = make(map[string]games.Status)
}

func (p *Provider) resolve(ctx context.Context, gameID string) (*games.Status, string) {
	logger := logging.FromContext(ctx, p.logger)
	if p.source == nil {
		logging.Warn(logger, "game status unresolved", providers.ErrProviderUnavailable, logging.FieldGameID, gameID)
		return nil, metrics.LookupUnresolved
	}

	days, err := p.fetchSchedule(ctx)
	if err != nil {
		logging.Warn(logger, "schedule lookup failed", err, logging.FieldGameID, gameID)
	} else if rec, ok := games.FindRecord(days, gameID); ok {
		st := games.NewStatus(gameID, rec, p.clock.Now())
		return &st, metrics.LookupSchedule
	}

	rec, err := p.source.FetchGame(ctx, gameID)
	if err != nil || rec == nil {
		logging.Warn(logger, "direct game lookup failed", err, logging.FieldGameID, gameID)
		return nil, metrics.LookupUnresolved
	}
	st := games.NewStatus(gameID, *rec, p.clock.Now())
	return &st, metrics.LookupDirect
}

// fetchSchedule collapses concurrent schedule downloads triggered by misses on different games.
// ctx is the detached lookup context, never a request context.
func (p *Provider) fetchSchedule(ctx context.Context) ([]games.ScheduleDay, error) {
	v, err, _ := p.schedule.Do(scheduleKey, func() (any, error) {
		return p.source.FetchSchedule(ctx)
	})
	if err != nil {
		return nil, err
	}
	days, _ := v.([]games.ScheduleDay)
	return days, nil
}

func (p *Provider) cached(gameID string) (games.Status, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	st, ok := p.entries[gameID]
	if !ok {
		return games.Status{}, false
	}
	if p.clock.Since(st.FetchedAt) >= p.ttl {
		return games.Status{}, false
	}
	return st, true
}

func (p *Provider) put(st games.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[st.GameID] = st
}

func (p *Provider) drop(gameID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, gameID)
}
