package metrics

import (
	"sync"
	"time"
)

type sourceStats struct {
	calls           int
	errors          int
	rateLimitHits   int
	lastRetryAfter  time.Duration
	lastCallLatency time.Duration
}

// Recorder captures lightweight, in-memory metrics and forwards them to otel instruments when configured.
// A nil Recorder is valid and records nothing.
type Recorder struct {
	mu       sync.Mutex
	sources  map[string]*sourceStats
	lookups  map[string]int
	counters map[string]int
	otel     *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		sources:  make(map[string]*sourceStats),
		lookups:  make(map[string]int),
		counters: make(map[string]int),
		otel:     otel,
	}
}

// RecordUpstreamAttempt increments counters for an upstream call and stores the last observed latency.
func (r *Recorder) RecordUpstreamAttempt(source string, duration time.Duration, err error) {
	if r == nil {
		return
	}

	r.mu.Lock()
	stats := r.ensureSource(source)
	stats.calls++
	stats.lastCallLatency = duration
	if err != nil {
		stats.errors++
	}
	r.mu.Unlock()

	r.otel.recordUpstreamAttempt(source, duration, err)
}

// RecordRateLimit tracks that an upstream response hit a rate limit and stores the last Retry-After.
func (r *Recorder) RecordRateLimit(source string, retryAfter time.Duration) {
	if r == nil {
		return
	}

	r.mu.Lock()
	stats := r.ensureSource(source)
	stats.rateLimitHits++
	if retryAfter > 0 {
		stats.lastRetryAfter = retryAfter
	}
	r.mu.Unlock()

	r.otel.recordRateLimit(source, retryAfter)
}

// Snapshot is a copy of the stats for one upstream source.
type Snapshot struct {
	Calls           int
	Errors          int
	RateLimitHits   int
	LastRetryAfter  time.Duration
	LastCallLatency time.Duration
}

// Snapshot returns a copy of the current stats for the source.
func (r *Recorder) Snapshot(source string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.sources[source]
	if !ok {
		return Snapshot{}
	}
	return Snapshot{
		Calls:           stats.calls,
		Errors:          stats.errors,
		RateLimitHits:   stats.rateLimitHits,
		LastRetryAfter:  stats.lastRetryAfter,
		LastCallLatency: stats.lastCallLatency,
	}
}

// RecordStatusLookup counts a game status resolution by outcome (cache_hit, schedule, direct, unresolved).
func (r *Recorder) RecordStatusLookup(outcome string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.lookups[outcome]++
	r.mu.Unlock()

	r.otel.recordStatusLookup(outcome)
}

// StatusLookups returns how many lookups ended with the outcome.
func (r *Recorder) StatusLookups(outcome string) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookups[outcome]
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	r.incr("http:" + path)
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// HTTPRequests returns how many requests were served for a route pattern.
func (r *Recorder) HTTPRequests(path string) int { return r.counter("http:" + path) }

// RecordSyncCycle tracks scheduler cycles, their latency, and how many challenges errored inside the cycle.
func (r *Recorder) RecordSyncCycle(duration time.Duration, challengeErrors int, err error) {
	if r == nil {
		return
	}
	r.incr("sync_cycles")
	if err != nil {
		r.incr("sync_failures")
	}
	r.otel.recordSyncCycle(duration, challengeErrors, err)
}

// RecordSyncSkipped counts a tick that fired while a cycle was still running.
func (r *Recorder) RecordSyncSkipped() {
	if r == nil {
		return
	}
	r.incr("sync_skipped")
	r.otel.recordSyncSkipped()
}

// RecordTransition counts a persisted challenge status change.
func (r *Recorder) RecordTransition(from, to string) {
	if r == nil {
		return
	}
	r.incr("transition:" + from + ">" + to)
	r.otel.recordTransition(from, to)
}

// RecordConflict counts a lost optimistic write (status CAS or membership version).
func (r *Recorder) RecordConflict(operation string) {
	if r == nil {
		return
	}
	r.incr("conflict:" + operation)
	r.otel.recordConflict(operation)
}

// RecordEventPublished counts a realtime event publish attempt.
func (r *Recorder) RecordEventPublished(eventType string, err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.incr("events_failed")
	} else {
		r.incr("events_published")
	}
	r.otel.recordEvent(eventType, err)
}

// SyncCycles returns the number of completed sync cycles.
func (r *Recorder) SyncCycles() int { return r.counter("sync_cycles") }

// SyncSkipped returns the number of ticks skipped because a cycle was running.
func (r *Recorder) SyncSkipped() int { return r.counter("sync_skipped") }

// Transitions returns how many from->to status changes were recorded.
func (r *Recorder) Transitions(from, to string) int {
	return r.counter("transition:" + from + ">" + to)
}

// Conflicts returns how many conflicts were recorded for the operation.
func (r *Recorder) Conflicts(operation string) int { return r.counter("conflict:" + operation) }

// EventsPublished returns the number of successfully published events.
func (r *Recorder) EventsPublished() int { return r.counter("events_published") }

// EventsFailed returns the number of events that failed to publish.
func (r *Recorder) EventsFailed() int { return r.counter("events_failed") }

func (r *Recorder) incr(key string) {
	r.mu.Lock()
	r.counters[key]++
	r.mu.Unlock()
}

func (r *Recorder) counter(key string) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[key]
}

// ensureSource must be called with mu held.
func (r *Recorder) ensureSource(source string) *sourceStats {
	stats, ok := r.sources[source]
	if !ok {
		stats = &sourceStats{}
		r.sources[source] = stats
	}
	return stats
}
