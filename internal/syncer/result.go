package syncer

import (
	"time"

	"github.com/rinkrivals/game-sync-service/internal/domain/challenges"
)

// Transition is one applied status change.
type Transition struct {
	ChallengeID string            `json:"challengeId"`
	GameID      string            `json:"gameId"`
	From        challenges.Status `json:"from"`
	To          challenges.Status `json:"to"`
}

// CycleResult describes one sync pass.
type CycleResult struct {
	Transitions     []Transition  `json:"transitions"`
	GamesChecked    int           `json:"gamesChecked"`
	GamesUnresolved int           `json:"gamesUnresolved"`
	GameErrors      int           `json:"gameErrors"`
	Conflicts       int           `json:"conflicts"`
	PublishFailures int           `json:"publishFailures"`
	StartedAt       time.Time     `json:"startedAt"`
	Duration        time.Duration `json:"durationNs"`
}

// Summary drops the per-transition detail.
func (r CycleResult) Summary() CycleSummary {
	return CycleSummary{
		Transitions:     len(r.Transitions),
		GamesChecked:    r.GamesChecked,
		GamesUnresolved: r.GamesUnresolved,
		GameErrors:      r.GameErrors,
		Conflicts:       r.Conflicts,
		PublishFailures: r.PublishFailures,
		Duration:        r.Duration,
	}
}

// CycleSummary is the counters of a CycleResult.
type CycleSummary struct {
	Transitions     int           `json:"transitions"`
	GamesChecked    int           `json:"gamesChecked"`
	GamesUnresolved int           `json:"gamesUnresolved"`
	GameErrors      int           `json:"gameErrors"`
	Conflicts       int           `json:"conflicts"`
	PublishFailures int           `json:"publishFailures"`
	Duration        time.Duration `json:"durationNs"`
}

// Status describes the recent health of the scheduler loop.
type Status struct {
	ConsecutiveFailures int          `json:"consecutiveFailures"`
	LastError           string       `json:"lastError,omitempty"`
	LastAttempt         time.Time    `json:"lastAttempt"`
	LastSuccess         time.Time    `json:"lastSuccess"`
	LastResult          CycleSummary `json:"lastResult"`
	Running             bool         `json:"running"`
}

// IsReady reports whether a cycle has succeeded and the loop is not failing repeatedly.
func (s Status) IsReady() bool {
	if s.LastSuccess.IsZero() {
		return false
	}
	return s.ConsecutiveFailures < unhealthyAfter
}

type gameOutcome struct {
	transitions     []Transition
	unresolved      bool
	errors          int
	conflicts       int
	publishFailures int
}

func (r *CycleResult) merge(out gameOutcome) {
	r.Transitions = append(r.Transitions, out.transitions...)
	if out.unresolved {
		r.GamesUnresolved++
	}
	r.GameErrors += out.errors
	r.Conflicts += out.conflicts
	r.PublishFailures += out.publishFailures
}
