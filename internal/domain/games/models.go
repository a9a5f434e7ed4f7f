package games

import (
	"strings"
	"time"

	"github.com/rinkrivals/game-sync-service/internal/timeutil"
)

// Raw upstream game state codes.
const (
	StateLive      = "LIVE"
	StateCritical  = "CRIT"
	StatePregame   = "PRE"
	StateFuture    = "FUT"
	StateScheduled = "SCHEDULED"
	StateOff       = "OFF"
	StateFinal     = "FINAL"
)

const (
	defaultGameState     = StateFuture
	defaultScheduleState = "OK"
)

// Record is a game as the upstream reports it, before defaults are applied.
type Record struct {
	ID                string `json:"id" yaml:"id"`
	GameState         string `json:"gameState" yaml:"gameState"`
	GameScheduleState string `json:"gameScheduleState" yaml:"gameScheduleState"`
	StartTimeUTC      string `json:"startTimeUTC" yaml:"startTimeUTC"`
}

// Status is the derived phase of a single game. It is cached, never persisted.
type Status struct {
	GameID            string    `json:"gameId"`
	GameState         string    `json:"gameState"`
	GameScheduleState string    `json:"gameScheduleState"`
	StartTimeUTC      string    `json:"startTimeUTC"`
	IsLive            bool      `json:"isLive"`
	IsFinished        bool      `json:"isFinished"`
	IsScheduled       bool      `json:"isScheduled"`
	FetchedAt         time.Time `json:"fetchedAt"`
}

// NewStatus builds a Status from an upstream record. Blank fields fall back to FUT, OK and now.
func NewStatus(gameID string, rec Record, now time.Time) Status {
	state := strings.TrimSpace(rec.GameState)
	if state == "" {
		state = defaultGameState
	}
	scheduleState := strings.TrimSpace(rec.GameScheduleState)
	if scheduleState == "" {
		scheduleState = defaultScheduleState
	}
	start := strings.TrimSpace(rec.StartTimeUTC)
	if start == "" {
		start = timeutil.FormatTimestamp(now)
	}
	return Status{
		GameID:            gameID,
		GameState:         state,
		GameScheduleState: scheduleState,
		StartTimeUTC:      start,
		IsLive:            IsLive(state),
		IsFinished:        IsFinished(state),
		IsScheduled:       IsScheduled(state),
		FetchedAt:         now,
	}
}

// IsLive reports whether the state code means the game is underway (or about to be).
func IsLive(state string) bool {
	switch normalize(state) {
	case StateLive, StateCritical, StatePregame:
		return true
	}
	return false
}

// IsFinished reports whether the state code means the game is over.
func IsFinished(state string) bool {
	switch normalize(state) {
	case StateOff, StateFinal:
		return true
	}
	return false
}

// IsScheduled reports whether the state code means the game has not started.
func IsScheduled(state string) bool {
	switch normalize(state) {
	case StateFuture, StateScheduled:
		return true
	}
	return false
}

// TimeUntilStart returns the signed duration from now until the start time.
// It is negative once the game has started and zero when the start time cannot be parsed.
func TimeUntilStart(startTimeUTC string, now time.Time) time.Duration {
	start, err := timeutil.ParseTimestamp(startTimeUTC)
	if err != nil {
		return 0
	}
	return start.Sub(now)
}

func normalize(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}

// ScheduleDay is one date bucket of the upstream rolling schedule.
// A nil Games slice means the bucket carried no games list.
type ScheduleDay struct {
	Date  string   `json:"date" yaml:"date"`
	Games []Record `json:"games" yaml:"games"`
}

// FindRecord scans the buckets in order and returns the first record with the id.
// Buckets without a games list are skipped.
func FindRecord(days []ScheduleDay, gameID string) (Record, bool) {
	for _, day := range days {
		if day.Games == nil {
			continue
		}
		for _, rec := range day.Games {
			if rec.ID == gameID {
				return rec, true
			}
		}
	}
	return Record{}, false
}
