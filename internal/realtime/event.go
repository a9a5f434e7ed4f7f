// Package realtime fans challenge events out to subscribed websocket sessions.
// It is a notification bus: delivery is best-effort and at most once, and clients re-read state after a gap.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
)

// EventType names the kind of change a client is told about.
type EventType string

const (
	EventStatusChanged EventType = "status_changed"
	EventJoined        EventType = "joined"
	EventLeft          EventType = "left"
	EventDeclined      EventType = "declined"
	EventCreated       EventType = "created"
	EventDeleted       EventType = "deleted"
)

// Event is the outbound payload for one challenge room.
type Event struct {
	Type        EventType `json:"type"`
	ChallengeID string    `json:"challengeId"`
	Message     string    `json:"message"`
}

// Publisher pushes an event to every session subscribed to its challenge.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Bus is a Publisher that may relay events through an external broker.
// Run consumes relayed events into the local hub until ctx is done.
type Bus interface {
	Publisher
	Run(ctx context.Context) error
	Close() error
}

func encodeEvent(ev Event) ([]byte, error) {
	if ev.ChallengeID == "" {
		return nil, fmt.Errorf("realtime: event %q has no challenge id", ev.Type)
	}
	return json.Marshal(ev)
}

func decodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("realtime: decode event: %w", err)
	}
	if ev.ChallengeID == "" {
		return Event{}, fmt.Errorf("realtime: event %q has no challenge id", ev.Type)
	}
	return ev, nil
}
