package realtime

import (
	"log/slog"
	"sync"

	"github.com/rinkrivals/game-sync-service/internal/logging"
)

// subscriber receives encoded events. Send must not block.
type subscriber interface {
	ID() string
	Send(payload []byte) bool
}

// Hub tracks which sessions are in which challenge room and delivers to them.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]subscriber
	subs   map[string]map[string]struct{} // session id -> rooms
	logger *slog.Logger
}

// NewHub constructs an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[string]subscriber),
		subs:   make(map[string]map[string]struct{}),
		logger: logger,
	}
}

// Subscribe adds s to the room for challengeID.
func (h *Hub) Subscribe(s subscriber, challengeID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[challengeID]
	if !ok {
		room = make(map[string]subscriber)
		h.rooms[challengeID] = room
	}
	room[s.ID()] = s

	joined, ok := h.subs[s.ID()]
	if !ok {
		joined = make(map[string]struct{})
		h.subs[s.ID()] = joined
	}
	joined[challengeID] = struct{}{}
}

// Unsubscribe removes s from one room.
func (h *Hub) Unsubscribe(s subscriber, challengeID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leave(s.ID(), challengeID)
}

// Remove drops s from every room it joined.
func (h *Hub) Remove(s subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for challengeID := range h.subs[s.ID()] {
		h.leave(s.ID(), challengeID)
	}
	delete(h.subs, s.ID())
}

// leave must be called with mu held.
func (h *Hub) leave(sessionID, challengeID string) {
	if room, ok := h.rooms[challengeID]; ok {
		delete(room, sessionID)
		if len(room) == 0 {
			delete(h.rooms, challengeID)
		}
	}
	if joined, ok := h.subs[sessionID]; ok {
		delete(joined, challengeID)
	}
}

// Deliver sends ev to every session in its room and returns how many accepted it.
// Sessions whose buffers are full miss the event.
func (h *Hub) Deliver(ev Event) int {
	payload, err := encodeEvent(ev)
	if err != nil {
		logging.Warn(h.logger, "dropping event", err)
		return 0
	}

	h.mu.RLock()
	targets := make([]subscriber, 0, len(h.rooms[ev.ChallengeID]))
	for _, s := range h.rooms[ev.ChallengeID] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range targets {
		if s.Send(payload) {
			delivered++
			continue
		}
		logging.Debug(h.logger, "session buffer full, event dropped",
			logging.FieldSessionID, s.ID(),
			logging.FieldChallengeID, ev.ChallengeID,
			logging.FieldEventType, string(ev.Type),
		)
	}
	return delivered
}

// RoomSize returns how many sessions are subscribed to challengeID.
func (h *Hub) RoomSize(challengeID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[challengeID])
}

// Sessions returns how many sessions have subscribed since they connected and are still registered.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
