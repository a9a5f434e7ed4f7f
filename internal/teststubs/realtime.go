package teststubs

import (
	"context"
	"sync"

	"github.com/rinkrivals/game-sync-service/internal/realtime"
)

// StubPublisher records published events. Err, when set, is returned after recording.
type StubPublisher struct {
	mu     sync.Mutex
	Events []realtime.Event
	Err    error
}

// Publish records ev.
func (p *StubPublisher) Publish(ctx context.Context, ev realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, ev)
	return p.Err
}

// Published returns a copy of the recorded events.
func (p *StubPublisher) Published() []realtime.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]realtime.Event(nil), p.Events...)
}

// OfType returns the recorded events with type t.
func (p *StubPublisher) OfType(t realtime.EventType) []realtime.Event {
	var out []realtime.Event
	for _, ev := range p.Published() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
