package fixture

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/rinkrivals/game-sync-service/internal/domain/games"
	"github.com/rinkrivals/game-sync-service/internal/providers"
	"github.com/rinkrivals/game-sync-service/internal/timeutil"
)

// document is the on-disk shape of a fixture file.
type document struct {
	Days []games.ScheduleDay `yaml:"days"`
	// Extra holds games only reachable through the direct lookup.
	Extra []games.Record `yaml:"extra"`
}

// Provider serves a static schedule loaded from YAML, useful for local development.
type Provider struct {
	mu    sync.RWMutex
	days  []games.ScheduleDay
	extra map[string]games.Record
}

// Load reads a fixture file from path.
func Load(path string) (*Provider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a fixture document.
func Decode(r io.Reader) (*Provider, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	for _, day := range doc.Days {
		if _, err := timeutil.ParseDate(day.Date); err != nil {
			return nil, fmt.Errorf("decode fixture: day %q: %w", day.Date, err)
		}
	}
	p := &Provider{extra: make(map[string]games.Record)}
	p.days = doc.Days
	for _, rec := range doc.Extra {
		p.extra[rec.ID] = rec
	}
	return p, nil
}

// SetGameState updates a game's state wherever it appears so local runs can walk challenges through their lifecycle.
func (p *Provider) SetGameState(gameID, state string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	found := false
	for i := range p.days {
		for j := range p.days[i].Games {
			if p.days[i].Games[j].ID == gameID {
				p.days[i].Games[j].GameState = state
				found = true
			}
		}
	}
	if rec, ok := p.extra[gameID]; ok {
		rec.GameState = state
		p.extra[gameID] = rec
		found = true
	}
	return found
}

// FetchSchedule returns a copy of the loaded schedule.
func (p *Provider) FetchSchedule(ctx context.Context) ([]games.ScheduleDay, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]games.ScheduleDay, len(p.days))
	for i, d := range p.days {
		out[i] = games.ScheduleDay{Date: d.Date}
		if d.Games != nil {
			out[i].Games = append([]games.Record{}, d.Games...)
		}
	}
	return out, nil
}

// FetchGame finds a game in the schedule or the extra list.
func (p *Provider) FetchGame(ctx context.Context, gameID string) (*games.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	if rec, ok := games.FindRecord(p.days, gameID); ok {
		return &rec, nil
	}
	if rec, ok := p.extra[gameID]; ok {
		return &rec, nil
	}
	return nil, fmt.Errorf("fixture game %s: %w", gameID, providers.ErrGameNotFound)
}
