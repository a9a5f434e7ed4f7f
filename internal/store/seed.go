package store

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rinkrivals/game-sync-service/internal/domain/challenges"
)

type seedDocument struct {
	Challenges []seedChallenge `yaml:"challenges"`
	Tickets    []seedTicket    `yaml:"tickets"`
}

type seedChallenge struct {
	ID         string            `yaml:"id"`
	OwnerID    string            `yaml:"ownerId"`
	GameID     string            `yaml:"gameId"`
	Status     string            `yaml:"status"`
	Members    []string          `yaml:"members"`
	Invited    []string          `yaml:"invited"`
	Tickets    map[string]string `yaml:"tickets"`
	MaxMembers int               `yaml:"maxMembers"`
}

type seedTicket struct {
	ID     string `yaml:"id"`
	UserID string `yaml:"userId"`
	GameID string `yaml:"gameId"`
}

// SeedFile loads challenges and tickets from a YAML file into s. Used for local runs of the memory driver.
func (s *MemoryStore) SeedFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open seed %s: %w", path, err)
	}
	defer f.Close()
	return s.Seed(ctx, f)
}

// Seed loads a seed document and returns how many challenges were created.
func (s *MemoryStore) Seed(ctx context.Context, r io.Reader) (int, error) {
	var doc seedDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return 0, fmt.Errorf("decode seed: %w", err)
	}

	for _, t := range doc.Tickets {
		if err := s.PutTicket(ctx, challenges.Ticket{ID: t.ID, UserID: t.UserID, GameID: t.GameID}); err != nil {
			return 0, err
		}
	}

	created := 0
	for _, sc := range doc.Challenges {
		c := challenges.Challenge{
			ID:             sc.ID,
			OwnerID:        sc.OwnerID,
			GameID:         sc.GameID,
			MemberIDs:      sc.Members,
			InvitedUserIDs: sc.Invited,
			TicketIDs:      sc.Tickets,
			MaxMembers:     sc.MaxMembers,
		}
		if sc.Status != "" {
			status, err := challenges.ParseStatus(sc.Status)
			if err != nil {
				return created, fmt.Errorf("seed challenge %s: %w", sc.ID, err)
			}
			c.Status = status
		}
		if _, err := s.CreateChallenge(ctx, c); err != nil {
			return created, fmt.Errorf("seed challenge %s: %w", sc.ID, err)
		}
		created++
	}
	return created, nil
}
