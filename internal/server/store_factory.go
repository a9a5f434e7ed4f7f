package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rinkrivals/game-sync-service/internal/config"
	"github.com/rinkrivals/game-sync-service/internal/domain/challenges"
	"github.com/rinkrivals/game-sync-service/internal/logging"
	"github.com/rinkrivals/game-sync-service/internal/store"
	"github.com/rinkrivals/game-sync-service/internal/store/postgres"
)

// storeBundle is the challenge store, the ticket lookup that backs join validation, and their cleanup.
type storeBundle struct {
	challenges challenges.Store
	tickets    challenges.TicketLookup
	close      func()
}

func buildStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (storeBundle, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "memory":
		mem := store.NewMemoryStore()
		if cfg.SeedPath != "" {
			n, err := mem.SeedFile(ctx, cfg.SeedPath)
			if err != nil {
				return storeBundle{}, fmt.Errorf("seed memory store: %w", err)
			}
			logging.Info(logger, "memory store seeded", logging.FieldCount, n, "path", cfg.SeedPath)
		}
		return storeBundle{challenges: mem, tickets: mem, close: func() {}}, nil
	case "postgres":
		pg, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return storeBundle{}, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return storeBundle{}, err
		}
		logging.Info(logger, "postgres store ready")
		return storeBundle{challenges: pg, tickets: pg, close: pg.Close}, nil
	default:
		return storeBundle{}, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
