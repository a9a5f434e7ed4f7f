package server

import (
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/rinkrivals/game-sync-service/internal/config"
	"github.com/rinkrivals/game-sync-service/internal/logging"
	"github.com/rinkrivals/game-sync-service/internal/metrics"
	"github.com/rinkrivals/game-sync-service/internal/providers"
	"github.com/rinkrivals/game-sync-service/internal/providers/fixture"
	"github.com/rinkrivals/game-sync-service/internal/providers/nhl"
)

const (
	sourceNHL     = "nhl"
	sourceFixture = "fixture"
)

// sourceFactory assembles the upstream source with shared wrappers (call spacing + retry).
type sourceFactory struct {
	logger  *slog.Logger
	metrics *metrics.Recorder
	clock   clockwork.Clock
}

func newSourceFactory(logger *slog.Logger, rec *metrics.Recorder) sourceFactory {
	return sourceFactory{logger: logger, metrics: rec, clock: clockwork.NewRealClock()}
}

func (f sourceFactory) build(cfg config.UpstreamConfig) (providers.GameSource, error) {
	base, err := selectSource(cfg, f.logger)
	if err != nil {
		return nil, err
	}
	name := normalizeSourceName(cfg.Provider, base)
	spaced := providers.NewSpacedSource(base, cfg.MinGap, f.clock, f.logger, name)
	return f.wrap(spaced, cfg, name), nil
}

func (f sourceFactory) wrap(source providers.GameSource, cfg config.UpstreamConfig, name string) providers.GameSource {
	return providers.NewRetryingSource(source, f.logger, f.metrics, name, cfg.MaxRetries, 0)
}

func selectSource(cfg config.UpstreamConfig, logger *slog.Logger) (providers.GameSource, error) {
	switch normalizeSourceName(cfg.Provider, nil) {
	case sourceNHL:
		return nhl.NewClient(nhl.Config{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		}), nil
	case sourceFixture:
		return loadFixture(cfg.FixturePath)
	default:
		logging.Warn(logger, "unknown upstream provider, falling back to fixture", nil,
			logging.FieldProvider, cfg.Provider,
		)
		return loadFixture(cfg.FixturePath)
	}
}

func loadFixture(path string) (providers.GameSource, error) {
	p, err := fixture.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load fixture source: %w", err)
	}
	return p, nil
}
