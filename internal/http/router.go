// Package http assembles the service's HTTP surface.
package http

import (
	"log/slog"
	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rinkrivals/game-sync-service/internal/http/handlers"
	"github.com/rinkrivals/game-sync-service/internal/http/middleware"
	"github.com/rinkrivals/game-sync-service/internal/metrics"
)

// Routes collects the handlers mounted by NewRouter. Nil handlers leave their routes unmounted.
type Routes struct {
	Health     *handlers.HealthHandler
	Games      *handlers.GamesHandler
	Membership *handlers.MembershipHandler
	Admin      *handlers.AdminHandler
	Realtime   nethttp.Handler
}

// Options configures cross-cutting middleware.
type Options struct {
	Logger      *slog.Logger
	Metrics     *metrics.Recorder
	CORSOrigins []string
}

// NewRouter registers HTTP routes on a chi router.
func NewRouter(routes Routes, opts Options) nethttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logging(opts.Logger, opts.Metrics))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins(opts.CORSOrigins),
		AllowedMethods:   []string{nethttp.MethodGet, nethttp.MethodPost, nethttp.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID", "X-User-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if routes.Health != nil {
		r.Get("/health", routes.Health.Health)
		r.Get("/ready", routes.Health.Ready)
	}
	if routes.Realtime != nil {
		r.Method(nethttp.MethodGet, "/ws", routes.Realtime)
	}
	if routes.Games != nil {
		r.Get("/games/{gameID}/status", routes.Games.GameStatus)
	}
	if routes.Membership != nil {
		r.Route("/challenges/{challengeID}", func(r chi.Router) {
			r.Post("/join", routes.Membership.Join)
			r.Post("/leave", routes.Membership.Leave)
			r.Post("/decline", routes.Membership.Decline)
		})
	}
	if routes.Admin != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Use(routes.Admin.RequireToken)
			r.Post("/games/invalidate", routes.Admin.InvalidateAll)
			r.Post("/games/{gameID}/invalidate", routes.Admin.InvalidateGame)
			r.Post("/sync", routes.Admin.Sync)
		})
	}
	return r
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
