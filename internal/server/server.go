package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rinkrivals/game-sync-service/internal/config"
	"github.com/rinkrivals/game-sync-service/internal/gamestatus"
	httpserver "github.com/rinkrivals/game-sync-service/internal/http"
	"github.com/rinkrivals/game-sync-service/internal/http/handlers"
	"github.com/rinkrivals/game-sync-service/internal/logging"
	"github.com/rinkrivals/game-sync-service/internal/membership"
	"github.com/rinkrivals/game-sync-service/internal/metrics"
	"github.com/rinkrivals/game-sync-service/internal/providers"
	"github.com/rinkrivals/game-sync-service/internal/realtime"
	"github.com/rinkrivals/game-sync-service/internal/syncer"
)

var metricsSetup = metrics.Setup

type Server struct {
	cfg           config.Config
	logger        *slog.Logger
	metrics       *metrics.Recorder
	httpServer    httpServer
	metricsServer httpServer
	scheduler     Scheduler
	bus           realtime.Bus
	busCancel     context.CancelFunc
	busDone       chan struct{}
	sessions      interface{ Close() }
	closeStore    func()
	metricsStop   func(context.Context) error
}

// New constructs a server with the configured upstream source, store and realtime bus.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	return newServerWithSource(ctx, cfg, logger, nil, nil)
}

func newServerWithSource(ctx context.Context, cfg config.Config, logger *slog.Logger, source providers.GameSource, recorder *metrics.Recorder) (*Server, error) {
	if logger == nil {
		logger = logging.NewLogger(logging.Config{})
	}
	recorder, metricsSrv, metricsShutdown := buildMetrics(cfg, logger, recorder)

	factory := newSourceFactory(logger, recorder)
	if source == nil {
		built, err := factory.build(cfg.Upstream)
		if err != nil {
			return nil, err
		}
		source = built
	} else {
		source = factory.wrap(source, cfg.Upstream, normalizeSourceName(cfg.Upstream.Provider, source))
	}

	statuses := gamestatus.New(source,
		gamestatus.WithTTL(cfg.Sync.CacheTTL),
		gamestatus.WithLookupTimeout(lookupTimeout(cfg.Upstream)),
		gamestatus.WithLogger(logger),
		gamestatus.WithMetrics(recorder),
	)

	st, err := buildStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("build store: %w", err)
	}

	hub := realtime.NewHub(logger)
	bus, err := buildBus(ctx, cfg.Realtime, hub, logger)
	if err != nil {
		st.close()
		return nil, fmt.Errorf("build realtime bus: %w", err)
	}
	publisher := realtime.NewMeteredPublisher(bus, recorder, logger)

	sched := syncer.New(st.challenges, statuses, publisher,
		syncer.WithInterval(cfg.Sync.Interval),
		syncer.WithConcurrency(cfg.Sync.Concurrency),
		syncer.WithLogger(logger),
		syncer.WithMetrics(recorder),
	)
	members := membership.New(st.challenges, st.tickets, publisher, logger, recorder)
	ws := realtime.NewHandler(hub, logger, cfg.CORSOrigins)

	router := httpserver.NewRouter(httpserver.Routes{
		Health:     handlers.NewHealthHandler(logger, sched.Status),
		Games:      handlers.NewGamesHandler(statuses, logger),
		Membership: handlers.NewMembershipHandler(members, logger),
		Admin:      handlers.NewAdminHandler(statuses, sched, cfg.AdminToken, logger),
		Realtime:   ws,
	}, httpserver.Options{
		Logger:      logger,
		Metrics:     recorder,
		CORSOrigins: cfg.CORSOrigins,
	})

	return &Server{
		cfg:           cfg,
		logger:        logger,
		metrics:       recorder,
		httpServer:    buildHTTPServer(cfg, router),
		metricsServer: metricsSrv,
		scheduler:     sched,
		bus:           bus,
		sessions:      ws,
		closeStore:    st.close,
		metricsStop:   metricsShutdown,
	}, nil
}

// lookupTimeout covers a schedule fetch plus the direct fallback, each with every retry attempt.
func lookupTimeout(up config.UpstreamConfig) time.Duration {
	if up.Timeout <= 0 {
		return 0
	}
	attempts := up.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}
	return 2 * time.Duration(attempts) * up.Timeout
}

// newServerWithDeps is used for testing to inject custom components.
func newServerWithDeps(cfg config.Config, logger *slog.Logger, httpSrv httpServer, sched Scheduler, bus realtime.Bus) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpSrv,
		scheduler:  sched,
		bus:        bus,
	}
}

func buildHTTPServer(cfg config.Config, handler http.Handler) httpServer {
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	return netHTTPServer{srv: srv}
}

// Run starts the realtime bus, the HTTP server and the sync loop, then waits for context cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.startMetrics()
	s.startBus()
	s.startServer(stop)
	s.scheduler.Start(ctx)

	<-ctx.Done()
	logging.Info(s.logger, "shutdown signal received")

	s.gracefulShutdown()
}

func (s *Server) startServer(stop context.CancelFunc) {
	logging.Info(s.logger, "http server starting", "addr", s.httpServer.Addr())
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	logging.Info(s.logger, "metrics server starting", "addr", s.metricsServer.Addr())
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

// newBusBackOff paces resubscription after the bus subscription drops.
var newBusBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

var errBusRunReturned = errors.New("realtime bus subscription ended")

// startBus runs the bus subscription on its own context so it outlives the signal context until shutdown.
func (s *Server) startBus() {
	if s.bus == nil {
		return
	}
	busCtx, cancel := context.WithCancel(context.Background())
	s.busCancel = cancel
	s.busDone = make(chan struct{})
	go func() {
		defer close(s.busDone)
		s.runBus(busCtx)
	}()
}

// runBus keeps the subscription alive, resubscribing with backoff until ctx is cancelled.
func (s *Server) runBus(ctx context.Context) {
	operation := func() error {
		err := s.bus.Run(ctx)
		if ctx.Err() != nil {
			if err != nil {
				return backoff.Permanent(err)
			}
			return nil
		}
		if err == nil {
			err = errBusRunReturned
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		logging.Warn(s.logger, "realtime bus stopped, resubscribing", err, "retry_in", wait)
	}
	err := backoff.RetryNotify(operation, backoff.WithContext(newBusBackOff(), ctx), notify)
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Warn(s.logger, "realtime bus stopped", err)
	}
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error(s.logger, "graceful shutdown failed", err)
	}

	// Hijacked websocket connections are not tracked by http.Server.
	if s.sessions != nil {
		s.sessions.Close()
	}

	if err := s.scheduler.Stop(shutdownCtx); err != nil {
		logging.Error(s.logger, "failed to stop sync scheduler", err)
	}

	s.stopBus(shutdownCtx)

	if s.closeStore != nil {
		s.closeStore()
	}

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics shutdown failed", err)
		}
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics server shutdown failed", err)
		}
	}

	logging.Info(s.logger, "shutdown complete")
}

func (s *Server) stopBus(ctx context.Context) {
	if s.bus == nil {
		return
	}
	if s.busCancel != nil {
		s.busCancel()
		select {
		case <-s.busDone:
		case <-ctx.Done():
			logging.Warn(s.logger, "realtime bus did not stop in time", ctx.Err())
		}
	}
	if err := s.bus.Close(); err != nil {
		logging.Warn(s.logger, "realtime bus close failed", err)
	}
}

func buildMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*metrics.Recorder, httpServer, func(context.Context) error) {
	if recorder != nil {
		return recorder, nil, nil
	}

	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}

	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		logging.Warn(logger, "metrics setup failed, continuing without telemetry", err)
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && recCfg.Enabled {
		metricsSrv = netHTTPServer{
			srv: &http.Server{
				Addr:              ":" + recCfg.Port,
				Handler:           handler,
				ReadHeaderTimeout: readTimeout,
			},
		}
	}

	return rec, metricsSrv, shutdown
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		logging.Info(logger, "starting "+name+" server", "addr", srv.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Warn(logger, name+" server failed", err)
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}
