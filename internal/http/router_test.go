package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rinkrivals/game-sync-service/internal/domain/games"
	"github.com/rinkrivals/game-sync-service/internal/http/handlers"
	"github.com/rinkrivals/game-sync-service/internal/metrics"
	"github.com/rinkrivals/game-sync-service/internal/syncer"
)

type nilStatuses struct{}

func (nilStatuses) GetStatus(ctx context.Context, gameID string) *games.Status { return nil }

type noopCache struct{}

func (noopCache) Invalidate(string) {}
func (noopCache) InvalidateAll()    {}

type noopTrigger struct{}

func (noopTrigger) TriggerNow(ctx context.Context) (syncer.CycleResult, error) {
	return syncer.CycleResult{}, nil
}

func testRouter(rec *metrics.Recorder) http.Handler {
	return NewRouter(Routes{
		Health: handlers.NewHealthHandler(nil, nil),
		Games:  handlers.NewGamesHandler(nilStatuses{}, nil),
		Admin:  handlers.NewAdminHandler(noopCache{}, noopTrigger{}, "secret", nil),
	}, Options{Metrics: rec, CORSOrigins: []string{"https://app.rinkrivals.test"}})
}

func TestRouterRoutesKnownPaths(t *testing.T) {
	router := testRouter(nil)

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusOK},
		{http.MethodGet, "/games/123/status", http.StatusNotFound},
		{http.MethodPost, "/admin/sync", http.StatusUnauthorized},
		{http.MethodPost, "/health", http.StatusMethodNotAllowed},
		{http.MethodGet, "/does-not-exist", http.StatusNotFound},
		{http.MethodPost, "/challenges/c1/join", http.StatusNotFound},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != tc.want {
			t.Fatalf("%s %s expected status %d, got %d", tc.method, tc.path, tc.want, rr.Code)
		}
	}
}

func TestRouterAdminWithToken(t *testing.T) {
	router := testRouter(nil)
	req := httptest.NewRequest(http.MethodPost, "/admin/sync", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := testRouter(nil)
	req := httptest.NewRequest(http.MethodOptions, "/challenges/c1/join", nil)
	req.Header.Set("Origin", "https://app.rinkrivals.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.rinkrivals.test" {
		t.Fatalf("expected allowed origin echoed, got %q", got)
	}
}

func TestRouterRecordsRequestMetrics(t *testing.T) {
	rec := metrics.NewRecorder()
	router := testRouter(rec)
	for _, path := range []string{"/games/1/status", "/games/2/status"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	if got := rec.HTTPRequests("/games/{gameID}/status"); got != 2 {
		t.Fatalf("expected 2 requests under route pattern, got %d", got)
	}
}

func TestRouterRecoversPanics(t *testing.T) {
	router := NewRouter(Routes{Realtime: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})}, Options{})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", rr.Code)
	}
}
