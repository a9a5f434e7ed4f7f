package nhl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rinkrivals/game-sync-service/internal/domain/games"
	"github.com/rinkrivals/game-sync-service/internal/providers"
)

// Config controls how the client reaches the NHL web API.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client fetches the rolling schedule and single games from the NHL web API.
type Client struct {
	baseURL    string
	httpClient httpDoer
	now        func() time.Time
}

// NewClient constructs an NHL client with the provided configuration.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:    normalizeBaseURL(cfg.BaseURL),
		httpClient: resolveHTTPClient(cfg.HTTPClient, cfg.Timeout),
		now:        time.Now,
	}
}

// Name identifies the upstream in logs and metrics.
func (c *Client) Name() string { return providerName }

// FetchSchedule retrieves the current week of games.
// A body without a gameWeek container is reported as providers.ErrMalformedResponse.
func (c *Client) FetchSchedule(ctx context.Context) ([]games.ScheduleDay, error) {
	var payload scheduleResponse
	if err := c.getJSON(ctx, schedulePath, &payload); err != nil {
		return nil, err
	}
	if payload.GameWeek == nil {
		return nil, fmt.Errorf("%s schedule: missing gameWeek: %w", providerName, providers.ErrMalformedResponse)
	}
	return mapSchedule(payload), nil
}

// FetchGame looks a single game up through its boxscore.
// A missing game or a body without an id is reported as providers.ErrGameNotFound.
func (c *Client) FetchGame(ctx context.Context, gameID string) (*games.Record, error) {
	var payload gameResponse
	path := fmt.Sprintf(boxscorePath, url.PathEscape(gameID))
	if err := c.getJSON(ctx, path, &payload); err != nil {
		if sErr, ok := providers.AsStatusError(err); ok && sErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s game %s: %w", providerName, gameID, providers.ErrGameNotFound)
		}
		return nil, err
	}
	rec := mapGame(payload)
	if rec.ID == "" {
		return nil, fmt.Errorf("%s game %s: empty body: %w", providerName, gameID, providers.ErrGameNotFound)
	}
	return &rec, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &providers.RateLimitError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), c.now()),
		}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &providers.StatusError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%s %s: %w: %v", providerName, path, providers.ErrMalformedResponse, err)
	}
	return nil
}
