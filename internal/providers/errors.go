package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrProviderUnavailable is returned when a decorator has nothing to delegate to.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrGameNotFound means the upstream answered but had no usable game body.
	ErrGameNotFound = errors.New("game not found upstream")
	// ErrMalformedResponse means the upstream body could not be decoded into the expected container.
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// RateLimitError captures rate limit responses from upstream providers.
type RateLimitError struct {
	Provider   string
	StatusCode int
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "provider rate limited"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status=%d)", msg, e.StatusCode)
	}
	return msg
}

// AsRateLimitError attempts to unwrap an error into a RateLimitError.
func AsRateLimitError(err error) (*RateLimitError, bool) {
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return rlErr, true
	}
	return nil, false
}

// StatusError is a non-2xx upstream response other than a rate limit.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// AsStatusError attempts to unwrap an error into a StatusError.
func AsStatusError(err error) (*StatusError, bool) {
	var sErr *StatusError
	if errors.As(err, &sErr) {
		return sErr, true
	}
	return nil, false
}

// IsRetryable reports whether another attempt could plausibly succeed.
// Client errors, missing games, malformed bodies, rate limits and cancellation are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrGameNotFound),
		errors.Is(err, ErrMalformedResponse),
		errors.Is(err, ErrProviderUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	if _, ok := AsRateLimitError(err); ok {
		return false
	}
	if sErr, ok := AsStatusError(err); ok {
		return sErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}
