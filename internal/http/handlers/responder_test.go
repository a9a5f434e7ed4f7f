package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rinkrivals/game-sync-service/internal/domain/challenges"
	"github.com/rinkrivals/game-sync-service/internal/testutil"
)

func TestWriteErrorIncludesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	logger, _ := testutil.NewBufferLogger()

	req.Header.Set("X-Request-ID", "abc123")

	rr := testutil.ServeRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusTeapot, "boom", logger)
	}), req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status 418, got %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected content type json, got %s", got)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("abc123")) {
		t.Fatalf("expected requestId in body, got %s", rr.Body.String())
	}
}

func TestWriteJSONLogsEncodeError(t *testing.T) {
	logger, buf := testutil.NewBufferLogger()
	rr := testutil.Serve(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, make(chan int), logger)
	}), http.MethodGet, "/encode-error", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status written even on encode error, got %d", rr.Code)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected logger to record encode error")
	}
}

func TestDomainStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{challenges.ErrChallengeNotFound, http.StatusNotFound},
		{challenges.ErrTicketCount, http.StatusBadRequest},
		{challenges.ErrInvalidTicket, http.StatusBadRequest},
		{challenges.ErrOwnerCannotLeave, http.StatusForbidden},
		{challenges.ErrNotMember, http.StatusForbidden},
		{challenges.ErrNotInvited, http.StatusForbidden},
		{challenges.ErrChallengeStarted, http.StatusConflict},
		{challenges.ErrChallengeFull, http.StatusConflict},
		{challenges.ErrAlreadyMember, http.StatusConflict},
		{challenges.ErrConflict, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", challenges.ErrChallengeClosed), http.StatusConflict},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := domainStatus(tc.err); got != tc.want {
			t.Fatalf("domainStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestWriteServiceErrorHidesInternalErrors(t *testing.T) {
	logger, buf := testutil.NewBufferLogger()
	rr := testutil.Serve(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeServiceError(w, r, errors.New("password=hunter2"), logger)
	}), http.MethodPost, "/x", nil)

	testutil.AssertStatus(t, rr, http.StatusInternalServerError)
	if bytes.Contains(rr.Body.Bytes(), []byte("hunter2")) {
		t.Fatalf("expected internal error detail hidden, got %s", rr.Body.String())
	}
	if buf.Len() == 0 {
		t.Fatalf("expected internal error logged")
	}
}
