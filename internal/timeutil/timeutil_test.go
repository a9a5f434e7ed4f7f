package timeutil

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	parsed, err := ParseDate("2024-01-02")
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	if !parsed.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected parsed date %s", parsed)
	}
	if _, err := ParseDate("01/02/2024"); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
}

func TestParseTimestampAcceptsUpstreamFormats(t *testing.T) {
	want := time.Date(2024, 11, 1, 23, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2024-11-01T23:00:00Z", "2024-11-01T23:00:00.000Z", "2024-11-01T19:00:00-04:00"} {
		got, err := ParseTimestamp(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if !got.Equal(want) {
			t.Fatalf("parse %q: expected %s, got %s", raw, want, got)
		}
	}
	if _, err := ParseTimestamp("tonight"); err == nil {
		t.Fatal("expected error for garbage timestamp")
	}
}

func TestFormatTimestampIsUTC(t *testing.T) {
	loc := time.FixedZone("test", -4*60*60)
	value := time.Date(2024, 11, 1, 19, 0, 0, 0, loc)
	if got := FormatTimestamp(value); got != "2024-11-01T23:00:00Z" {
		t.Fatalf("expected UTC timestamp, got %s", got)
	}
}
