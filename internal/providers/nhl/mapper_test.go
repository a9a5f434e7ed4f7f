package nhl

import (
	"encoding/json"
	"testing"
)

func TestGameIDAcceptsNumbersAndStrings(t *testing.T) {
	cases := map[string]string{
		`{"id": 2023020001}`:   "2023020001",
		`{"id": "2023020001"}`: "2023020001",
		`{"id": null}`:         "",
		`{}`:                   "",
	}
	for raw, want := range cases {
		var g gameResponse
		if err := json.Unmarshal([]byte(raw), &g); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if string(g.ID) != want {
			t.Fatalf("unmarshal %s: expected %q, got %q", raw, want, g.ID)
		}
	}

	var g gameResponse
	if err := json.Unmarshal([]byte(`{"id": true}`), &g); err == nil {
		t.Fatalf("expected error for boolean id")
	}
}

func TestMapScheduleKeepsMissingGamesNil(t *testing.T) {
	days := mapSchedule(scheduleResponse{GameWeek: []dayResponse{
		{Date: "2024-01-01"},
		{Date: "2024-01-02", Games: []gameResponse{}},
		{Date: "2024-01-03", Games: []gameResponse{{ID: " 9 ", GameState: " LIVE "}}},
	}})

	if len(days) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(days))
	}
	if days[0].Games != nil {
		t.Fatalf("expected nil games for absent list")
	}
	if days[1].Games == nil || len(days[1].Games) != 0 {
		t.Fatalf("expected empty non-nil games list")
	}
	if rec := days[2].Games[0]; rec.ID != "9" || rec.GameState != "LIVE" {
		t.Fatalf("expected trimmed record, got %+v", rec)
	}
}
