package nhl

import (
	"strings"

	"github.com/rinkrivals/game-sync-service/internal/domain/games"
)

func mapGame(g gameResponse) games.Record {
	return games.Record{
		ID:                strings.TrimSpace(string(g.ID)),
		GameState:         strings.TrimSpace(g.GameState),
		GameScheduleState: strings.TrimSpace(g.GameScheduleState),
		StartTimeUTC:      strings.TrimSpace(g.StartTimeUTC),
	}
}

// mapSchedule keeps bucket order. A bucket whose games list is absent keeps a nil Games slice.
func mapSchedule(resp scheduleResponse) []games.ScheduleDay {
	days := make([]games.ScheduleDay, 0, len(resp.GameWeek))
	for _, d := range resp.GameWeek {
		day := games.ScheduleDay{Date: d.Date}
		if d.Games != nil {
			day.Games = make([]games.Record, 0, len(d.Games))
			for _, g := range d.Games {
				day.Games = append(day.Games, mapGame(g))
			}
		}
		days = append(days, day)
	}
	return days
}
