package nhl

import (
	"bytes"
	"encoding/json"
)

type scheduleResponse struct {
	GameWeek []dayResponse `json:"gameWeek"`
}

type dayResponse struct {
	Date  string         `json:"date"`
	Games []gameResponse `json:"games"`
}

type gameResponse struct {
	ID                gameID `json:"id"`
	GameState         string `json:"gameState"`
	GameScheduleState string `json:"gameScheduleState"`
	StartTimeUTC      string `json:"startTimeUTC"`
}

// gameID accepts the upstream id as either a JSON number or a string.
type gameID string

func (g *gameID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*g = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*g = gameID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*g = gameID(n.String())
	return nil
}
