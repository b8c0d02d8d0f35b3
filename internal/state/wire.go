package state

import (
	"bytes"
	"encoding/json"
)

// FlexID tolerates the dashboard sending ids as either strings or
// numbers (station ids do both depending on the endpoint).
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string { return string(f) }

// RawMatch is the match record as both the REST API and the push
// channel emit it. Push payloads may carry inline player/station names;
// REST payloads never do.
type RawMatch struct {
	ID          int    `json:"id"`
	Round       int    `json:"round"`
	RoundName   string `json:"roundName"`
	State       string `json:"state"`
	Player1ID   *int   `json:"player1Id"`
	Player2ID   *int   `json:"player2Id"`
	Player1Name string `json:"player1Name,omitempty"`
	Player2Name string `json:"player2Name,omitempty"`
	Player1Seed *int   `json:"player1Seed,omitempty"`
	Player2Seed *int   `json:"player2Seed,omitempty"`
	ScoresCSV   string `json:"scores_csv"`
	Scores      string `json:"scores,omitempty"`
	WinnerID    *int   `json:"winnerId"`
	StationID   FlexID `json:"stationId"`
	StationName string `json:"stationName,omitempty"`
	UnderwayAt  string `json:"underwayAt"`
	Identifier  string `json:"identifier"`
}

type RawParticipant struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Seed        *int   `json:"seed"`
}

type RawStation struct {
	ID      FlexID `json:"id"`
	Name    string `json:"name"`
	MatchID *int   `json:"matchId"`
}

type RawStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// RawTournament is the tournament:update push payload. Nil fields were
// absent from the payload and must be left untouched on apply.
type RawTournament struct {
	TournamentID *string `json:"tournamentId"`
	Name         *string `json:"name"`
	GameName     *string `json:"gameName"`
	State        *string `json:"state"`
}
