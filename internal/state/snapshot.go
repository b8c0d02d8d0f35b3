// Package state owns the local mirror of the tournament dashboard: the
// snapshot types, the wire formats both channels decode into, and the
// Store that reconciles full refreshes, incremental pushes and
// optimistic local writes.
package state

import (
	"fmt"
	"time"
)

type MatchState string

const (
	StatePending  MatchState = "pending"
	StateOpen     MatchState = "open"
	StateUnderway MatchState = "underway"
	StateComplete MatchState = "complete"
)

// ParseMatchState maps anything it does not recognize to pending.
func ParseMatchState(s string) MatchState {
	switch MatchState(s) {
	case StatePending, StateOpen, StateUnderway, StateComplete:
		return MatchState(s)
	default:
		return StatePending
	}
}

type Player struct {
	ID   int
	Name string
	Seed *int
}

type Match struct {
	ID           int
	Round        int
	RoundName    string
	State        MatchState
	Player1      *Player
	Player2      *Player
	Player1Score int
	Player2Score int
	WinnerID     *int
	StationID    string
	StationName  string
	UnderwayAt   string // presence matters, value does not
	Identifier   string
}

// Underway reports whether the match is live on a station right now.
func (m *Match) Underway() bool {
	return m.State == StateOpen && m.UnderwayAt != ""
}

func (m *Match) DisplayName() string {
	return fmt.Sprintf("%s vs %s", playerName(m.Player1), playerName(m.Player2))
}

func (m *Match) ScoreDisplay() string {
	return fmt.Sprintf("%d - %d", m.Player1Score, m.Player2Score)
}

func playerName(p *Player) string {
	if p == nil || p.Name == "" {
		return "TBD"
	}
	return p.Name
}

// sortRank is the primary display ordering: live first, then open,
// pending, complete. Round number breaks ties (see sortMatches).
func sortRank(m *Match) int {
	if m.Underway() {
		return 0
	}
	switch m.State {
	case StateUnderway:
		return 0
	case StateOpen:
		return 1
	case StatePending:
		return 2
	case StateComplete:
		return 3
	default:
		return 4
	}
}

type Station struct {
	ID      string
	Name    string
	MatchID *int // informational; Match.Station wins on conflict
}

// Snapshot is the whole locally cached dashboard state. The Store hands
// out copies; nobody else holds a mutable reference.
type Snapshot struct {
	TournamentID    string
	TournamentName  string
	GameName        string
	TournamentState string

	Matches  []Match
	Stations []Station

	TotalMatches     int
	CompletedMatches int

	LastUpdate time.Time
}
