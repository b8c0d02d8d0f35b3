package state

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

var errNoID = errors.New("match record has no id")

// participantIndex maps participant id -> player identity for one
// refresh cycle.
type participantIndex map[int]Player

// stationIndex maps station id -> display name.
type stationIndex map[string]string

func indexParticipants(raw []RawParticipant) participantIndex {
	idx := make(participantIndex, len(raw))
	for _, p := range raw {
		name := p.Name
		if name == "" {
			name = p.DisplayName
		}
		if name == "" {
			name = "TBD"
		}
		idx[p.ID] = Player{ID: p.ID, Name: name, Seed: p.Seed}
	}
	return idx
}

func indexStations(raw []RawStation) stationIndex {
	idx := make(stationIndex, len(raw))
	for _, s := range raw {
		idx[s.ID.String()] = s.Name
	}
	return idx
}

// snapshotIndexes rebuilds the lookup maps from what we already know,
// so a push payload without inline names never regresses a cached name
// to a placeholder.
func snapshotIndexes(snap *Snapshot) (participantIndex, stationIndex) {
	pidx := participantIndex{}
	for i := range snap.Matches {
		m := &snap.Matches[i]
		if m.Player1 != nil {
			pidx[m.Player1.ID] = *m.Player1
		}
		if m.Player2 != nil {
			pidx[m.Player2.ID] = *m.Player2
		}
	}
	sidx := stationIndex{}
	for _, s := range snap.Stations {
		sidx[s.ID] = s.Name
	}
	return pidx, sidx
}

// inlineIndexes harvests player/station names carried inline in a push
// payload. Empty maps mean the payload carried none.
func inlineIndexes(raw []RawMatch) (participantIndex, stationIndex) {
	pidx := participantIndex{}
	sidx := stationIndex{}
	for _, m := range raw {
		if m.Player1Name != "" && m.Player1ID != nil {
			pidx[*m.Player1ID] = Player{ID: *m.Player1ID, Name: m.Player1Name, Seed: m.Player1Seed}
		}
		if m.Player2Name != "" && m.Player2ID != nil {
			pidx[*m.Player2ID] = Player{ID: *m.Player2ID, Name: m.Player2Name, Seed: m.Player2Seed}
		}
		if m.StationName != "" && m.StationID != "" {
			sidx[m.StationID.String()] = m.StationName
		}
	}
	return pidx, sidx
}

// parseScores splits a "p1-p2" scores string. Missing or non-numeric
// segments are 0.
func parseScores(s string) (int, int) {
	parts := strings.SplitN(s, "-", 2)
	p1, p2 := 0, 0
	if len(parts) >= 1 {
		if n, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil {
			p1 = n
		}
	}
	if len(parts) >= 2 {
		if n, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
			p2 = n
		}
	}
	if p1 < 0 {
		p1 = 0
	}
	if p2 < 0 {
		p2 = 0
	}
	return p1, p2
}

func lookupPlayer(idx participantIndex, id *int) *Player {
	if id == nil || *id == 0 {
		return nil
	}
	if p, ok := idx[*id]; ok {
		cp := p
		return &cp
	}
	return &Player{ID: *id, Name: "TBD"}
}

func parseMatch(raw RawMatch, pidx participantIndex, sidx stationIndex) (Match, error) {
	if raw.ID == 0 {
		return Match{}, errNoID
	}

	scores := raw.ScoresCSV
	if scores == "" {
		scores = raw.Scores
	}
	p1s, p2s := parseScores(scores)

	roundName := raw.RoundName
	if roundName == "" {
		roundName = "Round " + strconv.Itoa(raw.Round)
	}
	identifier := raw.Identifier
	if identifier == "" {
		identifier = strconv.Itoa(raw.ID)
	}

	m := Match{
		ID:           raw.ID,
		Round:        raw.Round,
		RoundName:    roundName,
		State:        ParseMatchState(strings.ToLower(raw.State)),
		Player1:      lookupPlayer(pidx, raw.Player1ID),
		Player2:      lookupPlayer(pidx, raw.Player2ID),
		Player1Score: p1s,
		Player2Score: p2s,
		WinnerID:     raw.WinnerID,
		UnderwayAt:   raw.UnderwayAt,
		Identifier:   identifier,
	}
	if raw.StationID != "" {
		m.StationID = raw.StationID.String()
		m.StationName = sidx[m.StationID]
	}
	return m, nil
}

func parseStations(raw []RawStation) []Station {
	out := make([]Station, 0, len(raw))
	for _, s := range raw {
		if s.ID == "" && s.Name == "" {
			continue
		}
		out = append(out, Station{ID: s.ID.String(), Name: s.Name, MatchID: s.MatchID})
	}
	return out
}

func sortMatches(ms []Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		ri, rj := sortRank(&ms[i]), sortRank(&ms[j])
		if ri != rj {
			return ri < rj
		}
		return ms[i].Round < ms[j].Round
	})
}
