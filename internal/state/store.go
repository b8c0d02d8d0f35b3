package state

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Store is the single writer over the snapshot. Full refreshes replace
// it, pushes patch it, optimistic writes go through Mutate; every path
// holds the same lock and fires the same change notification.
type Store struct {
	mu     sync.RWMutex
	snap   Snapshot
	filter string // station name filter, "" = all

	log      *logrus.Entry
	onChange func()

	now func() time.Time
}

func NewStore(log *logrus.Logger) *Store {
	return &Store{
		log: log.WithField("component", "store"),
		now: time.Now,
	}
}

// SetOnChange registers the single change hook. The hook runs after the
// lock is released and must not block.
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// SetTournament pins the active tournament identity ahead of a full
// refresh.
func (s *Store) SetTournament(id string) {
	s.mu.Lock()
	s.snap.TournamentID = id
	s.mu.Unlock()
}

// Reset tears the snapshot down to empty (remote reports no active
// tournament).
func (s *Store) Reset() {
	s.mu.Lock()
	s.snap = Snapshot{LastUpdate: s.now()}
	s.mu.Unlock()
	s.notify()
}

// ApplyFullRefresh replaces matches, stations and counters wholesale.
// A malformed match record is skipped with a warning; the batch
// continues.
func (s *Store) ApplyFullRefresh(matches []RawMatch, stations []RawStation, participants []RawParticipant, stats *RawStats) {
	pidx := indexParticipants(participants)
	sidx := indexStations(stations)

	parsed := make([]Match, 0, len(matches))
	for _, raw := range matches {
		m, err := parseMatch(raw, pidx, sidx)
		if err != nil {
			s.log.WithError(err).WithField("match_id", raw.ID).Warn("skipping match record")
			continue
		}
		parsed = append(parsed, m)
	}
	sortMatches(parsed)

	s.mu.Lock()
	s.snap.Matches = parsed
	s.snap.Stations = parseStations(stations)
	if stats != nil {
		s.snap.TotalMatches = stats.Total
		s.snap.CompletedMatches = stats.Completed
	}
	s.snap.LastUpdate = s.now()
	s.mu.Unlock()
	s.notify()
}

// ApplyMatchesPush re-parses the matches carried by a push event.
// Inline names win; otherwise identities cached in the current snapshot
// fill the gaps, so a bare push never degrades a known name to "TBD".
func (s *Store) ApplyMatchesPush(matches []RawMatch, stats *RawStats) {
	if len(matches) == 0 {
		return
	}

	pidx, sidx := inlineIndexes(matches)

	s.mu.Lock()
	if len(pidx) == 0 {
		pidx, _ = snapshotIndexes(&s.snap)
	}
	if len(sidx) == 0 {
		_, sidx = snapshotIndexes(&s.snap)
	}

	parsed := make([]Match, 0, len(matches))
	for _, raw := range matches {
		m, err := parseMatch(raw, pidx, sidx)
		if err != nil {
			s.log.WithError(err).WithField("match_id", raw.ID).Warn("skipping pushed match record")
			continue
		}
		parsed = append(parsed, m)
	}
	sortMatches(parsed)

	s.snap.Matches = parsed
	if stats != nil {
		s.snap.TotalMatches = stats.Total
		s.snap.CompletedMatches = stats.Completed
	}
	s.snap.LastUpdate = s.now()
	s.mu.Unlock()
	s.notify()
}

// ApplyTournamentPush patches only the fields present in the payload.
func (s *Store) ApplyTournamentPush(t RawTournament) {
	s.mu.Lock()
	if t.TournamentID != nil {
		s.snap.TournamentID = *t.TournamentID
	}
	if t.Name != nil {
		s.snap.TournamentName = *t.Name
	}
	if t.GameName != nil {
		s.snap.GameName = *t.GameName
	}
	if t.State != nil {
		s.snap.TournamentState = *t.State
	}
	s.snap.LastUpdate = s.now()
	s.mu.Unlock()
	s.notify()
}

// Mutate applies an optimistic local write to one match under the store
// lock. Returns false when the match is unknown. The write is
// deliberately last-writer-wins: the next refresh or push fully
// supersedes it.
func (s *Store) Mutate(id int, fn func(*Match)) bool {
	s.mu.Lock()
	var done bool
	for i := range s.snap.Matches {
		if s.snap.Matches[i].ID == id {
			fn(&s.snap.Matches[i])
			s.snap.LastUpdate = s.now()
			done = true
			break
		}
	}
	s.mu.Unlock()
	if done {
		s.notify()
	}
	return done
}

// ---------- read side ----------

// Snapshot returns a copy safe to read without holding the lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snap
	snap.Matches = append([]Match(nil), s.snap.Matches...)
	snap.Stations = append([]Station(nil), s.snap.Stations...)
	return snap
}

func (s *Store) TournamentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.TournamentID
}

func (s *Store) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.LastUpdate
}

func (s *Store) MatchByID(id int) (Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.snap.Matches {
		if s.snap.Matches[i].ID == id {
			return s.snap.Matches[i], true
		}
	}
	return Match{}, false
}

// UnderwayMatches returns the live matches in display order.
func (s *Store) UnderwayMatches() []Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Match
	for i := range s.snap.Matches {
		if s.snap.Matches[i].Underway() {
			out = append(out, s.snap.Matches[i])
		}
	}
	return out
}

// OpenMatches returns open-or-live matches, honoring the station
// filter, capped at limit.
func (s *Store) OpenMatches(limit int) []Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Match
	for i := range s.snap.Matches {
		m := &s.snap.Matches[i]
		if m.State != StateOpen && !m.Underway() {
			continue
		}
		if s.filter != "" && m.StationName != s.filter {
			continue
		}
		out = append(out, *m)
		if len(out) == limit {
			break
		}
	}
	return out
}

func (s *Store) Stations() []Station {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Station(nil), s.snap.Stations...)
}

func (s *Store) StationFilter() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

func (s *Store) SetStationFilter(name string) {
	s.mu.Lock()
	s.filter = name
	s.mu.Unlock()
	s.notify()
}
