package app

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jose-valero/tourneydeck/internal/domain/events"
	"github.com/jose-valero/tourneydeck/internal/state"
	"github.com/jose-valero/tourneydeck/pkg/config"
)

const (
	tickEvery    = 500 * time.Millisecond
	refreshLimit = 15 * time.Second
)

// Syncer keeps the store aligned with the dashboard. While the push
// channel is live it only watches for silence; otherwise it polls,
// fast right after the operator touches anything and slow once the
// desk goes quiet.
type Syncer struct {
	remote Remote
	store  *state.Store
	push   PushChannel // nil when disabled
	log    *logrus.Entry

	activeEvery time.Duration
	idleEvery   time.Duration
	idleAfter   time.Duration
	staleAfter  time.Duration

	mu           sync.Mutex
	lastActivity time.Time
	lastPull     time.Time
	lastProbe    time.Time
	inflight     bool
}

func NewSyncer(remote Remote, store *state.Store, push PushChannel, cfg *config.Config, log *logrus.Logger) *Syncer {
	return &Syncer{
		remote:      remote,
		store:       store,
		push:        push,
		log:         log.WithField("component", "syncer"),
		activeEvery: cfg.PollActive,
		idleEvery:   cfg.PollIdle,
		idleAfter:   cfg.IdleAfter,
		staleAfter:  cfg.WSStaleAfter,
	}
}

// NoteActivity flips polling to the active cadence for a while.
func (s *Syncer) NoteActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// interval picks the poll cadence from how recently the operator
// touched a key. Callers hold s.mu.
func (s *Syncer) interval(now time.Time) time.Duration {
	if !s.lastActivity.IsZero() && now.Sub(s.lastActivity) <= s.idleAfter {
		return s.activeEvery
	}
	return s.idleEvery
}

// Tick makes one sync decision for the given instant. Split out from
// Run so the policy is testable with a fake clock.
func (s *Syncer) Tick(ctx context.Context, now time.Time) {
	if s.push != nil && s.push.Status() == events.PushConnected {
		s.probeStaleness(now)
		return
	}

	s.mu.Lock()
	if !s.lastPull.IsZero() && now.Sub(s.lastPull) < s.interval(now) {
		s.mu.Unlock()
		return
	}
	s.lastPull = now
	s.mu.Unlock()

	s.RequestRefresh()
}

// probeStaleness nudges the socket when no event has arrived for the
// staleness window. One probe per window; a dead connection surfaces
// as a read error and a reconnect soon enough.
func (s *Syncer) probeStaleness(now time.Time) {
	last := s.push.LastEvent()
	if !last.IsZero() && now.Sub(last) < s.staleAfter {
		return
	}

	s.mu.Lock()
	if !s.lastProbe.IsZero() && now.Sub(s.lastProbe) < s.staleAfter {
		s.mu.Unlock()
		return
	}
	s.lastProbe = now
	s.mu.Unlock()

	s.log.Debug("push channel quiet, requesting matches")
	if err := s.push.RequestMatches(); err != nil {
		s.log.WithError(err).Warn("staleness probe failed")
	}
}

// RequestRefresh starts a full pull unless one is already running;
// extra requests coalesce into the one in flight.
func (s *Syncer) RequestRefresh() {
	s.mu.Lock()
	if s.inflight {
		s.mu.Unlock()
		return
	}
	s.inflight = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.inflight = false
			s.mu.Unlock()
		}()
		s.refresh()
	}()
}

// refresh pulls the whole picture: active tournament, participants,
// stations, matches, stats. Any failure leaves the previous snapshot
// standing.
func (s *Syncer) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshLimit)
	defer cancel()

	tid, err := s.remote.Status(ctx)
	if err != nil {
		s.log.WithError(err).Warn("status fetch failed")
		return
	}
	if tid == "" {
		s.store.Reset()
		return
	}
	s.store.SetTournament(tid)

	participants, err := s.remote.Participants(ctx, tid)
	if err != nil {
		s.log.WithError(err).Warn("participants fetch failed")
		return
	}
	stations, err := s.remote.Stations(ctx, tid)
	if err != nil {
		s.log.WithError(err).Warn("stations fetch failed")
		return
	}
	matches, err := s.remote.Matches(ctx, tid)
	if err != nil {
		s.log.WithError(err).Warn("matches fetch failed")
		return
	}

	// stats are decoration; a failure must not block the refresh
	var statsPtr *state.RawStats
	if stats, err := s.remote.MatchStats(ctx, tid); err == nil {
		statsPtr = &stats
	} else {
		s.log.WithError(err).Debug("stats fetch failed")
	}

	s.store.ApplyFullRefresh(matches, stations, participants, statsPtr)
}

// Run drives Tick on a fixed beat until ctx ends.
func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}
