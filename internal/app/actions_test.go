package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/tourneydeck/internal/adapters/deck"
	"github.com/jose-valero/tourneydeck/internal/state"
	"github.com/jose-valero/tourneydeck/internal/ui"
	"github.com/jose-valero/tourneydeck/pkg/config"
)

// fakeRemote records action calls and never completes them: every call
// parks until its context expires. Optimistic writes must be visible
// before any of these return.
type fakeRemote struct {
	mu    sync.Mutex
	calls []call
}

type call struct {
	op       string
	matchID  int
	winnerID int
	loserID  int
	p1, p2   int
	station  *string
	message  string
}

func (f *fakeRemote) record(c call, ctx context.Context) error {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeRemote) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeRemote) Status(context.Context) (string, error) { return "t-1", nil }
func (f *fakeRemote) Participants(context.Context, string) ([]state.RawParticipant, error) {
	return nil, nil
}
func (f *fakeRemote) Stations(context.Context, string) ([]state.RawStation, error) {
	return nil, nil
}
func (f *fakeRemote) Matches(context.Context, string) ([]state.RawMatch, error) { return nil, nil }
func (f *fakeRemote) MatchStats(context.Context, string) (state.RawStats, error) {
	return state.RawStats{}, nil
}

func (f *fakeRemote) MarkUnderway(ctx context.Context, _ string, id int) error {
	return f.record(call{op: "mark", matchID: id}, ctx)
}
func (f *fakeRemote) UnmarkUnderway(ctx context.Context, _ string, id int) error {
	return f.record(call{op: "unmark", matchID: id}, ctx)
}
func (f *fakeRemote) UpdateScore(ctx context.Context, _ string, id, p1, p2 int) error {
	return f.record(call{op: "score", matchID: id, p1: p1, p2: p2}, ctx)
}
func (f *fakeRemote) DeclareWinner(ctx context.Context, _ string, id, w, p1, p2 int) error {
	return f.record(call{op: "winner", matchID: id, winnerID: w, p1: p1, p2: p2}, ctx)
}
func (f *fakeRemote) Forfeit(ctx context.Context, _ string, id, w, l int) error {
	return f.record(call{op: "forfeit", matchID: id, winnerID: w, loserID: l}, ctx)
}
func (f *fakeRemote) Reopen(ctx context.Context, _ string, id int) error {
	return f.record(call{op: "reopen", matchID: id}, ctx)
}
func (f *fakeRemote) AssignStation(ctx context.Context, _ string, id int, st *string) error {
	return f.record(call{op: "assign", matchID: id, station: st}, ctx)
}
func (f *fakeRemote) SendTicker(ctx context.Context, msg string, _ int) error {
	return f.record(call{op: "ticker", message: msg}, ctx)
}

type stubSurface struct {
	keys       chan deck.KeyEvent
	brightness int
}

func newStubSurface() *stubSurface {
	return &stubSurface{keys: make(chan deck.KeyEvent, 8)}
}

func (s *stubSurface) Keys() <-chan deck.KeyEvent { return s.keys }
func (s *stubSurface) Present(ui.Frame)           {}
func (s *stubSurface) SetBrightness(p int) error  { s.brightness = p; return nil }
func (s *stubSurface) Close() error               { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Brightness:    80,
		PollActive:    2 * time.Second,
		PollIdle:      10 * time.Second,
		IdleAfter:     30 * time.Second,
		WSStaleAfter:  60 * time.Second,
		LongPress:     800 * time.Millisecond,
		TickerPresets: config.DefaultPresets(),
	}
}

func intp(v int) *int { return &v }

// newHarness builds a controller over a store seeded with one open
// match (id 7, Alice vs Bob, 1-1) and two stations.
func newHarness(t *testing.T) (*Controller, *fakeRemote, *state.Store) {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	store := state.NewStore(log)
	store.SetTournament("t-1")
	store.ApplyFullRefresh(
		[]state.RawMatch{
			{ID: 7, Round: 1, State: "open", Player1ID: intp(10), Player2ID: intp(11), ScoresCSV: "1-1"},
		},
		[]state.RawStation{
			{ID: "s1", Name: "TV 1"},
			{ID: "s2", Name: "TV 2"},
		},
		[]state.RawParticipant{
			{ID: 10, Name: "Alice"},
			{ID: 11, Name: "Bob"},
		},
		nil,
	)

	remote := &fakeRemote{}
	cfg := testConfig()
	syncer := NewSyncer(remote, store, nil, cfg, log)
	ctrl := NewController(cfg, store, remote, nil, newStubSurface(), syncer, log)
	return ctrl, remote, store
}

func waitForCalls(t *testing.T, r *fakeRemote, n int) []call {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(r.recorded()) >= n
	}, time.Second, 5*time.Millisecond)
	return r.recorded()
}

func TestMarkUnderwayIsVisibleBeforeRemoteCompletes(t *testing.T) {
	ctrl, remote, store := newHarness(t)

	ctrl.dispatch(ui.Action{Kind: ui.ActionMarkUnderway, MatchID: 7})

	// synchronous: the remote call has not (and will never) complete
	m, ok := store.MatchByID(7)
	require.True(t, ok)
	assert.True(t, m.Underway())

	calls := waitForCalls(t, remote, 1)
	assert.Equal(t, "mark", calls[0].op)
	assert.Equal(t, 7, calls[0].matchID)
}

func TestTiedDeclareWinnerDoesNothing(t *testing.T) {
	ctrl, remote, store := newHarness(t)
	ctrl.selectedID = 7
	ctrl.view = ViewScoreEntry
	ctrl.pending = [2]int{2, 2}

	ctrl.dispatch(ui.Action{Kind: ui.ActionDeclareWinner, MatchID: 7})

	m, _ := store.MatchByID(7)
	assert.Equal(t, state.StateOpen, m.State)
	assert.Nil(t, m.WinnerID)
	assert.Equal(t, ViewScoreEntry, ctrl.view)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, remote.recorded(), "a tie must not reach the dashboard")
}

func TestDeclareWinnerCompletesAndGoesHome(t *testing.T) {
	ctrl, remote, store := newHarness(t)
	ctrl.selectedID = 7
	ctrl.view = ViewScoreEntry
	ctrl.pending = [2]int{3, 1}

	ctrl.dispatch(ui.Action{Kind: ui.ActionDeclareWinner, MatchID: 7})

	assert.Equal(t, ViewMain, ctrl.view)
	m, _ := store.MatchByID(7)
	assert.Equal(t, state.StateComplete, m.State)
	require.NotNil(t, m.WinnerID)
	assert.Equal(t, 10, *m.WinnerID)

	calls := waitForCalls(t, remote, 1)
	assert.Equal(t, "winner", calls[0].op)
	assert.Equal(t, 10, calls[0].winnerID)
	assert.Equal(t, 3, calls[0].p1)
	assert.Equal(t, 1, calls[0].p2)
}

func TestQuickWinnerPostsOneZero(t *testing.T) {
	ctrl, remote, _ := newHarness(t)
	ctrl.selectedID = 7
	ctrl.view = ViewMatchControl

	ctrl.dispatch(ui.Action{Kind: ui.ActionQuickWinner, MatchID: 7, Player: 2})

	assert.Equal(t, ViewMain, ctrl.view)
	calls := waitForCalls(t, remote, 1)
	assert.Equal(t, "winner", calls[0].op)
	assert.Equal(t, 11, calls[0].winnerID)
	assert.Equal(t, 0, calls[0].p1)
	assert.Equal(t, 1, calls[0].p2)
}

func TestForfeitConfirmFlow(t *testing.T) {
	ctrl, remote, store := newHarness(t)
	ctrl.selectedID = 7
	ctrl.view = ViewMatchControl

	ctrl.dispatch(ui.Action{Kind: ui.ActionForfeit, MatchID: 7, Player: 2})
	assert.Equal(t, ViewConfirm, ctrl.view)
	assert.Contains(t, ctrl.confirmMsg, "Bob")

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, remote.recorded(), "nothing sent before confirmation")

	ctrl.dispatch(ui.Action{Kind: ui.ActionConfirmYes})
	assert.Equal(t, ViewMain, ctrl.view)

	m, _ := store.MatchByID(7)
	assert.Equal(t, state.StateComplete, m.State)
	require.NotNil(t, m.WinnerID)
	assert.Equal(t, 10, *m.WinnerID)

	calls := waitForCalls(t, remote, 1)
	assert.Equal(t, "forfeit", calls[0].op)
	assert.Equal(t, 10, calls[0].winnerID)
	assert.Equal(t, 11, calls[0].loserID)
}

func TestForfeitCancelled(t *testing.T) {
	ctrl, remote, store := newHarness(t)
	ctrl.selectedID = 7
	ctrl.view = ViewMatchControl

	ctrl.dispatch(ui.Action{Kind: ui.ActionForfeit, MatchID: 7, Player: 1})
	ctrl.dispatch(ui.Action{Kind: ui.ActionConfirmNo})

	assert.Equal(t, ViewMain, ctrl.view)
	m, _ := store.MatchByID(7)
	assert.Equal(t, state.StateOpen, m.State)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, remote.recorded())
}

func TestForfeitRequiresBothSlots(t *testing.T) {
	ctrl, remote, store := newHarness(t)
	store.ApplyFullRefresh(
		[]state.RawMatch{{ID: 8, Round: 2, State: "open", Player1ID: intp(10)}},
		nil,
		[]state.RawParticipant{{ID: 10, Name: "Alice"}},
		nil,
	)
	ctrl.selectedID = 8
	ctrl.view = ViewMatchControl

	ctrl.dispatch(ui.Action{Kind: ui.ActionForfeit, MatchID: 8, Player: 1})

	assert.Equal(t, ViewMatchControl, ctrl.view, "forfeit needs two players")
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, remote.recorded())
}

func TestAssignStationToggles(t *testing.T) {
	ctrl, remote, store := newHarness(t)

	ctrl.dispatch(ui.Action{Kind: ui.ActionAssignStation, MatchID: 7, StationID: "s1", StationName: "TV 1"})
	m, _ := store.MatchByID(7)
	assert.Equal(t, "TV 1", m.StationName)

	// same station again unassigns
	ctrl.dispatch(ui.Action{Kind: ui.ActionAssignStation, MatchID: 7, StationID: "s1", StationName: "TV 1"})
	m, _ = store.MatchByID(7)
	assert.Empty(t, m.StationName)

	calls := waitForCalls(t, remote, 2)
	require.NotNil(t, calls[0].station)
	assert.Equal(t, "s1", *calls[0].station)
	assert.Nil(t, calls[1].station)
}

func TestBumpScoreUpdatesBothSides(t *testing.T) {
	ctrl, remote, store := newHarness(t)

	ctrl.dispatch(ui.Action{Kind: ui.ActionBumpScore, MatchID: 7, Player: 2, Delta: 1})

	m, _ := store.MatchByID(7)
	assert.Equal(t, 1, m.Player1Score)
	assert.Equal(t, 2, m.Player2Score)

	calls := waitForCalls(t, remote, 1)
	assert.Equal(t, "score", calls[0].op)
	assert.Equal(t, 1, calls[0].p1)
	assert.Equal(t, 2, calls[0].p2)
}

func TestPendingDeltaClampsAtZero(t *testing.T) {
	ctrl, _, _ := newHarness(t)
	ctrl.pending = [2]int{0, 1}

	ctrl.dispatch(ui.Action{Kind: ui.ActionPendingDelta, Player: 1, Delta: -1})
	assert.Equal(t, 0, ctrl.pending[0])

	ctrl.dispatch(ui.Action{Kind: ui.ActionPendingDelta, Player: 2, Delta: -1})
	ctrl.dispatch(ui.Action{Kind: ui.ActionPendingDelta, Player: 2, Delta: -1})
	assert.Equal(t, 0, ctrl.pending[1])
}

func TestCycleStationFilterWalksAllStations(t *testing.T) {
	ctrl, _, store := newHarness(t)

	assert.Equal(t, "", store.StationFilter())
	ctrl.dispatch(ui.Action{Kind: ui.ActionCycleStation})
	assert.Equal(t, "TV 1", store.StationFilter())
	ctrl.dispatch(ui.Action{Kind: ui.ActionCycleStation})
	assert.Equal(t, "TV 2", store.StationFilter())
	ctrl.dispatch(ui.Action{Kind: ui.ActionCycleStation})
	assert.Equal(t, "", store.StationFilter(), "wraps back to All")
}

func TestCycleBrightness(t *testing.T) {
	ctrl, _, _ := newHarness(t)
	surface := newStubSurface()
	ctrl.surface = surface

	ctrl.dispatch(ui.Action{Kind: ui.ActionCycleBrightness})
	assert.Equal(t, 100, ctrl.brightness)
	assert.Equal(t, 100, surface.brightness)

	ctrl.dispatch(ui.Action{Kind: ui.ActionCycleBrightness})
	assert.Equal(t, 20, ctrl.brightness)
}

func TestSendTickerReturnsHome(t *testing.T) {
	ctrl, remote, _ := newHarness(t)
	ctrl.view = ViewTicker

	ctrl.dispatch(ui.Action{Kind: ui.ActionSendTicker, Message: "5 MINUTE BREAK", Duration: 10})

	assert.Equal(t, ViewMain, ctrl.view)
	calls := waitForCalls(t, remote, 1)
	assert.Equal(t, "ticker", calls[0].op)
	assert.Equal(t, "5 MINUTE BREAK", calls[0].message)
}

func TestExitStopsRunLoop(t *testing.T) {
	ctrl, _, _ := newHarness(t)

	ctrl.dispatch(ui.Action{Kind: ui.ActionExit})
	assert.True(t, ctrl.quit)
}
