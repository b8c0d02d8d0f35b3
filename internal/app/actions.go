package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jose-valero/tourneydeck/internal/state"
	"github.com/jose-valero/tourneydeck/internal/ui"
)

// remoteWait bounds every fire-and-forget dashboard call.
const remoteWait = 5 * time.Second

var brightnessLevels = []int{20, 40, 60, 80, 100}

// dispatch applies one action synchronously to local state, firing any
// remote call in the background. By the time this returns, the next
// render already shows the intended end state.
func (c *Controller) dispatch(a ui.Action) {
	switch a.Kind {
	case ui.ActionNone:

	case ui.ActionRefresh:
		c.syncer.RequestRefresh()

	case ui.ActionSelectMatch:
		c.selectMatch(a.MatchID)

	case ui.ActionOpenScoreEntry:
		if m, ok := c.store.MatchByID(a.MatchID); ok {
			c.pending = [2]int{m.Player1Score, m.Player2Score}
			c.view = ViewScoreEntry
		}

	case ui.ActionQuickWinner:
		c.quickWinner(a.MatchID, a.Player)

	case ui.ActionBumpScore:
		c.bumpScore(a.MatchID, a.Player, a.Delta)

	case ui.ActionPendingDelta:
		idx := a.Player - 1
		if idx >= 0 && idx < 2 {
			if v := c.pending[idx] + a.Delta; v >= 0 {
				c.pending[idx] = v
			}
		}

	case ui.ActionClearPending:
		c.pending = [2]int{}

	case ui.ActionSubmitScore:
		c.submitScore(a.MatchID)

	case ui.ActionDeclareWinner:
		c.declareWinner(a.MatchID)

	case ui.ActionMarkUnderway:
		c.setUnderway(a.MatchID, true)

	case ui.ActionUnmarkUnderway:
		c.setUnderway(a.MatchID, false)

	case ui.ActionForfeit:
		c.requestForfeit(a.MatchID, a.Player)

	case ui.ActionReopen:
		c.reopen(a.MatchID)

	case ui.ActionAssignStation:
		c.assignStation(a.MatchID, a.StationID, a.StationName)

	case ui.ActionCycleStation:
		c.cycleStationFilter()

	case ui.ActionCycleBrightness:
		c.cycleBrightness()

	case ui.ActionOpenTicker:
		c.view = ViewTicker

	case ui.ActionSendTicker, ui.ActionQuickAnnounce:
		c.sendTicker(a.Message, a.Duration)

	case ui.ActionBack:
		c.back()

	case ui.ActionHome:
		c.selectedID = 0
		c.view = ViewMain

	case ui.ActionConfirmYes:
		fn := c.confirmFn
		c.confirmFn = nil
		c.view = ViewMain
		c.selectedID = 0
		if fn != nil {
			fn()
		}

	case ui.ActionConfirmNo:
		c.confirmFn = nil
		c.view = ViewMain
		c.selectedID = 0

	case ui.ActionExit:
		c.quit = true
	}
}

func (c *Controller) back() {
	switch c.view {
	case ViewScoreEntry:
		c.view = ViewMatchControl
	default:
		c.selectedID = 0
		c.view = ViewMain
	}
}

// fire runs one remote call off the loop goroutine. The local write
// already happened; a failure here is a log line and the next sync
// straightens the mirror out.
func (c *Controller) fire(op string, call func(context.Context) error) {
	log := c.log.WithField("op", op)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), remoteWait)
		defer cancel()
		if err := call(ctx); err != nil {
			log.WithError(err).Warn("remote action failed, waiting for next sync")
		}
	}()
}

func (c *Controller) selectMatch(id int) {
	m, ok := c.store.MatchByID(id)
	if !ok {
		return
	}
	c.selectedID = id
	c.pending = [2]int{m.Player1Score, m.Player2Score}
	c.view = ViewMatchControl
}

// quickStart is the long-press shortcut: mark underway straight from
// the overview without entering match control.
func (c *Controller) quickStart(id int) {
	tid := c.store.TournamentID()
	if !c.store.Mutate(id, func(m *state.Match) {
		m.UnderwayAt = "pending"
	}) {
		return
	}
	c.fire("quick-start", func(ctx context.Context) error {
		return c.remote.MarkUnderway(ctx, tid, id)
	})
}

func (c *Controller) setUnderway(id int, underway bool) {
	tid := c.store.TournamentID()
	c.store.Mutate(id, func(m *state.Match) {
		if underway {
			m.UnderwayAt = "pending"
		} else {
			m.UnderwayAt = ""
		}
	})
	if underway {
		c.fire("mark-underway", func(ctx context.Context) error {
			return c.remote.MarkUnderway(ctx, tid, id)
		})
	} else {
		c.fire("unmark-underway", func(ctx context.Context) error {
			return c.remote.UnmarkUnderway(ctx, tid, id)
		})
	}
}

func (c *Controller) bumpScore(id, player, delta int) {
	m, ok := c.store.MatchByID(id)
	if !ok {
		return
	}
	p1, p2 := m.Player1Score, m.Player2Score
	if player == 1 {
		p1 += delta
	} else {
		p2 += delta
	}
	if p1 < 0 || p2 < 0 {
		return
	}

	tid := c.store.TournamentID()
	c.store.Mutate(id, func(m *state.Match) {
		m.Player1Score, m.Player2Score = p1, p2
	})
	c.fire("bump-score", func(ctx context.Context) error {
		return c.remote.UpdateScore(ctx, tid, id, p1, p2)
	})
}

func (c *Controller) submitScore(id int) {
	p1, p2 := c.pending[0], c.pending[1]
	tid := c.store.TournamentID()
	c.store.Mutate(id, func(m *state.Match) {
		m.Player1Score, m.Player2Score = p1, p2
	})
	c.fire("submit-score", func(ctx context.Context) error {
		return c.remote.UpdateScore(ctx, tid, id, p1, p2)
	})
	c.view = ViewMatchControl
}

// quickWinner completes the match 1-0 or 0-1 and jumps home; the tile
// disappears from the overview on the same render.
func (c *Controller) quickWinner(id, player int) {
	m, ok := c.store.MatchByID(id)
	if !ok {
		return
	}
	winner := m.Player1
	p1, p2 := 1, 0
	if player == 2 {
		winner = m.Player2
		p1, p2 = 0, 1
	}
	if winner == nil {
		return
	}

	c.completeMatch(&m, winner.ID, p1, p2, "quick-winner")
}

// declareWinner reads the pending buffer; a tied buffer has no winner
// and does nothing at all.
func (c *Controller) declareWinner(id int) {
	m, ok := c.store.MatchByID(id)
	if !ok {
		return
	}
	p1, p2 := c.pending[0], c.pending[1]
	if p1 == p2 {
		return
	}
	winner := m.Player1
	if p2 > p1 {
		winner = m.Player2
	}
	if winner == nil {
		return
	}

	c.completeMatch(&m, winner.ID, p1, p2, "declare-winner")
}

func (c *Controller) completeMatch(m *state.Match, winnerID, p1, p2 int, op string) {
	id := m.ID
	tid := c.store.TournamentID()
	c.store.Mutate(id, func(m *state.Match) {
		m.State = state.StateComplete
		m.UnderwayAt = ""
		m.WinnerID = &winnerID
		m.Player1Score, m.Player2Score = p1, p2
	})
	c.selectedID = 0
	c.view = ViewMain
	c.fire(op, func(ctx context.Context) error {
		return c.remote.DeclareWinner(ctx, tid, id, winnerID, p1, p2)
	})
}

// requestForfeit asks for confirmation before disqualifying anyone.
// Winner and loser are resolved from the slots when the operator
// confirms, not when the dialog opens.
func (c *Controller) requestForfeit(id, player int) {
	m, ok := c.store.MatchByID(id)
	if !ok || m.Player1 == nil || m.Player2 == nil {
		return
	}

	loser := m.Player1
	if player == 2 {
		loser = m.Player2
	}
	c.confirmMsg = fmt.Sprintf("DQ %s?", loser.Name)
	c.confirmFn = func() {
		m, ok := c.store.MatchByID(id)
		if !ok || m.Player1 == nil || m.Player2 == nil {
			return
		}
		loser, winner := m.Player1, m.Player2
		if player == 2 {
			loser, winner = m.Player2, m.Player1
		}
		winnerID, loserID := winner.ID, loser.ID

		tid := c.store.TournamentID()
		c.store.Mutate(id, func(m *state.Match) {
			m.State = state.StateComplete
			m.UnderwayAt = ""
			m.WinnerID = &winnerID
		})
		c.fire("forfeit", func(ctx context.Context) error {
			return c.remote.Forfeit(ctx, tid, id, winnerID, loserID)
		})
	}
	c.view = ViewConfirm
}

func (c *Controller) reopen(id int) {
	tid := c.store.TournamentID()
	c.store.Mutate(id, func(m *state.Match) {
		m.State = state.StateOpen
		m.WinnerID = nil
		m.UnderwayAt = ""
	})
	c.fire("reopen", func(ctx context.Context) error {
		return c.remote.Reopen(ctx, tid, id)
	})
}

// assignStation toggles: pressing the already-assigned station clears
// the assignment.
func (c *Controller) assignStation(id int, stationID, stationName string) {
	m, ok := c.store.MatchByID(id)
	if !ok {
		return
	}
	tid := c.store.TournamentID()

	if m.StationName == stationName {
		c.store.Mutate(id, func(m *state.Match) {
			m.StationID, m.StationName = "", ""
		})
		c.fire("unassign-station", func(ctx context.Context) error {
			return c.remote.AssignStation(ctx, tid, id, nil)
		})
		return
	}

	c.store.Mutate(id, func(m *state.Match) {
		m.StationID, m.StationName = stationID, stationName
	})
	c.fire("assign-station", func(ctx context.Context) error {
		sid := stationID
		return c.remote.AssignStation(ctx, tid, id, &sid)
	})
}

// cycleStationFilter walks All -> each station -> All.
func (c *Controller) cycleStationFilter() {
	names := []string{""}
	for _, st := range c.store.Stations() {
		names = append(names, st.Name)
	}

	current := c.store.StationFilter()
	idx := 0
	for i, n := range names {
		if n == current {
			idx = i
			break
		}
	}
	c.store.SetStationFilter(names[(idx+1)%len(names)])
}

func (c *Controller) cycleBrightness() {
	idx := 3 // the 80% slot, same recovery as an unknown level
	for i, lv := range brightnessLevels {
		if lv == c.brightness {
			idx = i
			break
		}
	}
	c.brightness = brightnessLevels[(idx+1)%len(brightnessLevels)]
	if err := c.surface.SetBrightness(c.brightness); err != nil {
		c.log.WithError(err).Warn("set brightness failed")
	}
}

func (c *Controller) sendTicker(message string, duration int) {
	if message == "" {
		return
	}
	if duration <= 0 {
		duration = 5
	}
	c.fire("send-ticker", func(ctx context.Context) error {
		return c.remote.SendTicker(ctx, message, duration)
	})
	c.view = ViewMain
}
