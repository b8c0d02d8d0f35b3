// Package app holds the control loop: one goroutine owns the view
// state and the surface, everything else reports in through the event
// bus or the store.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jose-valero/tourneydeck/internal/adapters/deck"
	"github.com/jose-valero/tourneydeck/internal/domain/events"
	"github.com/jose-valero/tourneydeck/internal/state"
	"github.com/jose-valero/tourneydeck/internal/ui"
	"github.com/jose-valero/tourneydeck/pkg/config"
)

// Remote is the dashboard API surface the app consumes. Satisfied by
// admin.Client; tests swap in fakes.
type Remote interface {
	Status(ctx context.Context) (string, error)
	Participants(ctx context.Context, tournamentID string) ([]state.RawParticipant, error)
	Stations(ctx context.Context, tournamentID string) ([]state.RawStation, error)
	Matches(ctx context.Context, tournamentID string) ([]state.RawMatch, error)
	MatchStats(ctx context.Context, tournamentID string) (state.RawStats, error)

	MarkUnderway(ctx context.Context, tournamentID string, matchID int) error
	UnmarkUnderway(ctx context.Context, tournamentID string, matchID int) error
	UpdateScore(ctx context.Context, tournamentID string, matchID, p1, p2 int) error
	DeclareWinner(ctx context.Context, tournamentID string, matchID, winnerID, p1, p2 int) error
	Forfeit(ctx context.Context, tournamentID string, matchID, winnerID, loserID int) error
	Reopen(ctx context.Context, tournamentID string, matchID int) error
	AssignStation(ctx context.Context, tournamentID string, matchID int, stationID *string) error
	SendTicker(ctx context.Context, message string, duration int) error
}

// PushChannel is what the app needs from the websocket side.
type PushChannel interface {
	Status() events.PushStatus
	LastEvent() time.Time
	RequestMatches() error
}

// Surface is the key hardware.
type Surface interface {
	Keys() <-chan deck.KeyEvent
	Present(ui.Frame)
	SetBrightness(pct int) error
	Close() error
}

type View int

const (
	ViewMain View = iota
	ViewMatchControl
	ViewScoreEntry
	ViewTicker
	ViewConfirm
)

type Controller struct {
	cfg     *config.Config
	log     *logrus.Entry
	store   *state.Store
	remote  Remote
	push    PushChannel // nil when the push channel is disabled
	surface Surface
	syncer  *Syncer

	view       View
	selectedID int
	pending    [2]int
	confirmMsg string
	confirmFn  func()

	brightness int
	quit       bool

	frame   ui.Frame // last rendered; key releases resolve against it
	pressAt map[int]time.Time
	now     func() time.Time
}

func NewController(cfg *config.Config, store *state.Store, remote Remote, push PushChannel, surface Surface, syncer *Syncer, log *logrus.Logger) *Controller {
	c := &Controller{
		cfg:        cfg,
		log:        log.WithField("component", "controller"),
		store:      store,
		remote:     remote,
		push:       push,
		surface:    surface,
		syncer:     syncer,
		view:       ViewMain,
		brightness: cfg.Brightness,
		pressAt:    make(map[int]time.Time),
		now:        time.Now,
	}
	store.SetStationFilter(cfg.StationFilter)
	store.SetOnChange(func() {
		events.Publish(events.SnapshotUpdated{})
	})
	return c
}

// Run renders until ctx ends, the Exit key fires, or the device
// disappears. All view mutation happens on this goroutine.
func (c *Controller) Run(ctx context.Context) error {
	renders := make(chan struct{}, 1)
	kick := func() {
		select {
		case renders <- struct{}{}:
		default: // a render is already queued, it will see the new state
		}
	}
	unsubSnap := events.Subscribe(func(events.SnapshotUpdated) { kick() })
	defer unsubSnap()
	unsubPush := events.Subscribe(func(events.PushStatusChanged) { kick() })
	defer unsubPush()
	unsubTicker := events.Subscribe(func(ev events.TickerReceived) {
		c.log.WithField("message", ev.Message).Info("ticker broadcast")
	})
	defer unsubTicker()

	if err := c.surface.SetBrightness(c.brightness); err != nil {
		c.log.WithError(err).Warn("set brightness failed")
	}
	c.render()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-c.surface.Keys():
			if !ok {
				return errors.New("input device disconnected")
			}
			c.handleKey(ev)
			if c.quit {
				return nil
			}
		case <-renders:
			c.render()
		}
	}
}

// handleKey times presses and dispatches on release, so a hold can
// mean something different from a tap.
func (c *Controller) handleKey(ev deck.KeyEvent) {
	c.syncer.NoteActivity()

	if ev.Index < 0 || ev.Index >= ui.NumKeys {
		return
	}
	if ev.Pressed {
		c.pressAt[ev.Index] = c.now()
		return
	}

	var held time.Duration
	if start, ok := c.pressAt[ev.Index]; ok {
		held = c.now().Sub(start)
		delete(c.pressAt, ev.Index)
	}

	act := c.frame[ev.Index].Action
	if held >= c.cfg.LongPress && act.Kind == ui.ActionSelectMatch {
		c.quickStart(act.MatchID)
	} else {
		c.dispatch(act)
	}
	c.render()
}

func (c *Controller) render() {
	switch c.view {
	case ViewMatchControl:
		m, ok := c.store.MatchByID(c.selectedID)
		if !ok {
			c.view = ViewMain
			break
		}
		c.present(ui.RenderMatchControl(&m, c.store.Stations()))
		return
	case ViewScoreEntry:
		m, ok := c.store.MatchByID(c.selectedID)
		if !ok {
			c.view = ViewMain
			break
		}
		c.present(ui.RenderScoreEntry(&m, c.pending))
		return
	case ViewTicker:
		c.present(ui.RenderTicker(c.cfg.TickerPresets))
		return
	case ViewConfirm:
		c.present(ui.RenderConfirm(c.confirmMsg))
		return
	}
	c.present(ui.RenderMain(c.mainInput()))
}

func (c *Controller) present(f ui.Frame) {
	c.frame = f
	c.surface.Present(f)
}

func (c *Controller) mainInput() ui.MainInput {
	live := c.store.UnderwayMatches()
	if len(live) > 2 {
		live = live[:2]
	}

	var open []state.Match
	for _, m := range c.store.OpenMatches(10) {
		if m.Underway() {
			continue
		}
		open = append(open, m)
		if len(open) == 3 {
			break
		}
	}

	snap := c.store.Snapshot()
	in := ui.MainInput{
		Live:             live,
		Open:             open,
		TotalMatches:     snap.TotalMatches,
		CompletedMatches: snap.CompletedMatches,
		PushEnabled:      c.push != nil,
		StationFilter:    c.store.StationFilter(),
		Brightness:       c.brightness,
	}
	if c.push != nil {
		in.PushStatus = c.push.Status()
	}
	if len(c.cfg.TickerPresets) > 0 {
		in.Announce = c.cfg.TickerPresets[0]
	}
	return in
}
