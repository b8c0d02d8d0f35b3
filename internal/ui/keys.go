// Package ui turns application state into 15-key frames. Everything
// here is a pure function of its inputs; no goroutines, no I/O, so the
// layouts are testable without a device on the desk.
package ui

import (
	"fmt"
	"image/color"

	"github.com/jose-valero/tourneydeck/internal/state"
)

// NumKeys matches the 3x5 grid of the device this was built for.
const NumKeys = 15

// Palette. Same hues across every view so the operator's muscle memory
// transfers: green = live/go, blue = P1, red = P2/danger, purple = nav.
var (
	Black     = color.RGBA{0, 0, 0, 255}
	White     = color.RGBA{255, 255, 255, 255}
	Gray      = color.RGBA{60, 60, 60, 255}
	DarkGray  = color.RGBA{40, 40, 40, 255}
	LightGray = color.RGBA{120, 120, 120, 255}

	Green  = color.RGBA{0, 170, 0, 255}
	Blue   = color.RGBA{0, 102, 204, 255}
	Yellow = color.RGBA{204, 136, 0, 255}
	Red    = color.RGBA{204, 0, 0, 255}
	Purple = color.RGBA{102, 68, 170, 255}
	Cyan   = color.RGBA{0, 150, 150, 255}
	Orange = color.RGBA{200, 100, 0, 255}

	Disabled = color.RGBA{26, 26, 26, 255}
)

// ActionKind enumerates everything a key press can mean. The dispatcher
// switches exhaustively over this; adding a kind without a case is a
// bug you hit on the first press.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionRefresh
	ActionSelectMatch
	ActionOpenScoreEntry
	ActionQuickWinner    // Player wins 1-0 / 0-1 straight from match control
	ActionBumpScore      // immediate +1 on the live score
	ActionPendingDelta   // +/- on the score-entry buffer
	ActionClearPending
	ActionSubmitScore
	ActionDeclareWinner
	ActionMarkUnderway
	ActionUnmarkUnderway
	ActionForfeit
	ActionReopen
	ActionAssignStation
	ActionCycleStation
	ActionCycleBrightness
	ActionOpenTicker
	ActionSendTicker
	ActionQuickAnnounce
	ActionBack
	ActionHome
	ActionConfirmYes
	ActionConfirmNo
	ActionExit
)

// Action is what a key press asks the app to do. Kind picks the
// operation; the other fields are its arguments.
type Action struct {
	Kind        ActionKind
	MatchID     int
	Player      int // 1 or 2
	Delta       int
	StationID   string
	StationName string
	Message     string
	Duration    int
}

// Key is the paint-and-press spec for one position.
type Key struct {
	Label   string
	Subtext string
	Icon    string
	Bg      color.RGBA
	Fg      color.RGBA
	Action  Action
}

// Frame is one full render of the surface.
type Frame [NumKeys]Key

func blank() Key {
	return Key{Bg: Black, Fg: White}
}

func inert(label string) Key {
	return Key{Label: label, Bg: Disabled, Fg: LightGray}
}

// matchBg colors a match key by its live/ready/done standing.
func matchBg(m *state.Match) color.RGBA {
	switch {
	case m.Underway() || m.State == state.StateUnderway:
		return Green
	case m.State == state.StateOpen:
		return Blue
	case m.State == state.StateComplete:
		return Gray
	default:
		return Disabled
	}
}

func matchStatus(m *state.Match) string {
	if m.Underway() || m.State == state.StateUnderway {
		return "LIVE"
	}
	switch m.State {
	case state.StateOpen:
		return "READY"
	case state.StateComplete:
		return "DONE"
	default:
		return "WAIT"
	}
}

// MatchKey renders a selectable match tile: status and round up top,
// the pairing as the label, score and station below.
func MatchKey(m *state.Match) Key {
	sub := m.ScoreDisplay()
	if m.StationName != "" {
		sub = fmt.Sprintf("%s  %s", sub, truncate(m.StationName, 8))
	}
	return Key{
		Label:   truncate(m.DisplayName(), 22),
		Subtext: sub,
		Icon:    fmt.Sprintf("%s R%d", matchStatus(m), m.Round),
		Bg:      matchBg(m),
		Fg:      White,
		Action:  Action{Kind: ActionSelectMatch, MatchID: m.ID},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func playerLabel(p *state.Player) string {
	if p == nil || p.Name == "" {
		return "TBD"
	}
	return truncate(p.Name, 10)
}
