package ui

import (
	"fmt"

	"github.com/jose-valero/tourneydeck/internal/domain/events"
	"github.com/jose-valero/tourneydeck/internal/state"
	"github.com/jose-valero/tourneydeck/pkg/config"
)

// MainInput carries everything the main overview shows.
type MainInput struct {
	Live []state.Match // underway, at most 2 shown
	Open []state.Match // open but not underway, at most 3 shown

	TotalMatches     int
	CompletedMatches int

	PushStatus  events.PushStatus
	PushEnabled bool

	StationFilter string
	Brightness    int
	Announce      config.TickerPreset
}

// RenderMain lays out the overview:
//
//	[ 0] [ 1] [ 2] [ 3] [ 4]   Live1, Live2, Open1, Open2, Open3
//	[ 5] [ 6] [ 7] [ 8] [ 9]   ---, Refresh, ---, Ticker, ANNOUNCE
//	[10] [11] [12] [13] [14]   Station, Status, Bright, HOME, Exit
func RenderMain(in MainInput) Frame {
	var f Frame

	for i := 0; i < 2; i++ {
		if i < len(in.Live) {
			f[i] = MatchKey(&in.Live[i])
		} else {
			f[i] = inert("No Live")
		}
	}
	for i := 0; i < 3; i++ {
		if i < len(in.Open) {
			f[2+i] = MatchKey(&in.Open[i])
		} else {
			f[2+i] = inert("---")
		}
	}

	f[5] = inert("---")
	f[6] = Key{Label: "Refresh", Icon: "R", Bg: Cyan, Fg: White, Action: Action{Kind: ActionRefresh}}
	f[7] = inert("---")
	f[8] = Key{Label: "Ticker", Icon: "T", Bg: Blue, Fg: White, Action: Action{Kind: ActionOpenTicker}}
	f[9] = Key{Label: "ANNOUNCE", Icon: "!", Bg: Yellow, Fg: White, Action: Action{
		Kind:     ActionQuickAnnounce,
		Message:  in.Announce.Message,
		Duration: in.Announce.Duration,
	}}

	filter := in.StationFilter
	if filter == "" {
		filter = "All"
	}
	f[10] = Key{Label: truncate(filter, 10), Icon: "S", Bg: Orange, Fg: White, Action: Action{Kind: ActionCycleStation}}

	f[11] = connectionKey(in)

	f[12] = Key{Label: fmt.Sprintf("%d%%", in.Brightness), Icon: "B", Bg: Gray, Fg: White, Action: Action{Kind: ActionCycleBrightness}}
	f[13] = Key{Label: "HOME", Icon: "H", Bg: Purple, Fg: White, Action: Action{Kind: ActionHome}}
	f[14] = Key{Label: "Exit", Icon: "X", Bg: Red, Fg: White, Action: Action{Kind: ActionExit}}

	return f
}

// connectionKey shows how fresh the mirror is likely to be: green means
// the push channel is live, yellow means it should be but polling is
// covering, purple means polling was the plan all along.
func connectionKey(in MainInput) Key {
	live := len(in.Live)
	stats := fmt.Sprintf("%d/%d", in.CompletedMatches, in.TotalMatches)

	switch {
	case in.PushEnabled && in.PushStatus == events.PushConnected:
		label := "WS"
		if live > 0 {
			label = fmt.Sprintf("WS:%d", live)
		}
		return Key{Label: label, Subtext: stats, Icon: "~", Bg: Green, Fg: White}
	case in.PushEnabled:
		label := "POLL"
		if live > 0 {
			label = fmt.Sprintf("POLL:%d", live)
		}
		return Key{Label: label, Subtext: stats, Icon: "?", Bg: Yellow, Fg: White}
	default:
		label := stats
		if live > 0 {
			label = fmt.Sprintf("HTTP:%d", live)
		}
		return Key{Label: label, Subtext: stats, Icon: "#", Bg: Purple, Fg: White}
	}
}

// RenderMatchControl lays out single-match operation:
//
//	[ 0] [ 1] [ 2] [ 3] [ 4]   P1, Score, P2, P1 Win, P2 Win
//	[ 5] [ 6] [ 7] [ 8] [ 9]   +1 P1, Scores, +1 P2, Start/Stop, Forfeit
//	[10] [11] [12] [13] [14]   TV 1, TV 2, Back, HOME, Reopen
//
// The player-name keys double as forfeit triggers; the operator gets a
// confirmation view before anything is sent.
func RenderMatchControl(m *state.Match, stations []state.Station) Frame {
	var f Frame

	f[0] = Key{Label: playerLabel(m.Player1), Subtext: "hold: forfeit", Bg: Blue, Fg: White,
		Action: Action{Kind: ActionForfeit, MatchID: m.ID, Player: 1}}
	f[1] = Key{Label: m.ScoreDisplay(), Bg: DarkGray, Fg: White,
		Action: Action{Kind: ActionOpenScoreEntry, MatchID: m.ID}}
	f[2] = Key{Label: playerLabel(m.Player2), Subtext: "hold: forfeit", Bg: Red, Fg: White,
		Action: Action{Kind: ActionForfeit, MatchID: m.ID, Player: 2}}
	f[3] = Key{Label: "P1 Win", Icon: "W", Bg: Blue, Fg: White,
		Action: Action{Kind: ActionQuickWinner, MatchID: m.ID, Player: 1}}
	f[4] = Key{Label: "P2 Win", Icon: "W", Bg: Red, Fg: White,
		Action: Action{Kind: ActionQuickWinner, MatchID: m.ID, Player: 2}}

	f[5] = Key{Label: "+1 P1", Icon: "+", Bg: Blue, Fg: White,
		Action: Action{Kind: ActionBumpScore, MatchID: m.ID, Player: 1, Delta: 1}}
	f[6] = Key{Label: "Scores", Icon: "S", Bg: Purple, Fg: White,
		Action: Action{Kind: ActionOpenScoreEntry, MatchID: m.ID}}
	f[7] = Key{Label: "+1 P2", Icon: "+", Bg: Red, Fg: White,
		Action: Action{Kind: ActionBumpScore, MatchID: m.ID, Player: 2, Delta: 1}}

	if m.Underway() {
		f[8] = Key{Label: "STOP", Icon: "||", Bg: Orange, Fg: White,
			Action: Action{Kind: ActionUnmarkUnderway, MatchID: m.ID}}
	} else {
		f[8] = Key{Label: "START", Icon: ">", Bg: Green, Fg: White,
			Action: Action{Kind: ActionMarkUnderway, MatchID: m.ID}}
	}

	f[9] = Key{Label: "Forfeit", Subtext: "use names", Icon: "X", Bg: Gray, Fg: LightGray}

	for i := 0; i < 2; i++ {
		idx := 10 + i
		if i < len(stations) {
			st := stations[i]
			bg := Gray
			if m.StationName == st.Name {
				bg = Yellow
			}
			f[idx] = Key{Label: truncate(st.Name, 10), Bg: bg, Fg: White,
				Action: Action{Kind: ActionAssignStation, MatchID: m.ID, StationID: st.ID, StationName: st.Name}}
		} else {
			f[idx] = inert("---")
		}
	}

	f[12] = Key{Label: "Back", Icon: "<", Bg: Purple, Fg: White, Action: Action{Kind: ActionBack}}
	f[13] = Key{Label: "HOME", Icon: "H", Bg: Purple, Fg: White, Action: Action{Kind: ActionHome}}
	f[14] = Key{Label: "Reopen", Icon: "O", Bg: Yellow, Fg: White,
		Action: Action{Kind: ActionReopen, MatchID: m.ID}}

	return f
}

// RenderScoreEntry lays out the buffered score editor:
//
//	[ 0] [ 1] [ 2] [ 3] [ 4]   P1, -1 P1, P1:X, +1 P1, P2
//	[ 5] [ 6] [ 7] [ 8] [ 9]   Score, -1 P2, P2:X, +1 P2, Winner
//	[10] [11] [12] [13] [14]   Clear, Submit, Back, HOME, Cancel
//
// Nothing leaves the buffer until Submit or Winner.
func RenderScoreEntry(m *state.Match, pending [2]int) Frame {
	var f Frame

	f[0] = Key{Label: playerLabel(m.Player1), Bg: Blue, Fg: White}
	f[1] = Key{Label: "-1", Icon: "-", Bg: Blue, Fg: White,
		Action: Action{Kind: ActionPendingDelta, Player: 1, Delta: -1}}
	f[2] = Key{Label: fmt.Sprintf("P1:%d", pending[0]), Bg: Blue, Fg: White}
	f[3] = Key{Label: "+1", Icon: "+", Bg: Blue, Fg: White,
		Action: Action{Kind: ActionPendingDelta, Player: 1, Delta: 1}}
	f[4] = Key{Label: playerLabel(m.Player2), Bg: Red, Fg: White}

	f[5] = Key{Label: fmt.Sprintf("%d - %d", pending[0], pending[1]), Bg: DarkGray, Fg: White}
	f[6] = Key{Label: "-1", Icon: "-", Bg: Red, Fg: White,
		Action: Action{Kind: ActionPendingDelta, Player: 2, Delta: -1}}
	f[7] = Key{Label: fmt.Sprintf("P2:%d", pending[1]), Bg: Red, Fg: White}
	f[8] = Key{Label: "+1", Icon: "+", Bg: Red, Fg: White,
		Action: Action{Kind: ActionPendingDelta, Player: 2, Delta: 1}}
	f[9] = Key{Label: "Winner", Icon: "W", Bg: Green, Fg: White,
		Action: Action{Kind: ActionDeclareWinner, MatchID: m.ID}}

	f[10] = Key{Label: "Clear", Icon: "0", Bg: Gray, Fg: White, Action: Action{Kind: ActionClearPending}}
	f[11] = Key{Label: "Submit", Icon: "U", Bg: Cyan, Fg: White,
		Action: Action{Kind: ActionSubmitScore, MatchID: m.ID}}
	f[12] = Key{Label: "Back", Icon: "<", Bg: Purple, Fg: White, Action: Action{Kind: ActionBack}}
	f[13] = Key{Label: "HOME", Icon: "H", Bg: Purple, Fg: White, Action: Action{Kind: ActionHome}}
	f[14] = Key{Label: "Cancel", Icon: "X", Bg: Red, Fg: White, Action: Action{Kind: ActionBack}}

	return f
}

// RenderTicker maps presets onto keys 0-9, navigation on the last row.
func RenderTicker(presets []config.TickerPreset) Frame {
	var f Frame

	for i := 0; i < 10; i++ {
		if i < len(presets) {
			p := presets[i]
			f[i] = Key{Label: truncate(p.Label, 12), Bg: Blue, Fg: White, Action: Action{
				Kind:     ActionSendTicker,
				Message:  p.Message,
				Duration: p.Duration,
			}}
		} else {
			f[i] = inert("---")
		}
	}

	f[10] = inert("---")
	f[11] = inert("---")
	f[12] = Key{Label: "Back", Icon: "<", Bg: Purple, Fg: White, Action: Action{Kind: ActionBack}}
	f[13] = Key{Label: "HOME", Icon: "H", Bg: Purple, Fg: White, Action: Action{Kind: ActionHome}}
	f[14] = Key{Label: "Cancel", Icon: "X", Bg: Red, Fg: White, Action: Action{Kind: ActionBack}}

	return f
}

// RenderConfirm blacks the surface out except for the question and the
// two answers. Deliberately sparse so a stray press hits nothing.
func RenderConfirm(message string) Frame {
	var f Frame
	for i := range f {
		f[i] = blank()
	}
	f[4] = Key{Label: truncate(message, 12), Bg: DarkGray, Fg: White}
	f[9] = Key{Label: "Confirm", Icon: "Y", Bg: Green, Fg: White, Action: Action{Kind: ActionConfirmYes}}
	f[11] = Key{Label: "Cancel", Icon: "N", Bg: Red, Fg: White, Action: Action{Kind: ActionConfirmNo}}
	return f
}
