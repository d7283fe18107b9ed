package draft

import (
	"fmt"
	"slices"

	"github.com/DoyleJ11/player-draft-backend/internal/engine"
)

// View tells a chat adapter which screen to draw for the match.
type View string

const (
	ViewBoard       View = "board"
	ViewCard        View = "card"
	ViewReplaceMenu View = "replace_menu"
	ViewReadyCheck  View = "ready_check"
	ViewTrade       View = "trade"
	ViewResult      View = "result"
)

// Option is one button the adapter may offer. An empty ActorID means either
// participant may press it.
type Option struct {
	Action   engine.CommandType `json:"action"`
	ActorID  string             `json:"actor_id,omitempty"`
	Slot     engine.Slot        `json:"slot,omitempty"`
	PlayerID string             `json:"player_id,omitempty"`
	Label    string             `json:"label"`
}

// Render is the instruction returned for every accepted action and pushed to
// watchers. It carries the whole match so adapters stay stateless.
type Render struct {
	MatchID string         `json:"match_id"`
	ChatID  string         `json:"chat_id"`
	Version int64          `json:"version"`
	View    View           `json:"view"`
	State   engine.State   `json:"state"`
	Turn    string         `json:"current_turn,omitempty"`
	Pending *engine.Player `json:"pending_player,omitempty"`
	Match   engine.Match   `json:"match"`
	Events  []engine.Event `json:"events,omitempty"`
	Options []Option       `json:"options"`
	Result  *engine.Result `json:"result,omitempty"`
}

func buildRender(m engine.Match, events []engine.Event, pending *engine.Player, tradeBudget int) Render {
	r := Render{
		MatchID: m.ID,
		ChatID:  m.ChatID,
		Version: m.Version,
		State:   m.State,
		Match:   m,
		Events:  events,
		Result:  m.Result,
		Options: []Option{},
	}
	if m.State == engine.StateDrafting {
		r.Turn = m.CurrentTurn
		r.Pending = pending
	}

	switch m.State {
	case engine.StateDrafting:
		r.View, r.Options = draftOptions(m, events)
	case engine.StateReadyCheck:
		if m.Trade != nil {
			r.View, r.Options = ViewTrade, tradeOptions(m)
		} else {
			r.View, r.Options = ViewReadyCheck, readyOptions(m, tradeBudget)
		}
	default:
		r.View = ViewResult
	}
	return r
}

func draftOptions(m engine.Match, events []engine.Event) (View, []Option) {
	team := m.TeamOf(m.CurrentTurn)
	if team == nil {
		return ViewBoard, []Option{}
	}
	actor := team.OwnerID
	var opts []Option

	skip := func() {
		if team.Redraws > 0 {
			opts = append(opts, Option{Action: engine.CmdSkip, ActorID: actor, Label: fmt.Sprintf("Skip (%d left)", team.Redraws)})
		}
	}

	if m.PendingPlayerID == "" {
		opts = append(opts, Option{Action: engine.CmdDraw, ActorID: actor, Label: "Draw"})
		skip()
		return ViewBoard, opts
	}

	if engine.ContainsEvent(events, engine.EvtReplaceMenu) {
		for _, e := range team.Slots {
			if e.Player == nil {
				continue
			}
			opts = append(opts, Option{
				Action:   engine.CmdReplaceExec,
				ActorID:  actor,
				Slot:     e.Slot,
				PlayerID: e.Player.ID,
				Label:    fmt.Sprintf("%s: %s", e.Slot, e.Player.Name),
			})
		}
		opts = append(opts, Option{Action: engine.CmdReplaceCancel, ActorID: actor, Label: "Back"})
		return ViewReplaceMenu, opts
	}

	for _, s := range team.EmptySlots() {
		opts = append(opts, Option{Action: engine.CmdAssign, ActorID: actor, Slot: s, Label: string(s)})
	}
	skip()
	if team.Replacements > 0 && len(team.FilledSlots()) > 0 {
		opts = append(opts, Option{Action: engine.CmdReplaceStart, ActorID: actor, Label: "Replace"})
	}
	return ViewCard, opts
}

func readyOptions(m engine.Match, tradeBudget int) []Option {
	opts := []Option{}
	for _, t := range []engine.Team{m.TeamA, m.TeamB} {
		if !t.Ready {
			opts = append(opts, Option{Action: engine.CmdReady, ActorID: t.OwnerID, Label: "Ready"})
		}
	}
	if m.TradesUsed() < tradeBudget {
		opts = append(opts, Option{Action: engine.CmdTradeStart, Label: "Trade"})
	}
	return opts
}

func tradeOptions(m engine.Match) []Option {
	offer := m.Trade
	initiator := m.TeamOf(offer.InitiatorID)
	opponent := m.OpponentOf(offer.InitiatorID)
	opts := []Option{}

	roster := func(action engine.CommandType, actor string, t *engine.Team) {
		for _, e := range t.Slots {
			if e.Player == nil {
				continue
			}
			opts = append(opts, Option{
				Action:   action,
				ActorID:  actor,
				Slot:     e.Slot,
				PlayerID: e.Player.ID,
				Label:    fmt.Sprintf("%s (%s)", e.Player.Name, e.Slot),
			})
		}
	}

	switch offer.Step {
	case engine.TradePickTarget:
		roster(engine.CmdTradeTarget, initiator.OwnerID, opponent)
		opts = append(opts, Option{Action: engine.CmdTradeCancel, ActorID: initiator.OwnerID, Label: "Cancel"})
	case engine.TradeWaitAccept:
		opts = append(opts,
			Option{Action: engine.CmdTradeAccept, ActorID: opponent.OwnerID, Label: "Accept"},
			Option{Action: engine.CmdTradeReject, ActorID: opponent.OwnerID, Label: "Reject"},
			Option{Action: engine.CmdTradeCancel, ActorID: initiator.OwnerID, Label: "Cancel"},
		)
	case engine.TradePickCounter:
		roster(engine.CmdTradeCounter, opponent.OwnerID, initiator)
		opts = append(opts, Option{Action: engine.CmdTradeReject, ActorID: opponent.OwnerID, Label: "Reject"})
	case engine.TradeConfirm:
		for _, t := range []*engine.Team{initiator, opponent} {
			if !slices.Contains(offer.Confirms, t.OwnerID) {
				opts = append(opts, Option{Action: engine.CmdTradeConfirm, ActorID: t.OwnerID, Label: "Confirm"})
			}
		}
		opts = append(opts, Option{Action: engine.CmdTradeCancel, Label: "Cancel"})
	}
	return opts
}
