package engine

import (
	"context"
	"errors"
	"time"
)

var ErrNotYourTurn = errors.New("not your turn")
var ErrNotParticipant = errors.New("not part of this match")
var ErrNoPendingPlayer = errors.New("no player drawn")
var ErrSlotOccupied = errors.New("slot already occupied")
var ErrSlotEmpty = errors.New("slot is empty")
var ErrUnknownSlot = errors.New("unknown slot")
var ErrBudgetExhausted = errors.New("budget exhausted")
var ErrPoolExhausted = errors.New("no eligible players left")
var ErrInvalidState = errors.New("action not allowed in current state")
var ErrUnsupportedCommand = errors.New("unsupported command")
var ErrStaleReference = errors.New("player no longer in expected slot")
var ErrTradeInProgress = errors.New("trade already in progress")
var ErrNoTrade = errors.New("no active trade")
var ErrAlreadyConfirmed = errors.New("already confirmed")
var ErrPlayerNotOnRoster = errors.New("player not on roster")
var ErrUnknownPlayer = errors.New("unknown player")

type State string

const (
	StateDrafting   State = "DRAFTING"
	StateReadyCheck State = "READY_CHECK"
	StateSimulating State = "SIMULATING"
	StateFinished   State = "FINISHED"
)

type CommandType string

const (
	CmdDraw          CommandType = "draw"
	CmdAssign        CommandType = "assign"
	CmdSkip          CommandType = "skip"
	CmdReplaceStart  CommandType = "replace_start"
	CmdReplaceExec   CommandType = "replace_exec"
	CmdReplaceCancel CommandType = "replace_cancel"
	CmdReady         CommandType = "ready"
	CmdTradeStart    CommandType = "trade_start"
	CmdTradeTarget   CommandType = "trade_target"
	CmdTradeAccept   CommandType = "trade_accept"
	CmdTradeReject   CommandType = "trade_reject"
	CmdTradeCounter  CommandType = "trade_counter"
	CmdTradeConfirm  CommandType = "trade_confirm"
	CmdTradeCancel   CommandType = "trade_cancel"
)

/*
	CmdDraw          -> EvtPlayerDrawn (same player again while one is pending)
	CmdAssign        -> EvtPlayerAssigned -> EvtTurnAdvanced | EvtDraftCompleted
	CmdSkip          -> EvtPlayerSkipped -> EvtTurnAdvanced
	CmdReplaceStart  -> EvtReplaceMenu (no mutation)
	CmdReplaceExec   -> EvtPlayerReplaced -> EvtTurnAdvanced
	CmdReplaceCancel -> EvtReplaceCancelled (no mutation)
	CmdReady         -> EvtTeamReady [-> EvtMatchFinished]
	CmdTrade*        -> EvtTrade* (see trade.go)
*/

type Command struct {
	Type     CommandType
	ActorID  string
	Slot     Slot
	PlayerID string
}

type EventType string

const (
	EvtPlayerDrawn        EventType = "PlayerDrawn"
	EvtPlayerAssigned     EventType = "PlayerAssigned"
	EvtPlayerSkipped      EventType = "PlayerSkipped"
	EvtReplaceMenu        EventType = "ReplaceMenu"
	EvtReplaceCancelled   EventType = "ReplaceCancelled"
	EvtPlayerReplaced     EventType = "PlayerReplaced"
	EvtTurnAdvanced       EventType = "TurnAdvanced"
	EvtDraftCompleted     EventType = "DraftCompleted"
	EvtTeamReady          EventType = "TeamReady"
	EvtTradeStarted       EventType = "TradeStarted"
	EvtTradeTargetPicked  EventType = "TradeTargetPicked"
	EvtTradeAccepted      EventType = "TradeAccepted"
	EvtTradeRejected      EventType = "TradeRejected"
	EvtTradeCounterPicked EventType = "TradeCounterPicked"
	EvtTradeConfirmed     EventType = "TradeConfirmed"
	EvtTradeExecuted      EventType = "TradeExecuted"
	EvtTradeCancelled     EventType = "TradeCancelled"
	EvtTradeAborted       EventType = "TradeAborted"
	EvtMatchFinished      EventType = "MatchFinished"
)

type Event struct {
	Type       EventType `json:"type"`
	ActorID    string    `json:"actor_id,omitempty"`
	Slot       Slot      `json:"slot,omitempty"`
	PlayerID   string    `json:"player_id,omitempty"`
	PreviousID string    `json:"previous_id,omitempty"`
}

// Catalog resolves the player snapshot copied into a slot at assignment time.
type Catalog interface {
	Get(ctx context.Context, id string) (Player, error)
}

// Rand is satisfied by *rand.Rand from math/rand/v2.
type Rand interface {
	IntN(n int) int
}

type Rules struct {
	MaxRedraws      int
	MaxReplacements int
	TradeBudget     int
	Scoring         ScoringRules
}

func DefaultRules() Rules {
	return Rules{
		MaxRedraws:      2,
		MaxReplacements: 1,
		TradeBudget:     1,
		Scoring:         DefaultScoringRules(),
	}
}

type Engine struct {
	catalog Catalog
	rng     Rand
	rules   Rules
	now     func() time.Time
}

func New(catalog Catalog, rng Rand, rules Rules) *Engine {
	return &Engine{catalog: catalog, rng: rng, rules: rules, now: time.Now}
}

func (e *Engine) Rules() Rules { return e.rules }

// Apply runs one command against m. On error the original match is returned
// untouched, except for ErrStaleReference where the returned match carries the
// cleared trade offer and must be persisted (see CommitsOnError).
func (e *Engine) Apply(ctx context.Context, m Match, cmd Command) ([]Event, Match, error) {
	switch cmd.Type {
	case CmdDraw, CmdAssign, CmdSkip, CmdReplaceStart, CmdReplaceExec, CmdReplaceCancel:
		return e.applyDraft(ctx, m, cmd)
	case CmdReady:
		return e.applyReady(m, cmd)
	case CmdTradeStart, CmdTradeTarget, CmdTradeAccept, CmdTradeReject,
		CmdTradeCounter, CmdTradeConfirm, CmdTradeCancel:
		return e.applyTrade(m, cmd)
	default:
		return nil, m, ErrUnsupportedCommand
	}
}

// CommitsOnError reports whether the match returned alongside err is a new
// state that has to be saved.
func CommitsOnError(err error) bool {
	return errors.Is(err, ErrStaleReference)
}

func (e *Engine) applyReady(m Match, cmd Command) ([]Event, Match, error) {
	if m.State != StateReadyCheck {
		return nil, m, ErrInvalidState
	}
	if m.TeamOf(cmd.ActorID) == nil {
		return nil, m, ErrNotParticipant
	}
	if m.Trade != nil {
		return nil, m, ErrTradeInProgress
	}

	next := m.Clone()
	team := next.teamOf(cmd.ActorID)
	events := []Event{{Type: EvtTeamReady, ActorID: cmd.ActorID}}
	if team.Ready {
		// Double tap: already ready, nothing to do.
		return events, m, nil
	}
	team.Ready = true

	if next.TeamA.Ready && next.TeamB.Ready {
		next.State = StateSimulating
		res := Score(next, e.rules.Scoring)
		next.TeamA.Score = res.ScoreA
		next.TeamB.Score = res.ScoreB
		next.Result = &res
		finished := e.now().UTC()
		next.FinishedAt = &finished
		next.State = StateFinished
		events = append(events, Event{Type: EvtMatchFinished})
	}
	return events, next, nil
}
