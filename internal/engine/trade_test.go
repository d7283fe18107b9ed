package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTrade_CompletedSwapConsumesBudget(t *testing.T) {
	e := newTestEngine(testCatalog{}, &seqRand{})
	m := completedMatch()

	steps := []Command{
		{Type: CmdTradeStart, ActorID: "a"},
		{Type: CmdTradeTarget, ActorID: "a", PlayerID: "B2"},  // a wants b's Top
		{Type: CmdTradeAccept, ActorID: "b"},
		{Type: CmdTradeCounter, ActorID: "b", PlayerID: "A6"}, // b wants a's Pacer
		{Type: CmdTradeConfirm, ActorID: "b"},
	}
	for _, cmd := range steps {
		_, m = mustApply(t, e, m, cmd)
	}
	if m.Trade == nil || m.Trade.Step != TradeConfirm || len(m.Trade.Confirms) != 1 {
		t.Fatalf("expected one confirmation pending, got %+v", m.Trade)
	}

	if _, _, err := e.Apply(context.Background(), m, Command{Type: CmdTradeConfirm, ActorID: "b"}); !errors.Is(err, ErrAlreadyConfirmed) {
		t.Fatalf("want ErrAlreadyConfirmed, got %v", err)
	}

	events, m := mustApply(t, e, m, Command{Type: CmdTradeConfirm, ActorID: "a"})
	if !ContainsEvent(events, EvtTradeExecuted) {
		t.Fatalf("expected EvtTradeExecuted, got %+v", events)
	}

	top, _ := m.TeamB.Occupant(SlotTop)
	pacer, _ := m.TeamA.Occupant(SlotPacer)
	if top.ID != "A6" || pacer.ID != "B2" {
		t.Fatalf("swap went wrong: b.Top=%s a.Pacer=%s", top.ID, pacer.ID)
	}
	if m.Trade != nil || m.TeamA.TradesUsed != 1 || m.TradesUsed() != 1 {
		t.Fatalf("expected offer cleared and one trade used, got %+v", m)
	}

	for _, actor := range []string{"a", "b"} {
		_, _, err := e.Apply(context.Background(), m, Command{Type: CmdTradeStart, ActorID: actor})
		if !errors.Is(err, ErrBudgetExhausted) {
			t.Fatalf("second trade by %s: want ErrBudgetExhausted, got %v", actor, err)
		}
	}
}

func TestTrade_CancelOrRejectLeavesRostersUnchanged(t *testing.T) {
	e := newTestEngine(testCatalog{}, &seqRand{})
	orig := completedMatch()

	cases := []struct {
		name  string
		steps []Command
	}{
		{
			name: "rejected on offer",
			steps: []Command{
				{Type: CmdTradeStart, ActorID: "a"},
				{Type: CmdTradeTarget, ActorID: "a", PlayerID: "B0"},
				{Type: CmdTradeReject, ActorID: "b"},
			},
		},
		{
			name: "cancelled while picking counter",
			steps: []Command{
				{Type: CmdTradeStart, ActorID: "b"},
				{Type: CmdTradeTarget, ActorID: "b", PlayerID: "A1"},
				{Type: CmdTradeAccept, ActorID: "a"},
				{Type: CmdTradeReject, ActorID: "a"},
			},
		},
		{
			name: "cancelled after one confirmation",
			steps: []Command{
				{Type: CmdTradeStart, ActorID: "a"},
				{Type: CmdTradeTarget, ActorID: "a", PlayerID: "B3"},
				{Type: CmdTradeAccept, ActorID: "b"},
				{Type: CmdTradeCounter, ActorID: "b", PlayerID: "A4"},
				{Type: CmdTradeConfirm, ActorID: "a"},
				{Type: CmdTradeCancel, ActorID: "b"},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := orig
			for _, cmd := range tc.steps {
				_, m = mustApply(t, e, m, cmd)
			}
			if diff := cmp.Diff(orig.TeamA, m.TeamA); diff != "" {
				t.Fatalf("team a changed (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(orig.TeamB, m.TeamB); diff != "" {
				t.Fatalf("team b changed (-want +got):\n%s", diff)
			}
			if m.Trade != nil || m.TradesUsed() != 0 {
				t.Fatalf("expected no offer and unused budget, got %+v used=%d", m.Trade, m.TradesUsed())
			}
			// Budget still available.
			mustApply(t, e, m, Command{Type: CmdTradeStart, ActorID: "a"})
		})
	}
}

func TestTrade_StepGuards(t *testing.T) {
	e := newTestEngine(testCatalog{}, &seqRand{})
	m := completedMatch()

	cases := []struct {
		name    string
		setup   func(Match) Match
		cmd     Command
		wantErr error
	}{
		{
			name:    "trade while drafting",
			setup:   func(m Match) Match { m.State = StateDrafting; return m },
			cmd:     Command{Type: CmdTradeStart, ActorID: "a"},
			wantErr: ErrInvalidState,
		},
		{
			name:    "bystander",
			setup:   func(m Match) Match { return m },
			cmd:     Command{Type: CmdTradeStart, ActorID: "z"},
			wantErr: ErrNotParticipant,
		},
		{
			name: "second start",
			setup: func(m Match) Match {
				m.Trade = &TradeOffer{InitiatorID: "a", Step: TradePickTarget}
				return m
			},
			cmd:     Command{Type: CmdTradeStart, ActorID: "b"},
			wantErr: ErrTradeInProgress,
		},
		{
			name: "target from own roster",
			setup: func(m Match) Match {
				m.Trade = &TradeOffer{InitiatorID: "a", Step: TradePickTarget}
				return m
			},
			cmd:     Command{Type: CmdTradeTarget, ActorID: "a", PlayerID: "A0"},
			wantErr: ErrPlayerNotOnRoster,
		},
		{
			name: "opponent picks target",
			setup: func(m Match) Match {
				m.Trade = &TradeOffer{InitiatorID: "a", Step: TradePickTarget}
				return m
			},
			cmd:     Command{Type: CmdTradeTarget, ActorID: "b", PlayerID: "B0"},
			wantErr: ErrNotYourTurn,
		},
		{
			name: "initiator accepts own offer",
			setup: func(m Match) Match {
				m.Trade = &TradeOffer{InitiatorID: "a", Step: TradeWaitAccept, TargetID: "B0"}
				return m
			},
			cmd:     Command{Type: CmdTradeAccept, ActorID: "a"},
			wantErr: ErrNotYourTurn,
		},
		{
			name: "confirm before counter",
			setup: func(m Match) Match {
				m.Trade = &TradeOffer{InitiatorID: "a", Step: TradePickCounter, TargetID: "B0"}
				return m
			},
			cmd:     Command{Type: CmdTradeConfirm, ActorID: "a"},
			wantErr: ErrInvalidState,
		},
		{
			name:    "cancel without offer",
			setup:   func(m Match) Match { return m },
			cmd:     Command{Type: CmdTradeCancel, ActorID: "a"},
			wantErr: ErrNoTrade,
		},
		{
			name: "ready during negotiation",
			setup: func(m Match) Match {
				m.Trade = &TradeOffer{InitiatorID: "a", Step: TradePickTarget}
				return m
			},
			cmd:     Command{Type: CmdReady, ActorID: "b"},
			wantErr: ErrTradeInProgress,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := e.Apply(context.Background(), tc.setup(m.Clone()), tc.cmd)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestTrade_StaleReferenceClearsOffer(t *testing.T) {
	e := newTestEngine(testCatalog{}, &seqRand{})
	m := completedMatch()
	// Counter no longer on a's roster.
	m.Trade = &TradeOffer{InitiatorID: "a", Step: TradeConfirm, TargetID: "B0", CounterID: "GONE", Confirms: []string{"a"}}

	events, next, err := e.Apply(context.Background(), m, Command{Type: CmdTradeConfirm, ActorID: "b"})
	if !errors.Is(err, ErrStaleReference) || !CommitsOnError(err) {
		t.Fatalf("want ErrStaleReference, got %v", err)
	}
	if !ContainsEvent(events, EvtTradeAborted) {
		t.Fatalf("expected EvtTradeAborted, got %+v", events)
	}
	if next.Trade != nil || next.TradesUsed() != 0 {
		t.Fatalf("expected cleared offer and unused budget, got %+v", next.Trade)
	}
	if diff := cmp.Diff(m.TeamA, next.TeamA); diff != "" {
		t.Fatalf("team a changed (-want +got):\n%s", diff)
	}
}
