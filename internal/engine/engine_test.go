package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"
)

type testCatalog map[string]Player

func (c testCatalog) Get(_ context.Context, id string) (Player, error) {
	p, ok := c[id]
	if !ok {
		return Player{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	return p, nil
}

// seqRand returns its values in order, modulo n.
type seqRand struct {
	vals []int
	i    int
}

func (r *seqRand) IntN(n int) int {
	if len(r.vals) == 0 {
		return 0
	}
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v % n
}

func newCatalog(n int) testCatalog {
	c := testCatalog{}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("PL_%02d", i)
		c[id] = Player{
			ID:    id,
			Name:  "Player " + id,
			Roles: []Role{RoleBatter},
			Stats: map[string]StatBlock{"international": {"batting_power": 40 + i}},
		}
	}
	return c
}

func poolOf(c testCatalog) []string {
	ids := make([]string, 0, len(c))
	for i := 0; i < len(c); i++ {
		ids = append(ids, fmt.Sprintf("PL_%02d", i))
	}
	return ids
}

func newTestEngine(c testCatalog, rng Rand) *Engine {
	e := New(c, rng, DefaultRules())
	e.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return e
}

func newTestMatch(pool []string) Match {
	return NewMatchWithTurn("m1", "chat", ModeInternational,
		Participant{ID: "a", Name: "Alice"}, Participant{ID: "b", Name: "Bob"},
		pool, "a", DefaultRules(), time.Unix(0, 0).UTC())
}

func mustApply(t *testing.T, e *Engine, m Match, cmd Command) ([]Event, Match) {
	t.Helper()
	events, next, err := e.Apply(context.Background(), m, cmd)
	if err != nil {
		t.Fatalf("%s by %s: unexpected err %v", cmd.Type, cmd.ActorID, err)
	}
	return events, next
}

func TestTurnOrder_RejectsOutOfTurnAction(t *testing.T) {
	c := newCatalog(4)
	e := newTestEngine(c, &seqRand{})
	m := newTestMatch(poolOf(c))

	cases := []CommandType{CmdDraw, CmdAssign, CmdSkip, CmdReplaceStart, CmdReplaceExec, CmdReplaceCancel}
	for _, ct := range cases {
		t.Run(string(ct), func(t *testing.T) {
			_, next, err := e.Apply(context.Background(), m, Command{Type: ct, ActorID: "b", Slot: SlotTop})
			if !errors.Is(err, ErrNotYourTurn) {
				t.Fatalf("want ErrNotYourTurn, got %v", err)
			}
			if next.TeamB.Redraws != 2 || next.CurrentTurn != "a" {
				t.Fatalf("state mutated on rejection: %+v", next)
			}
		})
	}
}

func TestDraw_RedeliveryReturnsSamePlayer(t *testing.T) {
	c := newCatalog(10)
	e := newTestEngine(c, &seqRand{vals: []int{3, 7, 1}})
	m := newTestMatch(poolOf(c))

	events, m := mustApply(t, e, m, Command{Type: CmdDraw, ActorID: "a"})
	first := events[0].PlayerID
	if m.PendingPlayerID != first {
		t.Fatalf("pending %q, drawn %q", m.PendingPlayerID, first)
	}

	for i := 0; i < 3; i++ {
		events, m = mustApply(t, e, m, Command{Type: CmdDraw, ActorID: "a"})
		if events[0].PlayerID != first || m.PendingPlayerID != first {
			t.Fatalf("draw %d: got %q, want %q", i, events[0].PlayerID, first)
		}
	}
	if len(m.DraftPool) != 10 {
		t.Fatalf("draw must not touch the pool, got %d ids", len(m.DraftPool))
	}
	if m.CurrentTurn != "a" {
		t.Fatalf("draw must not switch turn")
	}
}

func TestDraw_PoolExhaustedLeavesStateUnchanged(t *testing.T) {
	c := newCatalog(2)
	e := newTestEngine(c, &seqRand{})
	m := newTestMatch(poolOf(c))
	// Both pool ids already sit in slots.
	p0, p1 := c["PL_00"], c["PL_01"]
	m.TeamA.put(SlotTop, &p0)
	m.TeamB.put(SlotTop, &p1)

	_, next, err := e.Apply(context.Background(), m, Command{Type: CmdDraw, ActorID: "a"})
	if !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("want ErrPoolExhausted, got %v", err)
	}
	if next.State != StateDrafting || next.PendingPlayerID != "" {
		t.Fatalf("expected untouched drafting match, got %+v", next)
	}
}

func TestAssign_Rejections(t *testing.T) {
	c := newCatalog(5)
	e := newTestEngine(c, &seqRand{})
	base := newTestMatch(poolOf(c))
	filled := c["PL_04"]
	base.TeamA.put(SlotCaptain, &filled)

	withPending := base.Clone()
	withPending.PendingPlayerID = "PL_00"

	cases := []struct {
		name    string
		setup   Match
		slot    Slot
		wantErr error
	}{
		{name: "nothing drawn", setup: base, slot: SlotTop, wantErr: ErrNoPendingPlayer},
		{name: "slot occupied", setup: withPending, slot: SlotCaptain, wantErr: ErrSlotOccupied},
		{name: "slot outside layout", setup: withPending, slot: SlotGK, wantErr: ErrUnknownSlot},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := e.Apply(context.Background(), tc.setup, Command{Type: CmdAssign, ActorID: "a", Slot: tc.slot})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestAssign_IgnoresRoleMismatch(t *testing.T) {
	c := newCatalog(3)
	e := newTestEngine(c, &seqRand{})
	m := newTestMatch(poolOf(c))
	m.PendingPlayerID = "PL_01" // a Batter

	events, m := mustApply(t, e, m, Command{Type: CmdAssign, ActorID: "a", Slot: SlotWK})
	if !ContainsEvent(events, EvtPlayerAssigned) {
		t.Fatalf("expected EvtPlayerAssigned, got %+v", events)
	}
	p, _ := m.TeamA.Occupant(SlotWK)
	if p == nil || p.ID != "PL_01" {
		t.Fatalf("expected PL_01 in WK, got %+v", p)
	}
	for _, id := range m.DraftPool {
		if id == "PL_01" {
			t.Fatalf("assigned player still in pool")
		}
	}
	if m.PendingPlayerID != "" || m.CurrentTurn != "b" {
		t.Fatalf("expected pending cleared and turn passed, got pending=%q turn=%q", m.PendingPlayerID, m.CurrentTurn)
	}
}

func TestSkip_ConsumesBudgetAndSwitchesTurn(t *testing.T) {
	c := newCatalog(10)
	e := newTestEngine(c, &seqRand{vals: []int{0}})
	m := newTestMatch(poolOf(c))

	// a: draw then skip; the drawn player is gone for good.
	events, m := mustApply(t, e, m, Command{Type: CmdDraw, ActorID: "a"})
	discarded := events[0].PlayerID
	_, m = mustApply(t, e, m, Command{Type: CmdSkip, ActorID: "a"})
	if m.TeamA.Redraws != 1 || m.CurrentTurn != "b" || m.PendingPlayerID != "" {
		t.Fatalf("after first skip: %+v", m)
	}
	for _, id := range m.Candidates() {
		if id == discarded {
			t.Fatalf("skipped player %s is drawable again", discarded)
		}
	}

	// b skips without drawing, a skips its second redraw.
	_, m = mustApply(t, e, m, Command{Type: CmdSkip, ActorID: "b"})
	_, m = mustApply(t, e, m, Command{Type: CmdSkip, ActorID: "a"})
	if m.TeamA.Redraws != 0 || m.CurrentTurn != "b" {
		t.Fatalf("after second skip: redraws=%d turn=%s", m.TeamA.Redraws, m.CurrentTurn)
	}

	_, m = mustApply(t, e, m, Command{Type: CmdSkip, ActorID: "b"})
	_, _, err := e.Apply(context.Background(), m, Command{Type: CmdSkip, ActorID: "a"})
	if !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("third skip: want ErrBudgetExhausted, got %v", err)
	}
}

func TestSwitchTurn_StaysWithIncompleteTeam(t *testing.T) {
	c := newCatalog(40)
	e := newTestEngine(c, &seqRand{})
	m := newTestMatch(poolOf(c))

	// Team a complete, b has one slot left open plus one more to go.
	i := 0
	for _, s := range m.TeamA.Slots {
		p := c[fmt.Sprintf("PL_%02d", i)]
		m.TeamA.put(s.Slot, &p)
		i++
	}
	layout := m.Mode.Layout()
	for _, s := range layout[:len(layout)-2] {
		p := c[fmt.Sprintf("PL_%02d", i)]
		m.TeamB.put(s, &p)
		i++
	}
	m.CurrentTurn = "b"

	// Skip does not complete b: turn stays with b.
	_, m = mustApply(t, e, m, Command{Type: CmdSkip, ActorID: "b"})
	if m.CurrentTurn != "b" {
		t.Fatalf("skip: turn moved to complete team")
	}

	// Assign fills one of two open slots: still b's turn.
	_, m = mustApply(t, e, m, Command{Type: CmdDraw, ActorID: "b"})
	_, m = mustApply(t, e, m, Command{Type: CmdAssign, ActorID: "b", Slot: layout[len(layout)-2]})
	if m.CurrentTurn != "b" || m.State != StateDrafting {
		t.Fatalf("assign: turn=%s state=%s", m.CurrentTurn, m.State)
	}

	// Final assign completes the draft without switching turn.
	_, m = mustApply(t, e, m, Command{Type: CmdDraw, ActorID: "b"})
	events, m := mustApply(t, e, m, Command{Type: CmdAssign, ActorID: "b", Slot: layout[len(layout)-1]})
	if !ContainsEvent(events, EvtDraftCompleted) || m.State != StateReadyCheck {
		t.Fatalf("expected ready check, got %s %+v", m.State, events)
	}
	if m.CurrentTurn != "b" {
		t.Fatalf("completing the draft must not switch turn")
	}
}

func TestReplace_Flow(t *testing.T) {
	c := newCatalog(10)
	e := newTestEngine(c, &seqRand{})
	m := newTestMatch(poolOf(c))
	old := c["PL_09"]
	m.TeamA.put(SlotTop, &old)
	m.removeFromPool("PL_09")

	if _, _, err := e.Apply(context.Background(), m, Command{Type: CmdReplaceStart, ActorID: "a"}); !errors.Is(err, ErrNoPendingPlayer) {
		t.Fatalf("replace without draw: want ErrNoPendingPlayer, got %v", err)
	}

	_, m = mustApply(t, e, m, Command{Type: CmdDraw, ActorID: "a"})
	pending := m.PendingPlayerID

	events, menu := mustApply(t, e, m, Command{Type: CmdReplaceStart, ActorID: "a"})
	if !ContainsEvent(events, EvtReplaceMenu) || menu.PendingPlayerID != pending || menu.TeamA.Replacements != 1 {
		t.Fatalf("replace start mutated state: %+v", menu)
	}

	_, back := mustApply(t, e, menu, Command{Type: CmdReplaceCancel, ActorID: "a"})
	if back.PendingPlayerID != pending || back.TeamA.Replacements != 1 {
		t.Fatalf("replace cancel mutated state: %+v", back)
	}

	if _, _, err := e.Apply(context.Background(), back, Command{Type: CmdReplaceExec, ActorID: "a", Slot: SlotWK}); !errors.Is(err, ErrSlotEmpty) {
		t.Fatalf("replace into empty slot: want ErrSlotEmpty, got %v", err)
	}

	events, m = mustApply(t, e, back, Command{Type: CmdReplaceExec, ActorID: "a", Slot: SlotTop})
	p, _ := m.TeamA.Occupant(SlotTop)
	if p.ID != pending {
		t.Fatalf("expected %s in Top, got %s", pending, p.ID)
	}
	if events[0].PreviousID != "PL_09" {
		t.Fatalf("expected PL_09 replaced, got %+v", events[0])
	}
	if m.TeamA.Replacements != 0 || m.PendingPlayerID != "" || m.CurrentTurn != "b" {
		t.Fatalf("after replace: %+v", m)
	}
	for _, id := range m.Candidates() {
		if id == "PL_09" || id == pending {
			t.Fatalf("%s is drawable after replace", id)
		}
	}

	// a's replacement budget is spent.
	_, m = mustApply(t, e, m, Command{Type: CmdSkip, ActorID: "b"})
	_, m = mustApply(t, e, m, Command{Type: CmdDraw, ActorID: "a"})
	if _, _, err := e.Apply(context.Background(), m, Command{Type: CmdReplaceStart, ActorID: "a"}); !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("want ErrBudgetExhausted, got %v", err)
	}
}

func TestDraft_EachPlayerLandsInOneSlot(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprintf("seed-%d", seed), func(t *testing.T) {
			c := newCatalog(30)
			e := newTestEngine(c, rand.New(rand.NewPCG(seed, seed*7)))
			m := newTestMatch(poolOf(c))

			assigned := map[string]bool{}
			for steps := 0; m.State == StateDrafting; steps++ {
				if steps > 100 {
					t.Fatalf("draft did not converge")
				}
				actor := m.CurrentTurn
				_, m = mustApply(t, e, m, Command{Type: CmdDraw, ActorID: actor})
				slot := m.TeamOf(actor).EmptySlots()[0]
				events, next := mustApply(t, e, m, Command{Type: CmdAssign, ActorID: actor, Slot: slot})
				pid := events[0].PlayerID
				if assigned[pid] {
					t.Fatalf("%s assigned twice", pid)
				}
				assigned[pid] = true
				for _, id := range next.DraftPool {
					if assigned[id] {
						t.Fatalf("%s back in the pool", id)
					}
				}
				m = next
			}

			if m.State != StateReadyCheck {
				t.Fatalf("want READY_CHECK, got %s", m.State)
			}
			if len(assigned) != 2*len(m.Mode.Layout()) {
				t.Fatalf("want %d assignments, got %d", 2*len(m.Mode.Layout()), len(assigned))
			}
		})
	}
}

func TestApply_RejectsDraftActionsAfterDraft(t *testing.T) {
	c := newCatalog(2)
	e := newTestEngine(c, &seqRand{})
	m := newTestMatch(poolOf(c))
	m.State = StateReadyCheck

	for _, ct := range []CommandType{CmdDraw, CmdAssign, CmdSkip} {
		_, _, err := e.Apply(context.Background(), m, Command{Type: ct, ActorID: "a", Slot: SlotTop})
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("%s: want ErrInvalidState, got %v", ct, err)
		}
	}
	if _, _, err := e.Apply(context.Background(), m, Command{Type: "hover", ActorID: "a"}); !errors.Is(err, ErrUnsupportedCommand) {
		t.Fatalf("want ErrUnsupportedCommand, got %v", err)
	}
}

func TestReady_BothReadyFinishesMatch(t *testing.T) {
	e := newTestEngine(testCatalog{}, &seqRand{})
	m := completedMatch()

	if _, _, err := e.Apply(context.Background(), m, Command{Type: CmdReady, ActorID: "x"}); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("want ErrNotParticipant, got %v", err)
	}

	_, m = mustApply(t, e, m, Command{Type: CmdReady, ActorID: "a"})
	events, same := mustApply(t, e, m, Command{Type: CmdReady, ActorID: "a"})
	if ContainsEvent(events, EvtMatchFinished) || same.State != StateReadyCheck {
		t.Fatalf("double ready must not finish the match")
	}

	events, m = mustApply(t, e, m, Command{Type: CmdReady, ActorID: "b"})
	if !ContainsEvent(events, EvtMatchFinished) {
		t.Fatalf("expected EvtMatchFinished")
	}
	if m.State != StateFinished || m.Result == nil || m.FinishedAt == nil {
		t.Fatalf("expected finished match with result, got %+v", m)
	}
	if m.TeamA.Score != m.Result.ScoreA || m.TeamB.Score != m.Result.ScoreB {
		t.Fatalf("team scores not copied from result")
	}
	if _, _, err := e.Apply(context.Background(), m, Command{Type: CmdReady, ActorID: "a"}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("finished match must reject actions, got %v", err)
	}
}

// completedMatch returns a READY_CHECK match where a's players are strictly
// better in every slot except the last, which b wins.
func completedMatch() Match {
	m := newTestMatch(nil)
	layout := m.Mode.Layout()
	for i, s := range layout {
		key := s.StatKey()
		a := Player{ID: fmt.Sprintf("A%d", i), Name: "A", Roles: []Role{Role(s)}, Stats: map[string]StatBlock{"international": {key: 80}}}
		b := Player{ID: fmt.Sprintf("B%d", i), Name: "B", Roles: []Role{Role(s)}, Stats: map[string]StatBlock{"international": {key: 70}}}
		if i == len(layout)-1 {
			a.Stats["international"][key] = 60
		}
		m.TeamA.put(s, &a)
		m.TeamB.put(s, &b)
	}
	m.State = StateReadyCheck
	return m
}
