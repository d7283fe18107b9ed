package engine

import (
	"context"
	"fmt"
)

func (e *Engine) applyDraft(ctx context.Context, m Match, cmd Command) ([]Event, Match, error) {
	if m.State != StateDrafting {
		return nil, m, ErrInvalidState
	}
	// Turn must match before anything else is looked at.
	if cmd.ActorID != m.CurrentTurn {
		return nil, m, ErrNotYourTurn
	}

	next := m.Clone()
	var (
		events []Event
		err    error
	)
	switch cmd.Type {
	case CmdDraw:
		events, err = e.draw(&next)
	case CmdAssign:
		events, err = e.assign(ctx, &next, cmd.Slot)
	case CmdSkip:
		events, err = e.skip(&next)
	case CmdReplaceStart:
		events, err = e.replaceStart(&next)
	case CmdReplaceExec:
		events, err = e.replaceExec(ctx, &next, cmd.Slot)
	case CmdReplaceCancel:
		events, err = e.replaceCancel(&next)
	default:
		return nil, m, ErrUnsupportedCommand
	}
	if err != nil {
		return nil, m, err
	}
	return events, next, nil
}

func (e *Engine) draw(m *Match) ([]Event, error) {
	// Re-delivered draw: hand back the same player.
	if m.PendingPlayerID != "" {
		return []Event{{Type: EvtPlayerDrawn, ActorID: m.CurrentTurn, PlayerID: m.PendingPlayerID}}, nil
	}

	candidates := m.Candidates()
	if len(candidates) == 0 {
		return nil, ErrPoolExhausted
	}
	pick := candidates[e.rng.IntN(len(candidates))]
	m.PendingPlayerID = pick
	return []Event{{Type: EvtPlayerDrawn, ActorID: m.CurrentTurn, PlayerID: pick}}, nil
}

func (e *Engine) assign(ctx context.Context, m *Match, slot Slot) ([]Event, error) {
	if m.PendingPlayerID == "" {
		return nil, ErrNoPendingPlayer
	}
	team := m.turnTeam()
	occupant, ok := team.Occupant(slot)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSlot, slot)
	}
	if occupant != nil {
		return nil, fmt.Errorf("%w: %s", ErrSlotOccupied, slot)
	}

	p, err := e.catalog.Get(ctx, m.PendingPlayerID)
	if err != nil {
		return nil, fmt.Errorf("assign %s: %w", m.PendingPlayerID, err)
	}

	pid := m.PendingPlayerID
	team.put(slot, &p)
	m.removeFromPool(pid)
	m.PendingPlayerID = ""

	events := []Event{{Type: EvtPlayerAssigned, ActorID: team.OwnerID, Slot: slot, PlayerID: pid}}
	if m.TeamA.IsComplete() && m.TeamB.IsComplete() {
		m.State = StateReadyCheck
		return append(events, Event{Type: EvtDraftCompleted}), nil
	}
	return append(events, m.switchTurn()), nil
}

func (e *Engine) skip(m *Match) ([]Event, error) {
	team := m.turnTeam()
	if team.Redraws <= 0 {
		return nil, fmt.Errorf("redraw %w", ErrBudgetExhausted)
	}
	team.Redraws--

	discarded := m.PendingPlayerID
	if discarded != "" {
		m.removeFromPool(discarded)
		m.PendingPlayerID = ""
	}

	events := []Event{{Type: EvtPlayerSkipped, ActorID: team.OwnerID, PlayerID: discarded}}
	return append(events, m.switchTurn()), nil
}

func (e *Engine) replaceStart(m *Match) ([]Event, error) {
	team := m.turnTeam()
	if team.Replacements <= 0 {
		return nil, fmt.Errorf("replacement %w", ErrBudgetExhausted)
	}
	if m.PendingPlayerID == "" {
		return nil, ErrNoPendingPlayer
	}
	if len(team.FilledSlots()) == 0 {
		return nil, fmt.Errorf("nothing to replace: %w", ErrSlotEmpty)
	}
	return []Event{{Type: EvtReplaceMenu, ActorID: team.OwnerID, PlayerID: m.PendingPlayerID}}, nil
}

func (e *Engine) replaceExec(ctx context.Context, m *Match, slot Slot) ([]Event, error) {
	team := m.turnTeam()
	if team.Replacements <= 0 {
		return nil, fmt.Errorf("replacement %w", ErrBudgetExhausted)
	}
	if m.PendingPlayerID == "" {
		return nil, ErrNoPendingPlayer
	}
	old, ok := team.Occupant(slot)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSlot, slot)
	}
	if old == nil {
		return nil, fmt.Errorf("%w: %s", ErrSlotEmpty, slot)
	}

	p, err := e.catalog.Get(ctx, m.PendingPlayerID)
	if err != nil {
		return nil, fmt.Errorf("replace %s: %w", m.PendingPlayerID, err)
	}

	// The previous occupant is dropped for good: it goes back to neither pool.
	pid := m.PendingPlayerID
	team.put(slot, &p)
	team.Replacements--
	m.removeFromPool(pid)
	m.PendingPlayerID = ""

	events := []Event{{Type: EvtPlayerReplaced, ActorID: team.OwnerID, Slot: slot, PlayerID: pid, PreviousID: old.ID}}
	return append(events, m.switchTurn()), nil
}

func (e *Engine) replaceCancel(m *Match) ([]Event, error) {
	if m.PendingPlayerID == "" {
		return nil, ErrNoPendingPlayer
	}
	return []Event{{Type: EvtReplaceCancelled, ActorID: m.CurrentTurn, PlayerID: m.PendingPlayerID}}, nil
}
