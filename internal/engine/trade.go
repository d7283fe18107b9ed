package engine

import (
	"fmt"
	"slices"
)

/*
	CmdTradeStart   -> EvtTradeStarted        (PICK_TARGET)
	CmdTradeTarget  -> EvtTradeTargetPicked   (WAIT_ACCEPT)
	CmdTradeAccept  -> EvtTradeAccepted       (PICK_COUNTER)
	CmdTradeReject  -> EvtTradeRejected       (offer dropped, budget untouched)
	CmdTradeCounter -> EvtTradeCounterPicked  (CONFIRM)
	CmdTradeConfirm -> EvtTradeConfirmed [-> EvtTradeExecuted | EvtTradeAborted]
	CmdTradeCancel  -> EvtTradeCancelled
*/

func (e *Engine) applyTrade(m Match, cmd Command) ([]Event, Match, error) {
	if m.State != StateReadyCheck {
		return nil, m, ErrInvalidState
	}
	if m.TeamOf(cmd.ActorID) == nil {
		return nil, m, ErrNotParticipant
	}

	next := m.Clone()
	var (
		events []Event
		err    error
	)
	switch cmd.Type {
	case CmdTradeStart:
		events, err = e.tradeStart(&next, cmd.ActorID)
	case CmdTradeTarget:
		events, err = tradeTarget(&next, cmd.ActorID, cmd.PlayerID)
	case CmdTradeAccept:
		events, err = tradeAccept(&next, cmd.ActorID)
	case CmdTradeReject:
		events, err = tradeReject(&next, cmd.ActorID)
	case CmdTradeCounter:
		events, err = tradeCounter(&next, cmd.ActorID, cmd.PlayerID)
	case CmdTradeConfirm:
		events, err = tradeConfirm(&next, cmd.ActorID)
		if CommitsOnError(err) {
			return events, next, err
		}
	case CmdTradeCancel:
		events, err = tradeCancel(&next, cmd.ActorID)
	default:
		return nil, m, ErrUnsupportedCommand
	}
	if err != nil {
		return nil, m, err
	}
	return events, next, nil
}

func (e *Engine) tradeStart(m *Match, actor string) ([]Event, error) {
	if m.Trade != nil {
		return nil, ErrTradeInProgress
	}
	if m.TradesUsed() >= e.rules.TradeBudget {
		return nil, fmt.Errorf("trade %w", ErrBudgetExhausted)
	}
	m.Trade = &TradeOffer{InitiatorID: actor, Step: TradePickTarget}
	return []Event{{Type: EvtTradeStarted, ActorID: actor}}, nil
}

func (m *Match) offerAt(step TradeStep) (*TradeOffer, error) {
	if m.Trade == nil {
		return nil, ErrNoTrade
	}
	if m.Trade.Step != step {
		return nil, fmt.Errorf("%w: trade is at %s", ErrInvalidState, m.Trade.Step)
	}
	return m.Trade, nil
}

func tradeTarget(m *Match, actor, playerID string) ([]Event, error) {
	offer, err := m.offerAt(TradePickTarget)
	if err != nil {
		return nil, err
	}
	if actor != offer.InitiatorID {
		return nil, ErrNotYourTurn
	}
	if _, ok := m.OpponentOf(actor).SlotOf(playerID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotOnRoster, playerID)
	}
	offer.TargetID = playerID
	offer.Step = TradeWaitAccept
	return []Event{{Type: EvtTradeTargetPicked, ActorID: actor, PlayerID: playerID}}, nil
}

func tradeAccept(m *Match, actor string) ([]Event, error) {
	offer, err := m.offerAt(TradeWaitAccept)
	if err != nil {
		return nil, err
	}
	if actor == offer.InitiatorID {
		return nil, ErrNotYourTurn
	}
	offer.Step = TradePickCounter
	return []Event{{Type: EvtTradeAccepted, ActorID: actor}}, nil
}

func tradeReject(m *Match, actor string) ([]Event, error) {
	if m.Trade == nil {
		return nil, ErrNoTrade
	}
	if m.Trade.Step != TradeWaitAccept && m.Trade.Step != TradePickCounter {
		return nil, fmt.Errorf("%w: trade is at %s", ErrInvalidState, m.Trade.Step)
	}
	if actor == m.Trade.InitiatorID {
		return nil, ErrNotYourTurn
	}
	m.Trade = nil
	return []Event{{Type: EvtTradeRejected, ActorID: actor}}, nil
}

func tradeCounter(m *Match, actor, playerID string) ([]Event, error) {
	offer, err := m.offerAt(TradePickCounter)
	if err != nil {
		return nil, err
	}
	if actor == offer.InitiatorID {
		return nil, ErrNotYourTurn
	}
	if _, ok := m.TeamOf(offer.InitiatorID).SlotOf(playerID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotOnRoster, playerID)
	}
	offer.CounterID = playerID
	offer.Step = TradeConfirm
	offer.Confirms = nil
	return []Event{{Type: EvtTradeCounterPicked, ActorID: actor, PlayerID: playerID}}, nil
}

func tradeConfirm(m *Match, actor string) ([]Event, error) {
	offer, err := m.offerAt(TradeConfirm)
	if err != nil {
		return nil, err
	}
	if slices.Contains(offer.Confirms, actor) {
		return nil, ErrAlreadyConfirmed
	}
	offer.Confirms = append(offer.Confirms, actor)

	events := []Event{{Type: EvtTradeConfirmed, ActorID: actor}}
	if len(offer.Confirms) < 2 {
		return events, nil
	}
	return executeTrade(m, events)
}

// executeTrade swaps the two players between their original slots.
func executeTrade(m *Match, events []Event) ([]Event, error) {
	offer := m.Trade
	initiator := m.TeamOf(offer.InitiatorID)
	opponent := m.OpponentOf(offer.InitiatorID)

	slotI, okI := initiator.SlotOf(offer.CounterID)
	slotO, okO := opponent.SlotOf(offer.TargetID)
	if !okI || !okO {
		m.Trade = nil
		return append(events, Event{Type: EvtTradeAborted, ActorID: offer.InitiatorID}), ErrStaleReference
	}

	toOpponent, _ := initiator.Occupant(slotI)
	toInitiator, _ := opponent.Occupant(slotO)
	initiator.put(slotI, toInitiator)
	opponent.put(slotO, toOpponent)
	initiator.TradesUsed++
	m.Trade = nil

	return append(events, Event{
		Type:       EvtTradeExecuted,
		ActorID:    offer.InitiatorID,
		PlayerID:   offer.TargetID,
		PreviousID: offer.CounterID,
	}), nil
}

func tradeCancel(m *Match, actor string) ([]Event, error) {
	if m.Trade == nil {
		return nil, ErrNoTrade
	}
	m.Trade = nil
	return []Event{{Type: EvtTradeCancelled, ActorID: actor}}, nil
}
