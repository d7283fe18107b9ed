package engine

// switchTurn passes the turn to the other team unless that team is already
// complete while the current one is not. Evaluated fresh on every call.
func (m *Match) switchTurn() Event {
	current := m.teamOf(m.CurrentTurn)
	other := m.OpponentOf(m.CurrentTurn)
	if current == nil || other == nil {
		return Event{Type: EvtTurnAdvanced, ActorID: m.CurrentTurn}
	}

	if !(other.IsComplete() && !current.IsComplete()) {
		m.CurrentTurn = other.OwnerID
	}
	return Event{Type: EvtTurnAdvanced, ActorID: m.CurrentTurn}
}
