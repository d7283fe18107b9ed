package engine

import "time"

type SlotEntry struct {
	Slot   Slot    `json:"slot"`
	Player *Player `json:"player,omitempty"`
}

type Team struct {
	OwnerID      string      `json:"owner_id"`
	OwnerName    string      `json:"owner_name"`
	Slots        []SlotEntry `json:"slots"`
	Redraws      int         `json:"redraws_remaining"`
	Replacements int         `json:"replacements_remaining"`
	Ready        bool        `json:"is_ready"`
	Score        int         `json:"score"`
	TradesUsed   int         `json:"trades_used"`
}

// IsComplete reports whether every slot holds a player.
func (t Team) IsComplete() bool {
	if len(t.Slots) == 0 {
		return false
	}
	for _, e := range t.Slots {
		if e.Player == nil {
			return false
		}
	}
	return true
}

// Occupant returns the player in slot; ok is false when the slot is not part
// of the team's layout.
func (t Team) Occupant(slot Slot) (p *Player, ok bool) {
	for _, e := range t.Slots {
		if e.Slot == slot {
			return e.Player, true
		}
	}
	return nil, false
}

func (t Team) SlotOf(playerID string) (Slot, bool) {
	for _, e := range t.Slots {
		if e.Player != nil && e.Player.ID == playerID {
			return e.Slot, true
		}
	}
	return "", false
}

func (t Team) FilledSlots() []Slot {
	var out []Slot
	for _, e := range t.Slots {
		if e.Player != nil {
			out = append(out, e.Slot)
		}
	}
	return out
}

func (t Team) EmptySlots() []Slot {
	var out []Slot
	for _, e := range t.Slots {
		if e.Player == nil {
			out = append(out, e.Slot)
		}
	}
	return out
}

func (t *Team) put(slot Slot, p *Player) {
	for i := range t.Slots {
		if t.Slots[i].Slot == slot {
			t.Slots[i].Player = p
			return
		}
	}
}

type TradeStep string

const (
	TradePickTarget  TradeStep = "PICK_TARGET"
	TradeWaitAccept  TradeStep = "WAIT_ACCEPT"
	TradePickCounter TradeStep = "PICK_COUNTER"
	TradeConfirm     TradeStep = "CONFIRM"
)

type TradeOffer struct {
	InitiatorID string    `json:"initiator_id"`
	Step        TradeStep `json:"step"`
	// TargetID is taken from the opponent, CounterID from the initiator.
	TargetID  string   `json:"initiator_gets,omitempty"`
	CounterID string   `json:"opponent_gets,omitempty"`
	Confirms  []string `json:"confirms,omitempty"`
}

type Match struct {
	ID              string      `json:"match_id"`
	ChatID          string      `json:"chat_id"`
	Mode            Mode        `json:"mode"`
	TeamA           Team        `json:"team_a"`
	TeamB           Team        `json:"team_b"`
	CurrentTurn     string      `json:"current_turn"`
	DraftPool       []string    `json:"draft_pool"`
	PendingPlayerID string      `json:"pending_player_id,omitempty"`
	State           State       `json:"state"`
	Trade           *TradeOffer `json:"trade_offer,omitempty"`
	Result          *Result     `json:"result,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	FinishedAt      *time.Time  `json:"finished_at,omitempty"`

	// Version is owned by the store and used for compare-and-swap saves.
	Version int64 `json:"-"`
}

// TeamOf returns the team owned by userID, or nil for a bystander.
func (m *Match) TeamOf(userID string) *Team {
	return m.teamOf(userID)
}

func (m *Match) teamOf(userID string) *Team {
	switch userID {
	case m.TeamA.OwnerID:
		return &m.TeamA
	case m.TeamB.OwnerID:
		return &m.TeamB
	}
	return nil
}

func (m *Match) OpponentOf(userID string) *Team {
	switch userID {
	case m.TeamA.OwnerID:
		return &m.TeamB
	case m.TeamB.OwnerID:
		return &m.TeamA
	}
	return nil
}

func (m *Match) turnTeam() *Team { return m.teamOf(m.CurrentTurn) }

// TradesUsed is the match-wide trade count across both teams.
func (m Match) TradesUsed() int {
	return m.TeamA.TradesUsed + m.TeamB.TradesUsed
}

// Candidates are the pool ids not already sitting in a slot.
func (m Match) Candidates() []string {
	taken := make(map[string]bool)
	for _, t := range []Team{m.TeamA, m.TeamB} {
		for _, e := range t.Slots {
			if e.Player != nil {
				taken[e.Player.ID] = true
			}
		}
	}
	out := make([]string, 0, len(m.DraftPool))
	for _, id := range m.DraftPool {
		if !taken[id] {
			out = append(out, id)
		}
	}
	return out
}

func (m *Match) removeFromPool(id string) {
	for i, p := range m.DraftPool {
		if p == id {
			m.DraftPool = append(m.DraftPool[:i], m.DraftPool[i+1:]...)
			return
		}
	}
}
