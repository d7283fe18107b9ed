package engine

import (
	"sync"
	"time"
)

type Participant struct {
	ID   string
	Name string
}

// NewMatch builds a fresh drafting match. The first drafter is picked
// uniformly at random between the two participants.
func (e *Engine) NewMatch(id, chatID string, mode Mode, owner, challenger Participant, pool []string) Match {
	first := owner.ID
	if e.rng.IntN(2) == 1 {
		first = challenger.ID
	}
	return NewMatchWithTurn(id, chatID, mode, owner, challenger, pool, first, e.rules, e.now().UTC())
}

func NewMatchWithTurn(id, chatID string, mode Mode, owner, challenger Participant, pool []string, first string, rules Rules, now time.Time) Match {
	return Match{
		ID:          id,
		ChatID:      chatID,
		Mode:        mode,
		TeamA:       newTeam(owner, mode, rules),
		TeamB:       newTeam(challenger, mode, rules),
		CurrentTurn: first,
		DraftPool:   append([]string(nil), pool...),
		State:       StateDrafting,
		CreatedAt:   now,
	}
}

func newTeam(p Participant, mode Mode, rules Rules) Team {
	layout := mode.Layout()
	slots := make([]SlotEntry, len(layout))
	for i, s := range layout {
		slots[i] = SlotEntry{Slot: s}
	}
	return Team{
		OwnerID:      p.ID,
		OwnerName:    p.Name,
		Slots:        slots,
		Redraws:      rules.MaxRedraws,
		Replacements: rules.MaxReplacements,
	}
}

// Clone copies everything a transition may touch. Player snapshots are
// immutable and shared.
func (m Match) Clone() Match {
	c := m
	c.TeamA = m.TeamA.clone()
	c.TeamB = m.TeamB.clone()
	c.DraftPool = append([]string(nil), m.DraftPool...)
	if m.Trade != nil {
		t := *m.Trade
		t.Confirms = append([]string(nil), m.Trade.Confirms...)
		c.Trade = &t
	}
	if m.FinishedAt != nil {
		f := *m.FinishedAt
		c.FinishedAt = &f
	}
	return c
}

func (t Team) clone() Team {
	c := t
	c.Slots = append([]SlotEntry(nil), t.Slots...)
	return c
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

type lockedRand struct {
	mu sync.Mutex
	r  Rand
}

// LockedRand makes r safe to share between concurrent matches.
func LockedRand(r Rand) Rand {
	return &lockedRand{r: r}
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}
