package engine

type ScoringRules struct {
	// Stats below ZeroSkillThreshold are multiplied by ZeroSkillPenalty
	// before the role multiplier is applied on top.
	ZeroSkillThreshold float64
	ZeroSkillPenalty   float64
	Natural            float64
	Partial            float64
	Mismatch           float64
	// DefaultStat stands in for a stat the player's block does not carry.
	DefaultStat int
}

func DefaultScoringRules() ScoringRules {
	return ScoringRules{
		ZeroSkillThreshold: 30,
		ZeroSkillPenalty:   0.1,
		Natural:            1.0,
		Partial:            0.7,
		Mismatch:           0.4,
		DefaultStat:        50,
	}
}

func (r ScoringRules) multiplier(fit RoleFit) float64 {
	switch fit {
	case FitNatural:
		return r.Natural
	case FitPartial:
		return r.Partial
	default:
		return r.Mismatch
	}
}

type Side string

const (
	SideNone Side = ""
	SideA    Side = "A"
	SideB    Side = "B"
)

type Outcome string

const (
	OutcomeWin  Outcome = "W"
	OutcomeLoss Outcome = "L"
	OutcomeDraw Outcome = "D"
)

type SlotOutcome struct {
	Slot    Slot    `json:"slot"`
	PlayerA string  `json:"player_a"`
	PlayerB string  `json:"player_b"`
	ScoreA  float64 `json:"score_a"`
	ScoreB  float64 `json:"score_b"`
	Winner  Side    `json:"winner,omitempty"`
}

type Result struct {
	Slots  []SlotOutcome `json:"slots"`
	ScoreA int           `json:"score_a"`
	ScoreB int           `json:"score_b"`
	Winner Side          `json:"winner,omitempty"`
}

// OutcomeFor reports the W/L/D outcome from side's point of view.
func (r Result) OutcomeFor(side Side) Outcome {
	switch {
	case r.Winner == SideNone:
		return OutcomeDraw
	case r.Winner == side:
		return OutcomeWin
	default:
		return OutcomeLoss
	}
}

// SlotScore is the value a player brings to slot in mode.
func SlotScore(p Player, slot Slot, mode Mode, rules ScoringRules) float64 {
	v := float64(p.Stat(mode, slot.StatKey(), rules.DefaultStat))
	if v < rules.ZeroSkillThreshold {
		v *= rules.ZeroSkillPenalty
	}
	return v * rules.multiplier(FitFor(p.RolesFor(mode), slot))
}

// Score compares both rosters slot by slot in layout order. It has no side
// effects; a slot missing a player on either side is not contested.
func Score(m Match, rules ScoringRules) Result {
	var res Result
	for _, slot := range m.Mode.Layout() {
		pa, _ := m.TeamA.Occupant(slot)
		pb, _ := m.TeamB.Occupant(slot)
		if pa == nil || pb == nil {
			continue
		}

		out := SlotOutcome{
			Slot:    slot,
			PlayerA: pa.ID,
			PlayerB: pb.ID,
			ScoreA:  SlotScore(*pa, slot, m.Mode, rules),
			ScoreB:  SlotScore(*pb, slot, m.Mode, rules),
		}
		switch {
		case out.ScoreA > out.ScoreB:
			out.Winner = SideA
			res.ScoreA++
		case out.ScoreB > out.ScoreA:
			out.Winner = SideB
			res.ScoreB++
		}
		res.Slots = append(res.Slots, out)
	}

	switch {
	case res.ScoreA > res.ScoreB:
		res.Winner = SideA
	case res.ScoreB > res.ScoreA:
		res.Winner = SideB
	}
	return res
}
