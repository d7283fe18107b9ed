package engine

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownMode = errors.New("unknown mode")

type Mode string

const (
	ModeInternational Mode = "International"
	ModeIPL           Mode = "IPL"
	ModeTest          Mode = "Test"
	ModeFootball      Mode = "Football"
)

var Modes = []Mode{ModeInternational, ModeIPL, ModeTest, ModeFootball}

type Slot string

const (
	SlotCaptain    Slot = "Captain"
	SlotWK         Slot = "WK"
	SlotTop        Slot = "Top"
	SlotMiddle     Slot = "Middle"
	SlotAllRounder Slot = "All Rounder"
	SlotFinisher   Slot = "Finisher"
	SlotDefence    Slot = "Defence"
	SlotPacer      Slot = "Pacer"
	SlotSpinner    Slot = "Spinner"
	SlotFielder    Slot = "Fielder"

	SlotGK  Slot = "GK"
	SlotLB  Slot = "LB"
	SlotCB  Slot = "CB"
	SlotRB  Slot = "RB"
	SlotCM  Slot = "CM"
	SlotCAM Slot = "CAM"
	SlotLW  Slot = "LW"
	SlotST  Slot = "ST"
	SlotRW  Slot = "RW"
)

var layoutT20 = []Slot{
	SlotCaptain, SlotWK, SlotTop, SlotMiddle, SlotAllRounder,
	SlotFinisher, SlotPacer, SlotSpinner, SlotFielder,
}

var layoutTest = []Slot{
	SlotCaptain, SlotWK, SlotTop, SlotMiddle, SlotAllRounder,
	SlotDefence, SlotPacer, SlotSpinner, SlotFielder,
}

var layoutFootball = []Slot{
	SlotGK, SlotLB, SlotCB, SlotRB, SlotCM, SlotCAM, SlotLW, SlotST, SlotRW,
}

// slotStats maps a cricket slot to the stat it is judged on. Football slots
// are judged on the rating named after the position.
var slotStats = map[Slot]string{
	SlotCaptain:    "leadership",
	SlotWK:         "wicket_keeping",
	SlotTop:        "batting_power",
	SlotMiddle:     "batting_control",
	SlotAllRounder: "all_round",
	SlotFinisher:   "finishing",
	SlotDefence:    "batting_defence",
	SlotPacer:      "bowling_pace",
	SlotSpinner:    "bowling_spin",
	SlotFielder:    "fielding",
}

func (s Slot) StatKey() string {
	if k, ok := slotStats[s]; ok {
		return k
	}
	return string(s)
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "international", "intl":
		return ModeInternational, nil
	case "ipl", "t20":
		return ModeIPL, nil
	case "test":
		return ModeTest, nil
	case "football", "fifa":
		return ModeFootball, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Layout returns the fixed slot order for the mode. The slice is a copy.
func (m Mode) Layout() []Slot {
	var src []Slot
	switch m {
	case ModeTest:
		src = layoutTest
	case ModeFootball:
		src = layoutFootball
	default:
		src = layoutT20
	}
	return append([]Slot(nil), src...)
}

// StatKey is the key of the stat block a player needs to be drafted in m.
func (m Mode) StatKey() string {
	return strings.ToLower(string(m))
}

func (m Mode) HasSlot(s Slot) bool {
	for _, l := range m.Layout() {
		if l == s {
			return true
		}
	}
	return false
}
