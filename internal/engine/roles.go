package engine

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownRole = errors.New("unknown role")

// Role is a canonical role tag. Free-text tags are normalized through
// ParseRole when players enter the catalog, never while scoring.
type Role string

const (
	RoleCaptain    Role = "Captain"
	RoleWK         Role = "WK"
	RoleTop        Role = "Top"
	RoleMiddle     Role = "Middle"
	RoleAllRounder Role = "All Rounder"
	RoleFinisher   Role = "Finisher"
	RoleDefence    Role = "Defence"
	RolePacer      Role = "Pacer"
	RoleSpinner    Role = "Spinner"
	RoleFielder    Role = "Fielder"
	RoleBatter     Role = "Batter"
	RoleBowler     Role = "Bowler"

	RoleGK  Role = "GK"
	RoleLB  Role = "LB"
	RoleCB  Role = "CB"
	RoleRB  Role = "RB"
	RoleCM  Role = "CM"
	RoleCAM Role = "CAM"
	RoleLW  Role = "LW"
	RoleST  Role = "ST"
	RoleRW  Role = "RW"
	RoleCF  Role = "CF"
)

var roleAliases = map[string]Role{
	"captain":        RoleCaptain,
	"wk":             RoleWK,
	"wicket keeper":  RoleWK,
	"wicket-keeper":  RoleWK,
	"wicketkeeper":   RoleWK,
	"keeper":         RoleWK,
	"top":            RoleTop,
	"hitting":        RoleTop,
	"opener":         RoleTop,
	"middle":         RoleMiddle,
	"all rounder":    RoleAllRounder,
	"all-rounder":    RoleAllRounder,
	"allrounder":     RoleAllRounder,
	"all":            RoleAllRounder,
	"finisher":       RoleFinisher,
	"defence":        RoleDefence,
	"defense":        RoleDefence,
	"pacer":          RolePacer,
	"pace":           RolePacer,
	"fast bowler":    RolePacer,
	"spinner":        RoleSpinner,
	"spin":           RoleSpinner,
	"fielder":        RoleFielder,
	"fielding":       RoleFielder,
	"batter":         RoleBatter,
	"batsman":        RoleBatter,
	"bowler":         RoleBowler,
	"gk":             RoleGK,
	"goalkeeper":     RoleGK,
	"lb":             RoleLB,
	"cb":             RoleCB,
	"rb":             RoleRB,
	"cm":             RoleCM,
	"cam":            RoleCAM,
	"lw":             RoleLW,
	"st":             RoleST,
	"striker":        RoleST,
	"rw":             RoleRW,
	"cf":             RoleCF,
}

func ParseRole(s string) (Role, error) {
	key := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	if r, ok := roleAliases[key]; ok {
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// ParseRoles normalizes and de-duplicates tags, keeping first-seen order.
func ParseRoles(tags []string) ([]Role, error) {
	out := make([]Role, 0, len(tags))
	seen := make(map[Role]bool, len(tags))
	for _, t := range tags {
		if strings.TrimSpace(t) == "" {
			continue
		}
		r, err := ParseRole(t)
		if err != nil {
			return nil, err
		}
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out, nil
}

type RoleFit string

const (
	FitNatural  RoleFit = "natural"
	FitPartial  RoleFit = "partial"
	FitMismatch RoleFit = "mismatch"
)

// partialFits lists the roles that partly cover a slot they are not named after.
var partialFits = map[Slot][]Role{
	SlotTop:      {RoleBatter, RoleMiddle, RoleFinisher},
	SlotMiddle:   {RoleBatter, RoleTop, RoleFinisher},
	SlotFinisher: {RoleBatter, RoleTop, RoleMiddle},
	SlotDefence:  {RoleBatter},
	SlotPacer:    {RoleBowler},
	SlotSpinner:  {RoleBowler},

	SlotLB:  {RoleCB, RoleRB},
	SlotCB:  {RoleLB, RoleRB},
	SlotRB:  {RoleLB, RoleCB},
	SlotCM:  {RoleCAM},
	SlotCAM: {RoleCM},
	SlotLW:  {RoleRW, RoleST, RoleCF},
	SlotST:  {RoleCF, RoleLW, RoleRW},
	SlotRW:  {RoleLW, RoleST, RoleCF},
}

func FitFor(roles []Role, slot Slot) RoleFit {
	want := Role(slot)
	for _, r := range roles {
		if r == want {
			return FitNatural
		}
	}
	for _, p := range partialFits[slot] {
		for _, r := range roles {
			if r == p {
				return FitPartial
			}
		}
	}
	return FitMismatch
}
