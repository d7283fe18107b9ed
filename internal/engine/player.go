package engine

// StatBlock maps stat name to a 0-100 rating.
type StatBlock map[string]int

// Player is an immutable snapshot. Once copied into a slot it is never
// refreshed from the catalog.
type Player struct {
	ID        string               `json:"player_id"`
	Name      string               `json:"name"`
	Roles     []Role               `json:"roles,omitempty"`
	IPLRoles  []Role               `json:"ipl_roles,omitempty"`
	Positions []Role               `json:"positions,omitempty"`
	Stats     map[string]StatBlock `json:"stats,omitempty"`
}

// RolesFor picks the role set scored in mode.
func (p Player) RolesFor(mode Mode) []Role {
	switch mode {
	case ModeIPL:
		if len(p.IPLRoles) > 0 {
			return p.IPLRoles
		}
		return p.Roles
	case ModeFootball:
		return p.Positions
	default:
		return p.Roles
	}
}

// HasStats reports whether the player carries a non-null stat block for mode.
func (p Player) HasStats(mode Mode) bool {
	return p.Stats[mode.StatKey()] != nil
}

// Stat returns the rating for key in mode's block, or def when absent.
func (p Player) Stat(mode Mode, key string, def int) int {
	block, ok := p.Stats[mode.StatKey()]
	if !ok {
		return def
	}
	v, ok := block[key]
	if !ok {
		return def
	}
	return v
}
