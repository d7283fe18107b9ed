package catalog

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/DoyleJ11/player-draft-backend/internal/engine"
)

type seedFile struct {
	Players []seedPlayer `yaml:"players"`
}

type seedPlayer struct {
	ID        string                    `yaml:"id"`
	Name      string                    `yaml:"name"`
	Roles     []string                  `yaml:"roles"`
	IPLRoles  []string                  `yaml:"ipl_roles"`
	Positions []string                  `yaml:"positions"`
	Stats     map[string]map[string]int `yaml:"stats"`
}

// ParseSeed decodes a YAML player list. Role tags are normalized here so
// scoring only ever sees canonical roles.
func ParseSeed(r io.Reader) ([]engine.Player, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	seen := make(map[string]bool, len(f.Players))
	out := make([]engine.Player, 0, len(f.Players))
	for i, sp := range f.Players {
		p, err := sp.toPlayer()
		if err != nil {
			return nil, fmt.Errorf("player %d (%s): %w", i, sp.ID, err)
		}
		if err := validate(p); err != nil {
			return nil, fmt.Errorf("player %d: %w", i, err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidPlayer, p.ID)
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out, nil
}

func (sp seedPlayer) toPlayer() (engine.Player, error) {
	roles, err := engine.ParseRoles(sp.Roles)
	if err != nil {
		return engine.Player{}, err
	}
	ipl, err := engine.ParseRoles(sp.IPLRoles)
	if err != nil {
		return engine.Player{}, err
	}
	positions, err := engine.ParseRoles(sp.Positions)
	if err != nil {
		return engine.Player{}, err
	}

	p := engine.Player{
		ID:        sp.ID,
		Name:      sp.Name,
		Roles:     roles,
		IPLRoles:  ipl,
		Positions: positions,
		Stats:     make(map[string]engine.StatBlock, len(sp.Stats)),
	}
	seen := make(map[engine.Mode]bool, len(sp.Stats))
	for key, block := range sp.Stats {
		mode, err := engine.ParseMode(key)
		if err != nil {
			return engine.Player{}, err
		}
		if seen[mode] {
			return engine.Player{}, fmt.Errorf("%w: duplicate stats for mode %s", ErrInvalidPlayer, mode)
		}
		seen[mode] = true
		// A null block means no stats for the mode.
		if block == nil {
			continue
		}
		p.Stats[mode.StatKey()] = engine.StatBlock(block)
	}
	return p, nil
}

// ImportFile loads path and upserts every player into c.
func ImportFile(ctx context.Context, c Catalog, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	players, err := ParseSeed(f)
	if err != nil {
		return 0, err
	}
	if err := c.Upsert(ctx, players...); err != nil {
		return 0, fmt.Errorf("upsert players: %w", err)
	}
	return len(players), nil
}
