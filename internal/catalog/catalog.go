package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/DoyleJ11/player-draft-backend/internal/engine"
)

var ErrInvalidPlayer = errors.New("invalid player")

// Catalog is the read side the engine needs plus the write side used by
// seeding. Players handed out are snapshots; callers must not mutate them.
type Catalog interface {
	Get(ctx context.Context, id string) (engine.Player, error)
	// PoolForMode lists, in id order, every player with stats for mode.
	PoolForMode(ctx context.Context, mode engine.Mode) ([]string, error)
	Upsert(ctx context.Context, players ...engine.Player) error
}

func validate(p engine.Player) error {
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidPlayer)
	}
	for mode, block := range p.Stats {
		for stat, v := range block {
			if v < 0 || v > 100 {
				return fmt.Errorf("%w: %s %s.%s=%d out of range", ErrInvalidPlayer, p.ID, mode, stat, v)
			}
		}
	}
	return nil
}

type Memory struct {
	mu      sync.RWMutex
	players map[string]engine.Player
}

func NewMemory(players ...engine.Player) *Memory {
	m := &Memory{players: make(map[string]engine.Player)}
	for _, p := range players {
		m.players[p.ID] = p
	}
	return m
}

func (m *Memory) Get(_ context.Context, id string) (engine.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[id]
	if !ok {
		return engine.Player{}, fmt.Errorf("%w: %s", engine.ErrUnknownPlayer, id)
	}
	return p, nil
}

func (m *Memory) PoolForMode(_ context.Context, mode engine.Mode) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id, p := range m.players {
		if p.HasStats(mode) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *Memory) Upsert(_ context.Context, players ...engine.Player) error {
	for _, p := range players {
		if err := validate(p); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range players {
		m.players[p.ID] = p
	}
	return nil
}
