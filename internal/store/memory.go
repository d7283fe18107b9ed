package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/DoyleJ11/player-draft-backend/internal/engine"
)

type Memory struct {
	mu      sync.Mutex
	matches map[string]memoryRecord
	results map[resultKey]ResultEntry
	seq     int64
}

type memoryRecord struct {
	data    []byte
	version int64
}

type resultKey struct {
	matchID string
	userID  string
}

func NewMemory() *Memory {
	return &Memory{
		matches: make(map[string]memoryRecord),
		results: make(map[resultKey]ResultEntry),
	}
}

// Matches are kept encoded so callers never share slices with the store.
func (s *Memory) Create(_ context.Context, m *engine.Match) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode match: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[m.ID]; ok {
		return fmt.Errorf("%w: %s", ErrMatchExists, m.ID)
	}
	s.matches[m.ID] = memoryRecord{data: data, version: 1}
	m.Version = 1
	return nil
}

func (s *Memory) Load(_ context.Context, id string) (engine.Match, error) {
	s.mu.Lock()
	rec, ok := s.matches[id]
	s.mu.Unlock()
	if !ok {
		return engine.Match{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	var m engine.Match
	if err := json.Unmarshal(rec.data, &m); err != nil {
		return engine.Match{}, fmt.Errorf("decode match %s: %w", id, err)
	}
	m.Version = rec.version
	return m, nil
}

func (s *Memory) Save(_ context.Context, m *engine.Match) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode match: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.matches[m.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, m.ID)
	}
	if rec.version != m.Version {
		return fmt.Errorf("%w: %s at v%d, have v%d", ErrVersionConflict, m.ID, rec.version, m.Version)
	}
	s.matches[m.ID] = memoryRecord{data: data, version: rec.version + 1}
	m.Version = rec.version + 1
	return nil
}

func (s *Memory) RecordResult(_ context.Context, r ResultEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := resultKey{matchID: r.MatchID, userID: r.UserID}
	if _, ok := s.results[k]; ok {
		return false, nil
	}
	s.results[k] = r
	return true, nil
}

func (s *Memory) Profile(_ context.Context, userID string, recent int) (Profile, error) {
	s.mu.Lock()
	var entries []ResultEntry
	for k, r := range s.results {
		if k.userID == userID {
			entries = append(entries, r)
		}
	}
	s.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].FinishedAt.Equal(entries[j].FinishedAt) {
			return entries[i].FinishedAt.After(entries[j].FinishedAt)
		}
		return entries[i].MatchID > entries[j].MatchID
	})

	p := Profile{UserID: userID, Recent: []engine.Outcome{}}
	for i, r := range entries {
		if i == 0 {
			p.Name = r.Name
		}
		p.add(r.Outcome)
		if i < recent {
			p.Recent = append(p.Recent, r.Outcome)
		}
	}
	p.finish()
	return p, nil
}
