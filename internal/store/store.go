package store

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/DoyleJ11/player-draft-backend/internal/engine"
)

var (
	ErrNotFound        = errors.New("match not found")
	ErrMatchExists     = errors.New("match already exists")
	ErrVersionConflict = errors.New("match was changed by another action")
)

// ResultEntry is one participant's outcome of one finished match.
type ResultEntry struct {
	MatchID    string
	UserID     string
	Name       string
	Mode       engine.Mode
	Outcome    engine.Outcome
	FinishedAt time.Time
}

type Profile struct {
	UserID  string           `json:"user_id"`
	Name    string           `json:"name"`
	Total   int              `json:"total"`
	Wins    int              `json:"wins"`
	Losses  int              `json:"losses"`
	Draws   int              `json:"draws"`
	WinRate float64          `json:"win_rate"`
	Recent  []engine.Outcome `json:"recent"` // newest first
}

// Store persists matches and per-user results.
//
// Save is a compare-and-swap: it succeeds only when the stored version still
// equals m.Version, and bumps m.Version on success. RecordResult is keyed on
// (match, user) and reports false when the entry already existed.
type Store interface {
	Create(ctx context.Context, m *engine.Match) error
	Load(ctx context.Context, id string) (engine.Match, error)
	Save(ctx context.Context, m *engine.Match) error
	RecordResult(ctx context.Context, r ResultEntry) (bool, error)
	Profile(ctx context.Context, userID string, recent int) (Profile, error)
}

func (p *Profile) add(o engine.Outcome) {
	p.Total++
	switch o {
	case engine.OutcomeWin:
		p.Wins++
	case engine.OutcomeLoss:
		p.Losses++
	default:
		p.Draws++
	}
}

func (p *Profile) finish() {
	if p.Total == 0 {
		p.WinRate = 0
		return
	}
	// Percent, one decimal.
	p.WinRate = math.Round(float64(p.Wins)/float64(p.Total)*1000) / 10
}
