package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DoyleJ11/player-draft-backend/internal/engine"
)

type PlayerRecord struct {
	ID        string         `gorm:"primaryKey"`
	Name      string         `gorm:"not null"`
	Roles     datatypes.JSON `gorm:"type:jsonb"` // ["Top", "Captain"]
	IPLRoles  datatypes.JSON `gorm:"type:jsonb"`
	Positions datatypes.JSON `gorm:"type:jsonb"`
	Stats     datatypes.JSON `gorm:"type:jsonb;not null"` // {"international": {"batting_power": 88}}
	UpdatedAt time.Time
}

func (PlayerRecord) TableName() string { return "players" }

type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (g *Gorm) Migrate(ctx context.Context) error {
	return g.db.WithContext(ctx).AutoMigrate(&PlayerRecord{})
}

func (g *Gorm) Get(ctx context.Context, id string) (engine.Player, error) {
	var rec PlayerRecord
	err := g.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return engine.Player{}, fmt.Errorf("%w: %s", engine.ErrUnknownPlayer, id)
	}
	if err != nil {
		return engine.Player{}, fmt.Errorf("load player %s: %w", id, err)
	}
	return rec.toPlayer()
}

func (g *Gorm) PoolForMode(ctx context.Context, mode engine.Mode) ([]string, error) {
	var ids []string
	err := g.db.WithContext(ctx).
		Model(&PlayerRecord{}).
		Where("jsonb_typeof(stats -> ?) = 'object'", mode.StatKey()).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list pool for %s: %w", mode, err)
	}
	return ids, nil
}

func (g *Gorm) Upsert(ctx context.Context, players ...engine.Player) error {
	if len(players) == 0 {
		return nil
	}
	recs := make([]PlayerRecord, 0, len(players))
	for _, p := range players {
		if err := validate(p); err != nil {
			return err
		}
		rec, err := recordFromPlayer(p)
		if err != nil {
			return err
		}
		recs = append(recs, rec)
	}
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(&recs, 200).Error
}

func recordFromPlayer(p engine.Player) (PlayerRecord, error) {
	rec := PlayerRecord{ID: p.ID, Name: p.Name}
	fields := []struct {
		dst *datatypes.JSON
		src any
	}{
		{&rec.Roles, p.Roles},
		{&rec.IPLRoles, p.IPLRoles},
		{&rec.Positions, p.Positions},
		{&rec.Stats, p.Stats},
	}
	for _, f := range fields {
		b, err := json.Marshal(f.src)
		if err != nil {
			return PlayerRecord{}, fmt.Errorf("encode player %s: %w", p.ID, err)
		}
		*f.dst = datatypes.JSON(b)
	}
	return rec, nil
}

func (r PlayerRecord) toPlayer() (engine.Player, error) {
	p := engine.Player{ID: r.ID, Name: r.Name}
	fields := []struct {
		src datatypes.JSON
		dst any
	}{
		{r.Roles, &p.Roles},
		{r.IPLRoles, &p.IPLRoles},
		{r.Positions, &p.Positions},
		{r.Stats, &p.Stats},
	}
	for _, f := range fields {
		if len(f.src) == 0 {
			continue
		}
		if err := json.Unmarshal(f.src, f.dst); err != nil {
			return engine.Player{}, fmt.Errorf("decode player %s: %w", r.ID, err)
		}
	}
	return p, nil
}
