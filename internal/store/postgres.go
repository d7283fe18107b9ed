package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/DoyleJ11/player-draft-backend/internal/engine"
)

const uniqueViolation = "23505"

// Open connects to postgres, retrying until ctx expires.
func Open(ctx context.Context, dsn string) (*gorm.DB, error) {
	var lastErr error
	for {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err == nil {
			sqlDB, dbErr := db.DB()
			if dbErr == nil {
				sqlDB.SetMaxOpenConns(10)
				pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
				dbErr = sqlDB.PingContext(pingCtx)
				cancel()
				if dbErr == nil {
					return db, nil
				}
				_ = sqlDB.Close()
			}
			err = dbErr
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect postgres: %w", lastErr)
		case <-time.After(time.Second):
		}
	}
}

type MatchRecord struct {
	ID        string         `gorm:"primaryKey"`
	ChatID    string         `gorm:"index"`
	Mode      string         `gorm:"not null"`
	State     string         `gorm:"index;not null"`
	Data      datatypes.JSON `gorm:"type:jsonb;not null"`
	Version   int64          `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (MatchRecord) TableName() string { return "matches" }

type ResultRecord struct {
	MatchID    string    `gorm:"primaryKey"`
	UserID     string    `gorm:"primaryKey;index:idx_results_user_finished,priority:1"`
	Name       string    `gorm:"not null"`
	Mode       string    `gorm:"not null"`
	Outcome    string    `gorm:"type:char(1);not null"`
	FinishedAt time.Time `gorm:"index:idx_results_user_finished,priority:2,sort:desc"`
}

func (ResultRecord) TableName() string { return "match_results" }

type Postgres struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&MatchRecord{}, &ResultRecord{})
}

func (s *Postgres) Create(ctx context.Context, m *engine.Match) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode match: %w", err)
	}
	rec := MatchRecord{
		ID:      m.ID,
		ChatID:  m.ChatID,
		Mode:    string(m.Mode),
		State:   string(m.State),
		Data:    datatypes.JSON(data),
		Version: 1,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrMatchExists, m.ID)
		}
		return fmt.Errorf("create match %s: %w", m.ID, err)
	}
	m.Version = 1
	return nil
}

func (s *Postgres) Load(ctx context.Context, id string) (engine.Match, error) {
	var rec MatchRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return engine.Match{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return engine.Match{}, fmt.Errorf("load match %s: %w", id, err)
	}
	var m engine.Match
	if err := json.Unmarshal(rec.Data, &m); err != nil {
		return engine.Match{}, fmt.Errorf("decode match %s: %w", id, err)
	}
	m.Version = rec.Version
	return m, nil
}

func (s *Postgres) Save(ctx context.Context, m *engine.Match) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode match: %w", err)
	}
	res := s.db.WithContext(ctx).
		Model(&MatchRecord{}).
		Where("id = ? AND version = ?", m.ID, m.Version).
		Updates(map[string]any{
			"state":   string(m.State),
			"data":    datatypes.JSON(data),
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("save match %s: %w", m.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := s.db.WithContext(ctx).Model(&MatchRecord{}).Where("id = ?", m.ID).Count(&n).Error; err != nil {
			return fmt.Errorf("save match %s: %w", m.ID, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, m.ID)
		}
		return fmt.Errorf("%w: %s", ErrVersionConflict, m.ID)
	}
	m.Version++
	return nil
}

func (s *Postgres) RecordResult(ctx context.Context, r ResultEntry) (bool, error) {
	rec := ResultRecord{
		MatchID:    r.MatchID,
		UserID:     r.UserID,
		Name:       r.Name,
		Mode:       string(r.Mode),
		Outcome:    string(r.Outcome),
		FinishedAt: r.FinishedAt,
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if res.Error != nil {
		return false, fmt.Errorf("record result %s/%s: %w", r.MatchID, r.UserID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *Postgres) Profile(ctx context.Context, userID string, recent int) (Profile, error) {
	p := Profile{UserID: userID, Recent: []engine.Outcome{}}

	var counts []struct {
		Outcome string
		N       int
	}
	err := s.db.WithContext(ctx).
		Model(&ResultRecord{}).
		Select("outcome, count(*) AS n").
		Where("user_id = ?", userID).
		Group("outcome").
		Scan(&counts).Error
	if err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", userID, err)
	}
	for _, c := range counts {
		for i := 0; i < c.N; i++ {
			p.add(engine.Outcome(c.Outcome))
		}
	}
	p.finish()

	if recent <= 0 || p.Total == 0 {
		return p, nil
	}
	var last []ResultRecord
	err = s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("finished_at DESC, match_id DESC").
		Limit(recent).
		Find(&last).Error
	if err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", userID, err)
	}
	for i, r := range last {
		if i == 0 {
			p.Name = r.Name
		}
		p.Recent = append(p.Recent, engine.Outcome(r.Outcome))
	}
	return p, nil
}
