package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/DoyleJ11/player-draft-backend/internal/engine"
)

type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:","`
	WSIdleTimeout   time.Duration `env:"WS_IDLE_TIMEOUT" envDefault:"60s"`

	// DatabaseURL selects the Postgres store; empty keeps everything in memory.
	DatabaseURL    string        `env:"DATABASE_URL"`
	DBConnectLimit time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"30s"`
	CatalogFile    string        `env:"CATALOG_FILE"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogDev   bool   `env:"LOG_DEV" envDefault:"false"`

	EnabledModes    []string `env:"ENABLED_MODES" envSeparator:"," envDefault:"international,ipl,test,football"`
	MaxRedraws      int      `env:"MAX_REDRAWS" envDefault:"2"`
	MaxReplacements int      `env:"MAX_REPLACEMENTS" envDefault:"1"`
	TradeBudget     int      `env:"TRADE_BUDGET" envDefault:"1"`
	RecentResults   int      `env:"RECENT_RESULTS" envDefault:"5"`

	ZeroSkillThreshold float64 `env:"ZERO_SKILL_THRESHOLD" envDefault:"30"`
	ZeroSkillPenalty   float64 `env:"ZERO_SKILL_PENALTY" envDefault:"0.1"`

	// RandSeed fixes the draw order for reproducible runs; 0 seeds from the clock.
	RandSeed uint64 `env:"RAND_SEED" envDefault:"0"`
}

// Load reads an optional .env file, then the process environment.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.MaxRedraws < 0 || c.MaxReplacements < 0 || c.TradeBudget < 0 {
		return errors.New("config: budgets must not be negative")
	}
	if c.ZeroSkillPenalty < 0 || c.ZeroSkillPenalty > 1 {
		return errors.New("config: ZERO_SKILL_PENALTY must be within [0, 1]")
	}
	if c.RecentResults <= 0 {
		return errors.New("config: RECENT_RESULTS must be positive")
	}
	if _, err := c.Modes(); err != nil {
		return err
	}
	return nil
}

func (c Config) Rules() engine.Rules {
	r := engine.DefaultRules()
	r.MaxRedraws = c.MaxRedraws
	r.MaxReplacements = c.MaxReplacements
	r.TradeBudget = c.TradeBudget
	r.Scoring.ZeroSkillThreshold = c.ZeroSkillThreshold
	r.Scoring.ZeroSkillPenalty = c.ZeroSkillPenalty
	return r
}

// Modes parses EnabledModes. An empty list means every mode.
func (c Config) Modes() ([]engine.Mode, error) {
	out := make([]engine.Mode, 0, len(c.EnabledModes))
	for _, s := range c.EnabledModes {
		m, err := engine.ParseMode(s)
		if err != nil {
			return nil, fmt.Errorf("config: ENABLED_MODES: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}
