package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/player-draft-backend/internal/engine"
)

func missing(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(missing(t))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 60*time.Second, cfg.WSIdleTimeout)
	assert.Equal(t, engine.DefaultRules(), cfg.Rules())
	assert.Equal(t, 5, cfg.RecentResults)

	modes, err := cfg.Modes()
	require.NoError(t, err)
	assert.Equal(t, []engine.Mode{engine.ModeInternational, engine.ModeIPL, engine.ModeTest, engine.ModeFootball}, modes)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("ENABLED_MODES", "intl,ipl")
	t.Setenv("MAX_REDRAWS", "3")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("RAND_SEED", "42")

	cfg, err := Load(missing(t))
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 3, cfg.Rules().MaxRedraws)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, uint64(42), cfg.RandSeed)

	modes, err := cfg.Modes()
	require.NoError(t, err)
	assert.Equal(t, []engine.Mode{engine.ModeInternational, engine.ModeIPL}, modes)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TRADE_BUDGET=4\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("TRADE_BUDGET") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.TradeBudget)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("unknown mode", func(t *testing.T) {
		t.Setenv("ENABLED_MODES", "international,cricket")
		_, err := Load(missing(t))
		require.ErrorIs(t, err, engine.ErrUnknownMode)
	})
	t.Run("negative budget", func(t *testing.T) {
		t.Setenv("MAX_REPLACEMENTS", "-1")
		_, err := Load(missing(t))
		require.Error(t, err)
	})
	t.Run("penalty above one", func(t *testing.T) {
		t.Setenv("ZERO_SKILL_PENALTY", "1.5")
		_, err := Load(missing(t))
		require.Error(t, err)
	})
	t.Run("not a number", func(t *testing.T) {
		t.Setenv("TRADE_BUDGET", "lots")
		_, err := Load(missing(t))
		require.ErrorContains(t, err, "parse env")
	})
}
