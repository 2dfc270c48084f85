package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, STORE_DRIVER_MEMORY, cfg.Store.Driver)
	assert.Equal(t, 5, cfg.Store.MaxRetries)
	assert.Equal(t, 30, cfg.Game.MaxPlayers)
	assert.Equal(t, 3, cfg.Game.MaxTieRounds)
	assert.Equal(t, 3*time.Second, cfg.Game.BotDelay())
	assert.Equal(t, time.Duration(0), cfg.Game.IdleTimeout())
	assert.Equal(t, 2*time.Hour, cfg.Game.RoomTTL())
	assert.Equal(t, 5.0, cfg.WS.RateLimit)
	assert.Equal(t, "liar_game", cfg.Metrics.Namespace)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"port": 9000,
		"log_level": "debug",
		"game": {"max_players": 8, "bot_delay_ms": 500}
	}`), 0o644))

	t.Setenv("LIAR_GAME_MAX_TIE_ROUNDS", "0")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8, cfg.Game.MaxPlayers)
	assert.Equal(t, 500*time.Millisecond, cfg.Game.BotDelay())
	assert.Equal(t, 0, cfg.Game.MaxTieRounds)
}

func TestLoadConfig_PostgresNeedsDSN(t *testing.T) {
	t.Setenv("LIAR_STORE_DRIVER", STORE_DRIVER_POSTGRES)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadConfig_BrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port":`), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestGetConfig_LoadsOnce(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg = nil
	t.Cleanup(func() { cfg = nil })

	first := GetConfig()
	require.NotNil(t, first)
	assert.Equal(t, 8080, first.Port)

	assert.Same(t, first, GetConfig())
}
