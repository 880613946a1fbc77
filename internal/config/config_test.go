package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, SourceCSV, cfg.Data.Source)
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, 4, cfg.Game.MaxPlayers)
	assert.Equal(t, "lowest_time", cfg.Game.WinCondition)
	assert.Equal(t, 1, cfg.Game.NegotiationPenaltyDays)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "data", cfg.Data.Dir)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  address: ":9000"
logging:
  level: debug
  format: json
game:
  max_players: 6
  starting_space: START-QUICK-PLAY-GUIDE
  negotiation_penalty_days: 3
  seed: 42
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 6, cfg.Game.MaxPlayers)
	assert.Equal(t, "START-QUICK-PLAY-GUIDE", cfg.Game.StartingSpace)
	assert.Equal(t, 3, cfg.Game.NegotiationPenaltyDays)
	assert.Equal(t, uint64(42), cfg.Game.Seed)
	assert.Equal(t, "data", cfg.Data.Dir, "unset keys keep defaults")
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("game:\n  max_players: 6\n"), 0o644))

	t.Setenv("BOARD_GAME_MAX_PLAYERS", "2")
	t.Setenv("BOARD_DATA_SOURCE", "postgres")
	t.Setenv("BOARD_DATA_DATABASE_URL", "postgres://localhost/board")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Game.MaxPlayers)
	assert.Equal(t, SourcePostgres, cfg.Data.Source)
	assert.Equal(t, "postgres://localhost/board", cfg.Data.DatabaseURL)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown source", map[string]string{"BOARD_DATA_SOURCE": "mongo"}},
		{"postgres without url", map[string]string{"BOARD_DATA_SOURCE": "postgres"}},
		{"no players", map[string]string{"BOARD_GAME_MAX_PLAYERS": "0"}},
		{"negative penalty", map[string]string{"BOARD_GAME_NEGOTIATION_PENALTY_DAYS": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
