// Package config loads server settings from an optional YAML file with
// BOARD_ prefixed environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Data    DataConfig    `mapstructure:"data"`
	Game    GameConfig    `mapstructure:"game"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	// AllowedOrigins lists the browser origins allowed to open a websocket.
	// Empty allows any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DataConfig selects where the board data tables come from.
type DataConfig struct {
	Source      string `mapstructure:"source"` // csv or postgres
	Dir         string `mapstructure:"dir"`
	DatabaseURL string `mapstructure:"database_url"`
}

type GameConfig struct {
	MaxPlayers             int    `mapstructure:"max_players"`
	WinCondition           string `mapstructure:"win_condition"`
	Debug                  bool   `mapstructure:"debug"`
	StartingSpace          string `mapstructure:"starting_space"`
	NegotiationPenaltyDays int    `mapstructure:"negotiation_penalty_days"`
	Seed                   uint64 `mapstructure:"seed"`
	ReplayDir              string `mapstructure:"replay_dir"`
}

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "127.0.0.1:8080")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("data.source", SourceCSV)
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.database_url", "")
	v.SetDefault("game.max_players", 4)
	v.SetDefault("game.win_condition", "lowest_time")
	v.SetDefault("game.debug", false)
	v.SetDefault("game.starting_space", "")
	v.SetDefault("game.negotiation_penalty_days", 1)
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.replay_dir", "replays")
}

// Load reads the configuration. An empty path or a missing file falls back
// to defaults; environment variables such as BOARD_DATA_SOURCE override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			// An explicit config file that is missing surfaces as an fs error.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot check by type.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case SourceCSV:
		if c.Data.Dir == "" {
			return fmt.Errorf("config: data.dir is required for csv data")
		}
	case SourcePostgres:
		if c.Data.DatabaseURL == "" {
			return fmt.Errorf("config: data.database_url is required for postgres data")
		}
	default:
		return fmt.Errorf("config: unknown data.source %q", c.Data.Source)
	}
	if c.Game.MaxPlayers < 1 {
		return fmt.Errorf("config: game.max_players must be at least 1, got %d", c.Game.MaxPlayers)
	}
	if c.Game.NegotiationPenaltyDays < 0 {
		return fmt.Errorf("config: game.negotiation_penalty_days must not be negative")
	}
	return nil
}
