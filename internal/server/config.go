package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete server configuration
type Config struct {
	Server   ServerSettings
	Game     GameSettings
	Storage  *StorageSettings
	Redis    *RedisSettings
	Reminder *ReminderConfig
}

// configFile mirrors Config for HCL decoding. Every block is optional so a
// minimal file can set just what it needs.
type configFile struct {
	Server   *ServerSettings  `hcl:"server,block"`
	Game     *GameSettings    `hcl:"game,block"`
	Storage  *StorageSettings `hcl:"storage,block"`
	Redis    *RedisSettings   `hcl:"redis,block"`
	Reminder *ReminderConfig  `hcl:"reminder,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings holds the defaults applied when a create-game request omits
// the options.
type GameSettings struct {
	MatchesToWin int `hcl:"matches_to_win,optional"`
	CardsDealt   int `hcl:"cards_dealt,optional"`
}

// StorageSettings enables file-backed game storage. Absent block means
// games live in memory only.
type StorageSettings struct {
	Dir string `hcl:"dir"`
}

// RedisSettings enables the Redis scoreboard. Absent block means the
// in-memory scoreboard.
type RedisSettings struct {
	Addr     string `hcl:"addr"`
	Password string `hcl:"password,optional"`
	DB       int    `hcl:"db,optional"`
}

// ReminderConfig controls the reminder sweep.
type ReminderConfig struct {
	Enabled         bool `hcl:"enabled,optional"`
	IntervalMinutes int  `hcl:"interval_minutes,optional"`
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Game: GameSettings{
			MatchesToWin: 6,
			CardsDealt:   5,
		},
	}
}

// LoadConfig loads server configuration from an HCL file, falling back to
// defaults when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var decoded configFile
	diags = gohcl.DecodeBody(file.Body, nil, &decoded)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config := Config{Storage: decoded.Storage, Redis: decoded.Redis, Reminder: decoded.Reminder}
	if decoded.Server != nil {
		config.Server = *decoded.Server
	}
	if decoded.Game != nil {
		config.Game = *decoded.Game
	}

	// Apply defaults for missing values
	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	if config.Game.MatchesToWin == 0 {
		config.Game.MatchesToWin = 6
	}
	if config.Game.CardsDealt == 0 {
		config.Game.CardsDealt = 5
	}
	if config.Reminder != nil && config.Reminder.IntervalMinutes == 0 {
		config.Reminder.IntervalMinutes = 60
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Game.MatchesToWin < 1 {
		return fmt.Errorf("matches_to_win must be positive, got %d", c.Game.MatchesToWin)
	}
	if c.Game.CardsDealt < 1 || c.Game.CardsDealt > 26 {
		return fmt.Errorf("cards_dealt must be between 1 and 26, got %d", c.Game.CardsDealt)
	}
	if c.Storage != nil && c.Storage.Dir == "" {
		return fmt.Errorf("storage block requires dir")
	}
	if c.Redis != nil && c.Redis.Addr == "" {
		return fmt.Errorf("redis block requires addr")
	}
	if c.Reminder != nil && c.Reminder.IntervalMinutes < 1 {
		return fmt.Errorf("reminder interval_minutes must be positive, got %d", c.Reminder.IntervalMinutes)
	}
	return nil
}

// ListenAddress returns the full address to bind
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// ReminderInterval returns the sweep interval, or zero when disabled.
func (c *Config) ReminderInterval() time.Duration {
	if c.Reminder == nil || !c.Reminder.Enabled {
		return 0
	}
	return time.Duration(c.Reminder.IntervalMinutes) * time.Minute
}
