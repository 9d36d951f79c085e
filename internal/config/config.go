// internal/config/config.go
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"

	"rebels-bot/pkg/db"
)

// StoreConfig holds the settings needed to reach the account store.
type StoreConfig struct {
	StorageURI      string        `env:"STORAGE_URI,required,notEmpty"`
	StoreTimeout    time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	LeaderboardSize int           `env:"LEADERBOARD_SIZE" envDefault:"10"`
}

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	Store StoreConfig

	BotToken              string        `env:"BOT_TOKEN,required,notEmpty"`
	ApplicationID         string        `env:"APPLICATION_ID"`
	CommandSyncMaxElapsed time.Duration `env:"COMMAND_SYNC_MAX_ELAPSED" envDefault:"10m"`

	HTTPEnabled bool   `env:"HTTP_ENABLED" envDefault:"true"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`
}

// DB returns the database connection settings.
func (c StoreConfig) DB() db.Config {
	return db.Config{
		URI:          c.StorageURI,
		MaxOpenConns: c.MaxOpenConns,
	}
}

// ApplicationUserID returns APPLICATION_ID as a Telegram user ID, or 0 when unset.
func (c *AppConfig) ApplicationUserID() int64 {
	id, _ := strconv.ParseInt(c.ApplicationID, 10, 64)
	return id
}

// LoadConfig loads configuration from environment variables.
// It returns an AppConfig instance or an error if any required variable is missing or invalid.
func LoadConfig() (*AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	if cfg.ApplicationID != "" && cfg.ApplicationUserID() == 0 {
		return nil, fmt.Errorf("invalid configuration: APPLICATION_ID must be a numeric bot user id")
	}
	return &cfg, nil
}

// LoadStoreConfig loads only the store settings, for tooling that never
// talks to the chat platform.
func LoadStoreConfig() (*StoreConfig, error) {
	var cfg StoreConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges that env tags cannot express.
func (c StoreConfig) Validate() error {
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("invalid configuration: STORE_TIMEOUT must be positive")
	}
	if c.LeaderboardSize < 1 || c.LeaderboardSize > 100 {
		return fmt.Errorf("invalid configuration: LEADERBOARD_SIZE must be between 1 and 100, got %d", c.LeaderboardSize)
	}
	if c.MaxOpenConns < 1 {
		return fmt.Errorf("invalid configuration: DB_MAX_OPEN_CONNS must be at least 1")
	}
	if _, _, err := db.ParseURI(c.StorageURI); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
