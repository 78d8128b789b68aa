package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	LexiconPath       string        `env:"LEXICON_DB_PATH" env-default:"ag_db.sqlite"`
	UserDBType        string        `env:"USER_DB_TYPE" env-default:"sqlite"`
	UserDBPath        string        `env:"USER_DB_PATH" env-default:"user_data.sqlite"`
	UserDBURL         string        `env:"USER_DB_URL"`
	LegacyStateWrites bool          `env:"LEGACY_STATE_WRITES" env-default:"false"`
	SearchLimit       int           `env:"SEARCH_LIMIT" env-default:"200"`
	SearchDebounce    time.Duration `env:"SEARCH_DEBOUNCE" env-default:"250ms"`
	LogLevel          string        `env:"LOG_LEVEL" env-default:"info"`
}

// Load reads configuration from an optional .env file and the environment.
// Variables already set in the environment take precedence over .env.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks values that cleanenv cannot express as tags
func (c *Config) Validate() error {
	switch strings.ToLower(c.UserDBType) {
	case "sqlite", "sqlite3", "":
		if c.UserDBPath == "" {
			return fmt.Errorf("USER_DB_PATH is required for sqlite")
		}
	case "postgres", "postgresql", "mysql":
		if c.UserDBURL == "" {
			return fmt.Errorf("USER_DB_URL is required for %s", c.UserDBType)
		}
	default:
		return fmt.Errorf("unsupported USER_DB_TYPE: %s", c.UserDBType)
	}
	if c.SearchLimit <= 0 {
		return fmt.Errorf("SEARCH_LIMIT must be positive, got %d", c.SearchLimit)
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("SEARCH_DEBOUNCE must not be negative, got %s", c.SearchDebounce)
	}
	return nil
}
