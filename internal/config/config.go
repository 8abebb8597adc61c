// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the rating server needs at startup.
type Config struct {
	// Port the HTTP API listens on.
	Port int `env:"RATING_PORT" envDefault:"8080"`

	// DBPath is the sqlite database file holding reference data.
	DBPath string `env:"RATING_DB_PATH" envDefault:"rating.db"`

	// Currency stamps every snapshot loaded from the store.
	Currency string `env:"RATING_CURRENCY" envDefault:"USD"`

	// RefreshInterval is how often the service re-reads reference data.
	// Zero disables the background refresh; POST /api/admin/refresh still works.
	RefreshInterval time.Duration `env:"RATING_REFRESH_INTERVAL" envDefault:"5m"`

	LogLevel  string `env:"RATING_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"RATING_LOG_FORMAT" envDefault:"console"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return &cfg, nil
}
