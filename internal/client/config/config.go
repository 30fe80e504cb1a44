// Package config loads the CLI client's settings from the environment.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	// APIURL is the API root including its prefix.
	APIURL string `env:"TRACKER_API_URL, default=http://localhost:8080/api"`
	// StateDB is the SQLite file holding the session token. Empty means
	// <user config dir>/tracker/state.db.
	StateDB  string        `env:"TRACKER_STATE_DB"`
	Timeout  time.Duration `env:"TRACKER_TIMEOUT,   default=10s"`
	LogLevel string        `env:"TRACKER_LOG_LEVEL, default=warn"`
}

// Load reads the client configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith is Load with an explicit source, used by tests.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("client config: %w", err)
	}
	if cfg.StateDB == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("client config: locate config dir: %w", err)
		}
		cfg.StateDB = filepath.Join(dir, "tracker", "state.db")
	}
	return &cfg, nil
}
