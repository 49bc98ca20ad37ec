// Package config holds the environment-driven server configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables understood by the server.
const (
	EnvInstanceDir = "HOUDINI_MCP_INSTANCE_DIR"
	EnvTimeout     = "HOUDINI_MCP_TIMEOUT"
)

// DefaultTimeout is the per-command timeout when none is configured.
const DefaultTimeout = 15 * time.Second

// Config holds the runtime settings for the server.
type Config struct {
	// InstanceDir overrides where instance discovery records live.
	// Empty means the platform default.
	InstanceDir string

	// RequestTimeout bounds each command round trip to Houdini.
	RequestTimeout time.Duration
}

// FromEnv builds a Config from the environment, applying defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		InstanceDir:    os.Getenv(EnvInstanceDir),
		RequestTimeout: DefaultTimeout,
	}

	if raw := os.Getenv(EnvTimeout); raw != "" {
		d, err := parseTimeout(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", EnvTimeout, err)
		}
		cfg.RequestTimeout = d
	}
	return cfg, nil
}

// parseTimeout accepts either a Go duration ("30s", "2m") or a bare
// number of seconds ("30").
func parseTimeout(raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("timeout must be positive, got %d", secs)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q", raw)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", d)
	}
	return d, nil
}
