// Package config defines service configuration and its loading.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Functions accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig, load failures ErrLoadConfig.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/caloric/internal/domain/distribution"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxSessions caps the number of live recipe sessions.
	MaxSessions int `koanf:"max_sessions"`

	// SessionTTLSeconds evicts sessions idle for longer than this.
	SessionTTLSeconds int `koanf:"session_ttl_seconds"`

	// JanitorIntervalSeconds is how often idle sessions are swept.
	JanitorIntervalSeconds int `koanf:"janitor_interval_seconds"`

	// ShardCount configures the number of shards in the session store.
	ShardCount int `koanf:"shard_count"`

	// DedupeSize bounds the per-session idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MessageLogSize is how many status messages a session keeps.
	MessageLogSize int `koanf:"message_log_size"`

	// DefaultIngredientCount is used when a session is created without a count.
	DefaultIngredientCount int `koanf:"default_ingredient_count"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		MaxSessions:            10_000,
		SessionTTLSeconds:      1800,
		JanitorIntervalSeconds: 60,
		ShardCount:             8,
		DedupeSize:             64,
		MessageLogSize:         3,
		DefaultIngredientCount: 5,
	}
}

// SessionTTL returns SessionTTLSeconds as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// JanitorInterval returns JanitorIntervalSeconds as a duration.
func (c *Config) JanitorInterval() time.Duration {
	return time.Duration(c.JanitorIntervalSeconds) * time.Second
}

// Validate checks that every field is usable.
func (c *Config) Validate(_ context.Context) error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxSessions < 1:
		return fmt.Errorf("%w: max_sessions must be positive", ErrInvalidConfig)
	case c.SessionTTLSeconds < 1:
		return fmt.Errorf("%w: session_ttl_seconds must be positive", ErrInvalidConfig)
	case c.JanitorIntervalSeconds < 1:
		return fmt.Errorf("%w: janitor_interval_seconds must be positive", ErrInvalidConfig)
	case c.ShardCount < 1:
		return fmt.Errorf("%w: shard_count must be positive", ErrInvalidConfig)
	case c.DedupeSize < 1:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.MessageLogSize < 0:
		return fmt.Errorf("%w: message_log_size must not be negative", ErrInvalidConfig)
	case c.DefaultIngredientCount < distribution.MinIngredients || c.DefaultIngredientCount > distribution.MaxIngredients:
		return fmt.Errorf("%w: default_ingredient_count must be in [%d, %d]",
			ErrInvalidConfig, distribution.MinIngredients, distribution.MaxIngredients)
	}
	return nil
}
