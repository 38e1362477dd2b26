// Package simulate drives recipe sessions, either in process or against a
// running caloric server, and renders what happened.
package simulate

import (
	"errors"
	"time"

	"github.com/okian/caloric/internal/domain/types"
)

// ErrInvalidConfig is returned for unusable simulation settings.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Config holds configuration for a remote simulation.
type Config struct {
	BaseURL  string        // Base URL of the service
	Sessions int           // Number of sessions to drive
	Steps    int           // Ingredient additions per session
	Count    int           // Ingredients per session
	Workers  int           // Sessions driven concurrently
	Timeout  time.Duration // HTTP request timeout
	Seed     uint64        // Seed for ingredient picks
	Replay   bool          // Resend each session's last addition to check idempotency
}

// Validate checks the remote settings.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return errors.Join(ErrInvalidConfig, errors.New("url must not be empty"))
	case c.Sessions < 1 || c.Steps < 1 || c.Workers < 1:
		return errors.Join(ErrInvalidConfig, errors.New("sessions, steps and workers must be positive"))
	case c.Count < 0:
		return errors.Join(ErrInvalidConfig, errors.New("count must not be negative"))
	}
	return nil
}

// Step is one addition in a local run.
type Step struct {
	Step     int                      `yaml:"step"`
	Selected int                      `yaml:"selected"`
	Outcome  string                   `yaml:"outcome"`
	Reset    bool                     `yaml:"reset"`
	Weights  []types.IngredientWeight `yaml:"weights"`
}

// LocalReport is the outcome of a local run.
type LocalReport struct {
	Count   int                      `yaml:"count"`
	Initial []types.IngredientWeight `yaml:"initial"`
	Steps   []Step                   `yaml:"steps"`
}

// RemoteReport tallies a remote run.
type RemoteReport struct {
	Sessions  int            `yaml:"sessions"`
	Additions int            `yaml:"additions"`
	Outcomes  map[string]int `yaml:"outcomes"`
	Replayed  int            `yaml:"replayed"`
	Failures  int            `yaml:"failures"`
	Duration  time.Duration  `yaml:"duration"`
}
