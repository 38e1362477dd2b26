// Package types contains the read shapes shared by the service and HTTP layers.
package types

import (
	"time"

	"github.com/okian/caloric/internal/domain/distribution"
)

// Session states.
const (
	StateUninitialized = "uninitialized"
	StateActive        = "active"
)

// Per-ingredient levels, from the same thresholds as the outcomes.
const (
	LevelInsufficient = "insufficient"
	LevelOptimal      = "optimal"
	LevelExcessive    = "excessive"
)

// IngredientWeight is one row of a distribution.
type IngredientWeight struct {
	Ingredient int     `json:"ingredient"`
	Weight     float64 `json:"weight"`
	Level      string  `json:"level"`
}

// Session is the current view of a recipe session.
type Session struct {
	ID          string             `json:"id"`
	State       string             `json:"state"`
	Count       int                `json:"count"`
	Ingredients []IngredientWeight `json:"ingredients"`
	Sum         float64            `json:"sum"`
	Steps       int                `json:"steps"`
	Messages    []string           `json:"messages"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Transition is the result of adding an ingredient.
type Transition struct {
	SessionID string               `json:"session_id"`
	Step      int                  `json:"step"`
	Selected  int                  `json:"selected"`
	Outcome   distribution.Outcome `json:"outcome"`
	Reset     bool                 `json:"reset"`
	Message   string               `json:"message"`
	Previous  []IngredientWeight   `json:"previous"`
	Current   []IngredientWeight   `json:"current"`
	Replayed  bool                 `json:"replayed"`
}

// HistoryStep is one recorded distribution. Step 0 is the initialization.
type HistoryStep struct {
	Step    int                `json:"step"`
	Weights []IngredientWeight `json:"weights"`
}

// Level labels a weight for display.
func Level(weight float64) string {
	switch distribution.Classify(weight) {
	case distribution.Overflow:
		return LevelExcessive
	case distribution.Ready:
		return LevelOptimal
	default:
		return LevelInsufficient
	}
}

// Weights converts a distribution into rows ordered by ingredient.
func Weights(d distribution.Distribution) []IngredientWeight {
	out := make([]IngredientWeight, 0, len(d))
	for _, k := range d.Keys() {
		out = append(out, IngredientWeight{Ingredient: int(k), Weight: d[k], Level: Level(d[k])})
	}
	return out
}

// History converts an ordered sequence of distributions into steps.
func History(h []distribution.Distribution) []HistoryStep {
	out := make([]HistoryStep, len(h))
	for i, d := range h {
		out[i] = HistoryStep{Step: i, Weights: Weights(d)}
	}
	return out
}
