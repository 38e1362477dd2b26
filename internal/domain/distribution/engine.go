package distribution

import "fmt"

// Ingredient count bounds accepted by Initialize.
const (
	MinIngredients = 2
	MaxIngredients = 9
)

// Transition is the record of one AddIngredient call.
type Transition struct {
	Previous Distribution
	Selected Ingredient
	// Weight is the selected ingredient's renormalized weight, the value
	// that was classified. It is kept even when Current was reset.
	Weight  float64
	Current Distribution
	Outcome Outcome
	Reset   bool
}

// Engine owns a recipe's distribution and its history.
// It is not safe for concurrent use; give each session its own Engine.
type Engine struct {
	current Distribution
	count   int
	history []Distribution
}

// NewEngine returns an uninitialized engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Initialize replaces any state with a uniform distribution over count
// ingredients and starts a new history with it.
func (e *Engine) Initialize(count int) (Distribution, error) {
	if count < MinIngredients || count > MaxIngredients {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidConfiguration, count, MinIngredients, MaxIngredients)
	}
	e.count = count
	e.current = Uniform(count)
	e.history = []Distribution{e.current.Clone()}
	return e.current.Clone(), nil
}

// AddIngredient doubles the selected ingredient's weight, divides every
// weight by the sum taken before the doubling, and classifies the result.
//
// The divisor is the pre-doubling sum, so the distribution only sums to 1
// again after an Overflow reset. Thresholds are calibrated to this.
func (e *Engine) AddIngredient(selected Ingredient) (Transition, error) {
	if e.current == nil {
		return Transition{}, ErrNotInitialized
	}
	if _, ok := e.current[selected]; !ok {
		return Transition{}, fmt.Errorf("%w: %s", ErrUnknownIngredient, selected)
	}

	previous := e.current.Clone()
	next := e.current.Clone()

	total := next.Sum()
	next[selected] *= 2
	for k := range next {
		next[k] /= total
	}

	weight := next[selected]
	outcome := Classify(weight)
	reset := outcome == Overflow
	if reset {
		next = Uniform(e.count)
	}

	e.current = next
	e.history = append(e.history, next.Clone())

	return Transition{
		Previous: previous,
		Selected: selected,
		Weight:   weight,
		Current:  next.Clone(),
		Outcome:  outcome,
		Reset:    reset,
	}, nil
}

// Reset returns the engine to the uninitialized state.
func (e *Engine) Reset() {
	e.current = nil
	e.count = 0
	e.history = nil
}

// Initialized reports whether Initialize has been called since the last Reset.
func (e *Engine) Initialized() bool { return e.current != nil }

// Count is the ingredient count of the last Initialize, or 0.
func (e *Engine) Count() int { return e.count }

// Current returns a copy of the current distribution.
func (e *Engine) Current() (Distribution, error) {
	if e.current == nil {
		return nil, ErrNotInitialized
	}
	return e.current.Clone(), nil
}

// Steps is the number of additions recorded since the last Initialize.
// An uninitialized engine has 0 steps.
func (e *Engine) Steps() int {
	if len(e.history) == 0 {
		return 0
	}
	return len(e.history) - 1
}

// History returns copies of every recorded distribution, oldest first.
// An uninitialized engine has an empty history.
func (e *Engine) History() []Distribution {
	out := make([]Distribution, len(e.history))
	for i, d := range e.history {
		out[i] = d.Clone()
	}
	return out
}
