package distribution

import "fmt"

// Classification thresholds for an ingredient's weight.
const (
	OverflowThreshold = 1.0
	ReadyThreshold    = 0.75
)

// Outcome is the classification of an added ingredient's new weight.
type Outcome int

const (
	// Pending means the recipe needs more ingredients.
	Pending Outcome = iota
	// Ready means the added ingredient reached the ready threshold.
	Ready
	// Overflow means the ingredient took the whole recipe; the distribution resets.
	Overflow
)

// Classify maps a weight onto an Outcome. Both thresholds are inclusive.
func Classify(weight float64) Outcome {
	switch {
	case weight >= OverflowThreshold:
		return Overflow
	case weight >= ReadyThreshold:
		return Ready
	default:
		return Pending
	}
}

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Overflow:
		return "overflow"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// MarshalText encodes the outcome as its lowercase name.
func (o Outcome) MarshalText() ([]byte, error) {
	switch o {
	case Pending, Ready, Overflow:
		return []byte(o.String()), nil
	default:
		return nil, fmt.Errorf("unknown outcome %d", int(o))
	}
}

// UnmarshalText decodes a lowercase outcome name.
func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "pending":
		*o = Pending
	case "ready":
		*o = Ready
	case "overflow":
		*o = Overflow
	default:
		return fmt.Errorf("unknown outcome %q", string(b))
	}
	return nil
}
