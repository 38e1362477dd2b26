package service

import (
	"fmt"

	"github.com/okian/caloric/internal/domain/distribution"
)

const msgInitialized = "Counter initialized. Label each ingredient with a number."

// narrate returns the status message shown after an addition.
func narrate(outcome distribution.Outcome, selected distribution.Ingredient) string {
	switch outcome {
	case distribution.Overflow:
		return fmt.Sprintf("You added too much of ingredient %s. Calories went over 100%%. Start the recipe again!", selected)
	case distribution.Ready:
		return fmt.Sprintf("Ingredient %s improved the dish. It is ready to eat!", selected)
	default:
		return "The dish is not ready yet, add more..."
	}
}
