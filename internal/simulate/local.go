package simulate

import (
	"fmt"

	"github.com/okian/caloric/internal/domain/distribution"
	"github.com/okian/caloric/internal/domain/types"
)

// RunLocal initializes an in-process engine with count ingredients and adds
// picks in order. The first failing addition stops the run.
func RunLocal(count int, picks []int) (*LocalReport, error) {
	eng := distribution.NewEngine()
	initial, err := eng.Initialize(count)
	if err != nil {
		return nil, err
	}

	report := &LocalReport{
		Count:   count,
		Initial: types.Weights(initial),
		Steps:   make([]Step, 0, len(picks)),
	}
	for i, pick := range picks {
		tr, err := eng.AddIngredient(distribution.Ingredient(pick))
		if err != nil {
			return report, fmt.Errorf("step %d: %w", i+1, err)
		}
		report.Steps = append(report.Steps, Step{
			Step:     i + 1,
			Selected: pick,
			Outcome:  tr.Outcome.String(),
			Reset:    tr.Reset,
			Weights:  types.Weights(tr.Current),
		})
	}
	return report, nil
}
