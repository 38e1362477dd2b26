package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/caloric/internal/simulate"
)

var localFlags struct {
	count int
	add   []int
}

func newLocalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "local",
		Short: "Run a recipe in process",
		Example: "  recipe-sim local --count 4 --add 2,2,2\n" +
			"  recipe-sim local --count 3 --add 1,3 -o yaml",
		Args: cobra.NoArgs,
		RunE: runLocal,
	}

	f := cmd.Flags()
	f.IntVarP(&localFlags.count, "count", "n", 5, "Number of ingredients (2-9)")
	f.IntSliceVarP(&localFlags.add, "add", "a", nil, "Ingredients to add, in order")
	return cmd
}

func runLocal(cmd *cobra.Command, _ []string) error {
	report, err := simulate.RunLocal(localFlags.count, localFlags.add)
	if report != nil {
		// Render what ran even when a later step failed.
		if rerr := simulate.Render(cmd.OutOrStdout(), rootFlags.output, report); rerr != nil {
			return rerr
		}
	}
	return err
}
