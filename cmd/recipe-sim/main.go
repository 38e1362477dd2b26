package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/caloric/pkg/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel string
	output   string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "recipe-sim",
		Short: "Simulate recipe calorie distributions",
		Long:  "recipe-sim adds ingredients to recipes, either in process or against\na running caloric server, and prints how the weights evolve.",
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceUsage: true,
		Version:      version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			return logger.SetLevelString(rootFlags.logLevel)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&rootFlags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	f.StringVarP(&rootFlags.output, "output", "o", "table", "Output format (table, yaml)")

	root.AddCommand(newLocalCmd())
	root.AddCommand(newRemoteCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
