package main

import (
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/caloric/internal/simulate"
)

const (
	defaultSessions = 10
	defaultSteps    = 20
	defaultTimeout  = 10 * time.Second
)

var remoteFlags simulate.Config

func newRemoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remote",
		Short:   "Drive random recipes against a caloric server",
		Example: "  recipe-sim remote --url http://localhost:9080 --sessions 50 --steps 30",
		Args:    cobra.NoArgs,
		RunE:    runRemote,
	}

	f := cmd.Flags()
	f.StringVar(&remoteFlags.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	f.IntVar(&remoteFlags.Sessions, "sessions", defaultSessions, "Number of sessions to drive")
	f.IntVar(&remoteFlags.Steps, "steps", defaultSteps, "Ingredient additions per session")
	f.IntVarP(&remoteFlags.Count, "count", "n", 0, "Ingredients per session (0 uses the server default)")
	f.IntVar(&remoteFlags.Workers, "workers", runtime.NumCPU(), "Sessions driven concurrently")
	f.DurationVar(&remoteFlags.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.Uint64Var(&remoteFlags.Seed, "seed", uint64(time.Now().UnixNano()), "Seed for ingredient picks")
	f.BoolVar(&remoteFlags.Replay, "replay", true, "Resend each session's last addition to check idempotency")
	return cmd
}

func runRemote(cmd *cobra.Command, _ []string) error {
	report, err := simulate.RunRemote(cmd.Context(), &remoteFlags)
	if err != nil {
		return err
	}
	return simulate.Render(cmd.OutOrStdout(), rootFlags.output, report)
}
