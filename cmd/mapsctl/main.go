package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	resilientmaps "github.com/opengovern/resilient-maps"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitSetup      = 3
	ExitValidation = 4
	ExitRejected   = 5
	ExitExhausted  = 6
	ExitInterrupt  = 130
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := newApp(os.Stdout)
	root := a.rootCmd()
	root.Version = fmt.Sprintf("%s (commit: %s)", version, commit)

	err := root.ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mapsctl",
		Short:         "Query Google Maps web services through a rate-limited, retrying client",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "log every attempt")
	root.PersistentFlags().BoolVar(&a.useMock, "mock", false, "answer from a local mock instead of the network")

	root.AddCommand(
		a.geocodeCmd(),
		a.reverseCmd(),
		a.directionsCmd(),
		a.elevationCmd(),
		a.timezoneCmd(),
		a.placeCmd(),
		a.throttleCmd(),
	)
	return root
}

// exitCode maps errors to process exit codes.
func exitCode(err error) int {
	var setupErr *setupError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &setupErr):
		return ExitSetup
	case errors.Is(err, resilientmaps.ErrCancelled), errors.Is(err, context.Canceled):
		return ExitInterrupt
	case errors.Is(err, resilientmaps.ErrValidation):
		return ExitValidation
	case errors.Is(err, resilientmaps.ErrRemoteRejection), errors.Is(err, resilientmaps.ErrMalformedResponse):
		return ExitRejected
	case errors.Is(err, resilientmaps.ErrRetryBudgetExhausted):
		return ExitExhausted
	}
	return ExitGeneral
}
