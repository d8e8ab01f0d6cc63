package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"room8/internal/cli"
	"room8/internal/config"
	"room8/internal/log"
	"room8/internal/services"
)

// app carries what every subcommand needs once the household is open.
type app struct {
	out       io.Writer
	household *services.Household
}

type runFunc func(ctx context.Context, a *app, args []string) error

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "room8ctl",
		Short:        "Room8 household CLI",
		Long:         "Inspect chores, balances and the schedule of a Room8 household.",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log backend activity to stderr")

	// withHousehold opens the configured backend around run.
	withHousehold := func(run runFunc) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			level := "warn"
			if verbose {
				level = "debug"
			}
			logger := log.New(log.Config{
				Component: log.ComponentApp,
				Handler:   log.NewHandler(os.Stderr, cfg.LogFormat, log.ParseLevel(level)),
			})

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			rt, err := cli.OpenRuntime(ctx, logger, cfg)
			if err != nil {
				return fmt.Errorf("open household: %w", err)
			}
			defer rt.Close()

			// Writes made here are picked up by room8-worker when a broker
			// is configured.
			if rt.Backend.Broker != nil {
				rt.Household.SetSyncer(services.NewAMQPSyncer(rt.Backend.Broker))
			}
			return run(ctx, &app{out: cmd.OutOrStdout(), household: rt.Household}, args)
		}
	}

	root.AddCommand(
		newRoommatesCmd(withHousehold),
		newChoresCmd(withHousehold),
		newCompleteCmd(withHousehold),
		newBalancesCmd(withHousehold),
		newTotalsCmd(withHousehold),
		newTimelineCmd(withHousehold),
		newScheduleCmd(withHousehold),
	)
	return root
}

type opener func(runFunc) func(*cobra.Command, []string) error

// println writes a line to the command output.
func (a *app) println(s string) {
	fmt.Fprintln(a.out, s)
}

// roommateName resolves an id for display, falling back to the id.
func (a *app) roommateName(id string) string {
	if id == "" {
		return "-"
	}
	if p, ok := a.household.Roommate(id); ok {
		return p.Name
	}
	return id
}
