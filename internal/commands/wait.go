package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dwsmith1983/brickgate/internal/databricks"
)

// NewWaitCmd creates the wait command.
func NewWaitCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "wait [run-id]...",
		Short: "Wait for one or more runs to reach a terminal state",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runIDs, err := parseRunIDs(args)
			if err != nil {
				return err
			}
			return waitRuns(runIDs, verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every poll")
	return cmd
}

func parseRunIDs(args []string) ([]int64, error) {
	runIDs := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid run ID %q", arg)
		}
		runIDs = append(runIDs, id)
	}
	return runIDs, nil
}

func waitRuns(runIDs []int64, verbose bool) error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}

	opts := waitOptionsFrom(cfg)
	if verbose {
		opts.VerboseLogs = true
	}
	waiter := databricks.NewWaiter(client, newLogger(opts.VerboseLogs))

	if len(runIDs) == 1 {
		run, err := waiter.WaitForRunCompletion(ctx, runIDs[0], opts)
		if err != nil {
			return err
		}
		printRunState(run)
		return nil
	}
	return waiter.WaitAll(ctx, runIDs, opts)
}
