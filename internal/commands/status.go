package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command: a single poll, no waiting.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [run-id]",
		Short: "Show the current state of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runIDs, err := parseRunIDs(args)
			if err != nil {
				return err
			}
			return showRunStatus(runIDs[0])
		},
	}
}

func showRunStatus(runID int64) error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}

	run, err := client.GetRun(ctx, runID)
	if err != nil {
		return err
	}

	printRunState(run)
	return nil
}
