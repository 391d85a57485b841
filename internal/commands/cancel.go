package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewCancelCmd creates the cancel command.
func NewCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel [run-id]",
		Short: "Request cancellation of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runIDs, err := parseRunIDs(args)
			if err != nil {
				return err
			}
			return cancelRun(runIDs[0])
		},
	}
}

func cancelRun(runID int64) error {
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

	if err := client.CancelRun(ctx, runID); err != nil {
		return err
	}

	fmt.Printf("Cancellation requested for run %d\n", runID)
	return nil
}
