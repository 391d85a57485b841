package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dwsmith1983/brickgate/internal/databricks"
)

// NewSubmitCmd creates the submit command.
func NewSubmitCmd() *cobra.Command {
	var autoIdempotency bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a one-time job run and print its run ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return submitRun(autoIdempotency)
		},
	}
	cmd.Flags().BoolVar(&autoIdempotency, "auto-idempotency", false,
		"generate an idempotency token when the config does not set one")
	return cmd
}

func submitRun(autoIdempotency bool) error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}

	if autoIdempotency && cfg.Run.IdempotencyToken == "" {
		cfg.Run.IdempotencyToken = databricks.NewIdempotencyToken()
	}

	req, err := databricks.NewSubmitRun(&cfg.Run)
	if err != nil {
		return err
	}

	runID, err := client.SubmitRun(ctx, req)
	if err != nil {
		return err
	}

	fmt.Println(runID)
	return nil
}
