package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dwsmith1983/brickgate/internal/databricks"
)

// NewRunCmd creates the run command: submit then wait.
func NewRunCmd() *cobra.Command {
	var (
		verbose         bool
		autoIdempotency bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submit a job run and wait for it to complete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return submitAndWait(verbose, autoIdempotency)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every poll")
	cmd.Flags().BoolVar(&autoIdempotency, "auto-idempotency", false,
		"generate an idempotency token when the config does not set one")
	return cmd
}

func submitAndWait(verbose, autoIdempotency bool) error {
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

	if autoIdempotency && cfg.Run.IdempotencyToken == "" {
		cfg.Run.IdempotencyToken = databricks.NewIdempotencyToken()
	}

	req, err := databricks.NewSubmitRun(&cfg.Run)
	if err != nil {
		return err
	}

	opts := waitOptionsFrom(cfg)
	if verbose {
		opts.VerboseLogs = true
	}
	logger := newLogger(opts.VerboseLogs)

	runID, err := client.SubmitRun(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("Submitted run %d\n", runID)

	waiter := databricks.NewWaiter(client, logger)
	run, err := waiter.WaitForRunCompletion(ctx, runID, opts)
	if err != nil {
		return err
	}

	printRunState(run)
	return nil
}
