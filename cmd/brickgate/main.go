package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dwsmith1983/brickgate/internal/commands"
	"github.com/dwsmith1983/brickgate/internal/telemetry"
	"github.com/dwsmith1983/brickgate/pkg/version"
)

func main() {
	root := &cobra.Command{
		Use:   "brickgate",
		Short: "Submit and monitor Databricks job runs for data orchestrators",
		Long: `Brickgate is a thin client adapter between a data-orchestration framework
and the Databricks Jobs API. It maps run configuration onto one-time job
submissions, polls run status until a terminal state is reached, and
translates the service's status vocabulary into success/failure outcomes.`,
		Version: version.Version,
	}

	root.AddCommand(
		commands.NewSubmitCmd(),
		commands.NewWaitCmd(),
		commands.NewRunCmd(),
		commands.NewStatusCmd(),
		commands.NewCancelCmd(),
	)

	ctx := context.Background()
	shutdown, err := telemetry.Init(ctx, "brickgate")
	if err != nil {
		fmt.Fprintln(os.Stderr, "telemetry init:", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}()

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
