// Package commands implements the CLI subcommands for the brickgate binary.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"

	"github.com/dwsmith1983/brickgate/internal/config"
	"github.com/dwsmith1983/brickgate/internal/databricks"
	"github.com/dwsmith1983/brickgate/internal/secrets"
	"github.com/dwsmith1983/brickgate/pkg/types"
)

// newClient builds a workspace client from the project config, resolving the
// token reference first.
func newClient(ctx context.Context, cfg *types.ProjectConfig) (*databricks.Client, error) {
	token, err := secrets.NewResolver().Resolve(ctx, cfg.Workspace.Token)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace token: %w", err)
	}

	var opts []databricks.Option
	if cfg.Workspace.UserAgentSuffix != "" {
		opts = append(opts, databricks.WithUserAgentSuffix(cfg.Workspace.UserAgentSuffix))
	}
	return databricks.NewClient(cfg.Workspace.URL, token, opts...)
}

// loadProject loads brickgate.yaml from the working directory.
func loadProject() (*types.ProjectConfig, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the CLI logger. Verbose drops the level to debug so
// per-poll lines show up.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// waitOptionsFrom maps the waiter config section onto wait options.
func waitOptionsFrom(cfg *types.ProjectConfig) databricks.WaitOptions {
	return databricks.WaitOptions{
		PollInterval: cfg.Waiter.PollInterval(),
		MaxWaitTime:  cfg.Waiter.MaxWaitTime(),
		VerboseLogs:  cfg.Waiter.VerboseLogs,
		PollRetry:    cfg.PollRetry,
	}
}

// printRunState renders a run's current state for terminal output.
func printRunState(run *databricks.Run) {
	state := run.State

	lifecycle := string(state.LifeCycleState)
	switch {
	case state.IsSuccessful():
		lifecycle = color.GreenString(lifecycle)
	case state.LifeCycleState.IsTerminal():
		lifecycle = color.RedString(lifecycle)
	default:
		lifecycle = color.YellowString(lifecycle)
	}

	fmt.Printf("Run %d: %s", run.RunID, lifecycle)
	if state.ResultState != "" {
		fmt.Printf(" (%s)", state.ResultState)
	}
	if state.StateMessage != "" {
		fmt.Printf(" - %s", state.StateMessage)
	}
	fmt.Println()
	if run.RunPageURL != "" {
		fmt.Printf("  %s\n", run.RunPageURL)
	}
}
