// run-checker Lambda performs a single Databricks run status check per
// invocation, for step-function orchestrators that drive the polling loop
// themselves.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/dwsmith1983/brickgate/internal/databricks"
	"github.com/dwsmith1983/brickgate/internal/secrets"
)

// RunCheckRequest identifies the run to check.
type RunCheckRequest struct {
	RunID int64 `json:"runId"`
}

// RunCheckResponse is the normalized status for the orchestrator's choice
// state: running until terminal, then succeeded or failed.
type RunCheckResponse struct {
	State          string `json:"state"` // running | succeeded | failed
	LifeCycleState string `json:"lifeCycleState,omitempty"`
	ResultState    string `json:"resultState,omitempty"`
	Message        string `json:"message,omitempty"`
}

// Normalized state values for RunCheckResponse.State.
const (
	stateRunning   = "running"
	stateSucceeded = "succeeded"
	stateFailed    = "failed"
)

type deps struct {
	client databricks.RunGetter
	logger *slog.Logger
}

var (
	sharedDeps *deps
	depsOnce   sync.Once
	depsErr    error
)

func getDeps() (*deps, error) {
	depsOnce.Do(func() {
		sharedDeps, depsErr = initDeps(context.Background())
	})
	return sharedDeps, depsErr
}

// initDeps creates shared dependencies from environment variables.
// Reads: WORKSPACE_URL, WORKSPACE_TOKEN (token reference, see internal/secrets).
func initDeps(ctx context.Context) (*deps, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	workspaceURL := os.Getenv("WORKSPACE_URL")
	tokenRef := os.Getenv("WORKSPACE_TOKEN")
	if workspaceURL == "" {
		return nil, fmt.Errorf("WORKSPACE_URL environment variable required")
	}
	if tokenRef == "" {
		return nil, fmt.Errorf("WORKSPACE_TOKEN environment variable required")
	}

	token, err := secrets.NewResolver().Resolve(ctx, tokenRef)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace token: %w", err)
	}

	client, err := databricks.NewClient(workspaceURL, token)
	if err != nil {
		return nil, err
	}

	return &deps{client: client, logger: logger}, nil
}

// handleRunCheck implements the core run-checker logic.
func handleRunCheck(ctx context.Context, d *deps, req RunCheckRequest) (RunCheckResponse, error) {
	run, err := d.client.GetRun(ctx, req.RunID)
	if err != nil {
		d.logger.Error("status check failed",
			"runID", req.RunID,
			"error", err,
		)
		return RunCheckResponse{
			State:   stateFailed,
			Message: err.Error(),
		}, nil
	}

	state := run.State
	resp := RunCheckResponse{
		State:          stateRunning,
		LifeCycleState: string(state.LifeCycleState),
		ResultState:    string(state.ResultState),
		Message:        state.StateMessage,
	}
	if state.LifeCycleState.IsTerminal() {
		if state.IsSuccessful() {
			resp.State = stateSucceeded
		} else {
			resp.State = stateFailed
		}
	}
	return resp, nil
}

func handler(ctx context.Context, req RunCheckRequest) (RunCheckResponse, error) {
	d, err := getDeps()
	if err != nil {
		return RunCheckResponse{}, err
	}
	return handleRunCheck(ctx, d, req)
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	awslambda.Start(handler)
}
