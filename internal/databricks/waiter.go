package databricks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dwsmith1983/brickgate/internal/metrics"
	"github.com/dwsmith1983/brickgate/pkg/types"
)

// RunGetter is the status-query surface the waiter consumes. *Client
// satisfies it; tests substitute scripted sources.
type RunGetter interface {
	GetRun(ctx context.Context, runID int64) (*Run, error)
}

// WaitOptions configures a single wait.
type WaitOptions struct {
	// PollInterval is the sleep between status polls. Must be positive.
	PollInterval time.Duration
	// MaxWaitTime is the total budget measured from loop start. Must be positive.
	MaxWaitTime time.Duration
	// VerboseLogs emits a log line for every poll, not just lifecycle transitions.
	VerboseLogs bool
	// PollRetry opts in to bounded retry of transient status-poll failures.
	// When nil, the first poll error aborts the wait.
	PollRetry *types.RetryPolicy
}

// Waiter polls a run until it reaches a terminal state or a deadline elapses.
type Waiter struct {
	source RunGetter
	logger *slog.Logger
}

// NewWaiter creates a Waiter over the given status source.
func NewWaiter(source RunGetter, logger *slog.Logger) *Waiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Waiter{source: source, logger: logger}
}

// WaitForRunCompletion polls the run on a fixed interval until a terminal
// lifecycle state is observed, returning the final run on success. A skipped
// run is success. A terminated run with a non-success result, or an
// INTERNAL_ERROR, yields a *RunFailedError. Exceeding MaxWaitTime without a
// terminal state yields a *WaitTimeoutError.
func (w *Waiter) WaitForRunCompletion(ctx context.Context, runID int64, opts WaitOptions) (*Run, error) {
	if opts.PollInterval <= 0 {
		return nil, fmt.Errorf("waiter: poll interval must be positive, got %v", opts.PollInterval)
	}
	if opts.MaxWaitTime <= 0 {
		return nil, fmt.Errorf("waiter: max wait time must be positive, got %v", opts.MaxWaitTime)
	}

	w.logger.Info("waiting for run to complete",
		"runID", runID,
		"pollInterval", opts.PollInterval,
		"maxWaitTime", opts.MaxWaitTime,
	)

	start := time.Now()
	var lastState types.RunLifeCycleState

	for {
		run, err := w.pollOnce(ctx, runID, opts)
		if err != nil {
			return nil, fmt.Errorf("checking status of run %d: %w", runID, err)
		}

		state := run.State
		if state.LifeCycleState != lastState {
			w.logger.Info("run state changed",
				"runID", runID,
				"lifeCycleState", state.LifeCycleState,
				"resultState", state.ResultState,
			)
			lastState = state.LifeCycleState
		} else if opts.VerboseLogs {
			w.logger.Debug("polled run",
				"runID", runID,
				"lifeCycleState", state.LifeCycleState,
				"stateMessage", state.StateMessage,
			)
		}

		if state.LifeCycleState.IsTerminal() {
			if !state.IsSuccessful() {
				metrics.RunsFailed.Add(1)
				return nil, &RunFailedError{RunID: runID, State: state}
			}
			if state.LifeCycleState == types.LifeCycleSkipped {
				metrics.RunsSkipped.Add(1)
			} else {
				metrics.RunsSucceeded.Add(1)
			}
			return run, nil
		}

		if elapsed := time.Since(start); elapsed > opts.MaxWaitTime {
			metrics.WaitTimeouts.Add(1)
			return nil, &WaitTimeoutError{RunID: runID, Elapsed: elapsed, LastState: state.LifeCycleState}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.PollInterval):
		}
	}
}

// pollOnce fetches the run state, retrying transient failures when a retry
// policy is configured.
func (w *Waiter) pollOnce(ctx context.Context, runID int64, opts WaitOptions) (*Run, error) {
	run, err := w.source.GetRun(ctx, runID)
	if err == nil || opts.PollRetry == nil {
		return run, err
	}

	policy := *opts.PollRetry
	for attempt := 1; attempt < policy.MaxAttempts; attempt++ {
		if !IsRetryable(policy, ClassifyFailure(err)) {
			return nil, err
		}

		backoff := CalculateBackoff(policy, attempt)
		w.logger.Warn("status poll failed, retrying",
			"runID", runID,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}

		run, err = w.source.GetRun(ctx, runID)
		if err == nil {
			return run, nil
		}
	}
	return nil, err
}

// WaitAll waits for several runs concurrently. The first failure cancels the
// remaining waits.
func (w *Waiter) WaitAll(ctx context.Context, runIDs []int64, opts WaitOptions) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, runID := range runIDs {
		g.Go(func() error {
			_, err := w.WaitForRunCompletion(ctx, runID, opts)
			return err
		})
	}
	return g.Wait()
}
