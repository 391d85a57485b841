package databricks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dwsmith1983/brickgate/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedSource replays a fixed sequence of states, holding the last one
// once the script runs out.
type scriptedSource struct {
	mu     sync.Mutex
	states []RunState
	errs   []error
	calls  int
}

func (s *scriptedSource) GetRun(_ context.Context, runID int64) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.calls
	s.calls++

	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i >= len(s.states) {
		i = len(s.states) - 1
	}
	return &Run{RunID: runID, State: s.states[i]}, nil
}

func (s *scriptedSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func quickOpts() WaitOptions {
	return WaitOptions{
		PollInterval: time.Millisecond,
		MaxWaitTime:  10 * time.Second,
		VerboseLogs:  true,
	}
}

func TestWaitForRunCompletion_SucceedsAfterThreePolls(t *testing.T) {
	source := &scriptedSource{states: []RunState{
		{LifeCycleState: types.LifeCyclePending},
		{LifeCycleState: types.LifeCycleRunning},
		{LifeCycleState: types.LifeCycleTerminated, ResultState: types.ResultSuccess, StateMessage: "Finished"},
	}}

	w := NewWaiter(source, slog.Default())
	run, err := w.WaitForRunCompletion(context.Background(), 1, quickOpts())
	require.NoError(t, err)

	assert.Equal(t, 3, source.callCount())
	assert.Equal(t, types.LifeCycleTerminated, run.State.LifeCycleState)
	assert.Equal(t, types.ResultSuccess, run.State.ResultState)
}

func TestWaitForRunCompletion_RunFailed(t *testing.T) {
	source := &scriptedSource{states: []RunState{
		{LifeCycleState: types.LifeCyclePending},
		{LifeCycleState: types.LifeCycleRunning},
		{LifeCycleState: types.LifeCycleTerminated, ResultState: types.ResultFailed, StateMessage: "Task exited with code 1"},
	}}

	w := NewWaiter(source, slog.Default())
	_, err := w.WaitForRunCompletion(context.Background(), 42, quickOpts())
	require.Error(t, err)

	var runErr *RunFailedError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, int64(42), runErr.RunID)
	assert.Contains(t, err.Error(), "Run `42` failed with result state: FAILED")
	assert.Contains(t, err.Error(), "Task exited with code 1")
}

func TestWaitForRunCompletion_FailedResultStates(t *testing.T) {
	for _, result := range []types.RunResultState{types.ResultFailed, types.ResultTimedOut, types.ResultCanceled} {
		t.Run(string(result), func(t *testing.T) {
			source := &scriptedSource{states: []RunState{
				{LifeCycleState: types.LifeCycleTerminated, ResultState: result},
			}}

			w := NewWaiter(source, slog.Default())
			_, err := w.WaitForRunCompletion(context.Background(), 7, quickOpts())

			var runErr *RunFailedError
			require.ErrorAs(t, err, &runErr)
			assert.Contains(t, err.Error(), string(result))
		})
	}
}

// Skipped runs are success, not failure. The remote service declining to run
// is not an error of the submitted job.
func TestWaitForRunCompletion_SkippedIsSuccess(t *testing.T) {
	source := &scriptedSource{states: []RunState{
		{LifeCycleState: types.LifeCyclePending},
		{LifeCycleState: types.LifeCycleSkipped, StateMessage: "Skipped"},
	}}

	w := NewWaiter(source, slog.Default())
	run, err := w.WaitForRunCompletion(context.Background(), 1, quickOpts())
	require.NoError(t, err)
	assert.Equal(t, types.LifeCycleSkipped, run.State.LifeCycleState)
}

func TestWaitForRunCompletion_InternalErrorIsFailure(t *testing.T) {
	source := &scriptedSource{states: []RunState{
		{LifeCycleState: types.LifeCycleRunning},
		{LifeCycleState: types.LifeCycleInternalError, StateMessage: "cluster unreachable"},
	}}

	w := NewWaiter(source, slog.Default())
	_, err := w.WaitForRunCompletion(context.Background(), 9, quickOpts())

	var runErr *RunFailedError
	require.ErrorAs(t, err, &runErr)
	assert.Contains(t, err.Error(), "cluster unreachable")
}

// A blank result state on a non-terminal poll must never be read as failure.
func TestWaitForRunCompletion_NullResultWhileRunning(t *testing.T) {
	source := &scriptedSource{states: []RunState{
		{LifeCycleState: types.LifeCycleRunning, ResultState: ""},
		{LifeCycleState: types.LifeCycleRunning, ResultState: ""},
		{LifeCycleState: types.LifeCycleTerminated, ResultState: types.ResultSuccess},
	}}

	w := NewWaiter(source, slog.Default())
	_, err := w.WaitForRunCompletion(context.Background(), 1, quickOpts())
	require.NoError(t, err)
	assert.Equal(t, 3, source.callCount())
}

func TestWaitForRunCompletion_Timeout(t *testing.T) {
	source := &scriptedSource{states: []RunState{
		{LifeCycleState: types.LifeCyclePending},
	}}

	opts := WaitOptions{
		PollInterval: 5 * time.Millisecond,
		MaxWaitTime:  20 * time.Millisecond,
	}

	w := NewWaiter(source, slog.Default())
	_, err := w.WaitForRunCompletion(context.Background(), 13, opts)
	require.Error(t, err)

	var timeoutErr *WaitTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, int64(13), timeoutErr.RunID)
	assert.Equal(t, types.LifeCyclePending, timeoutErr.LastState)
	assert.Greater(t, timeoutErr.Elapsed, opts.MaxWaitTime)
	assert.Contains(t, err.Error(), "did not reach a terminal state")
}

func TestWaitForRunCompletion_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts WaitOptions
	}{
		{"zero_interval", WaitOptions{PollInterval: 0, MaxWaitTime: time.Second}},
		{"negative_interval", WaitOptions{PollInterval: -time.Second, MaxWaitTime: time.Second}},
		{"zero_max_wait", WaitOptions{PollInterval: time.Second, MaxWaitTime: 0}},
		{"negative_max_wait", WaitOptions{PollInterval: time.Second, MaxWaitTime: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &scriptedSource{states: []RunState{{LifeCycleState: types.LifeCyclePending}}}
			w := NewWaiter(source, slog.Default())

			_, err := w.WaitForRunCompletion(context.Background(), 1, tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "must be positive")
			assert.Equal(t, 0, source.callCount(), "status endpoint must not be called")
		})
	}
}

func TestWaitForRunCompletion_ContextCanceled(t *testing.T) {
	source := &scriptedSource{states: []RunState{
		{LifeCycleState: types.LifeCycleRunning},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	opts := WaitOptions{PollInterval: time.Minute, MaxWaitTime: time.Hour}
	w := NewWaiter(source, slog.Default())
	_, err := w.WaitForRunCompletion(ctx, 1, opts)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWaitForRunCompletion_PollErrorPropagates(t *testing.T) {
	source := &scriptedSource{
		states: []RunState{{LifeCycleState: types.LifeCyclePending}},
		errs:   []error{fmt.Errorf("connection refused")},
	}

	w := NewWaiter(source, slog.Default())
	_, err := w.WaitForRunCompletion(context.Background(), 5, quickOpts())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checking status of run 5")
	assert.Equal(t, 1, source.callCount(), "no retry without a poll retry policy")
}

func TestWaitForRunCompletion_PollRetryRecovers(t *testing.T) {
	transient := &APIError{StatusCode: 503, Message: "service unavailable"}
	source := &scriptedSource{
		states: []RunState{
			{LifeCycleState: types.LifeCycleTerminated, ResultState: types.ResultSuccess},
		},
		errs: []error{transient, transient},
	}

	opts := quickOpts()
	opts.PollRetry = &types.RetryPolicy{MaxAttempts: 3, BackoffSeconds: 0}

	w := NewWaiter(source, slog.Default())
	_, err := w.WaitForRunCompletion(context.Background(), 5, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, source.callCount())
}

func TestWaitForRunCompletion_PollRetrySkipsPermanent(t *testing.T) {
	permanent := &APIError{StatusCode: 400, ErrorCode: "INVALID_PARAMETER_VALUE", Message: "bad run id"}
	source := &scriptedSource{
		states: []RunState{{LifeCycleState: types.LifeCyclePending}},
		errs:   []error{permanent},
	}

	opts := quickOpts()
	opts.PollRetry = &types.RetryPolicy{MaxAttempts: 5, BackoffSeconds: 0}

	w := NewWaiter(source, slog.Default())
	_, err := w.WaitForRunCompletion(context.Background(), 5, opts)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 1, source.callCount(), "permanent failures are not retried")
}

func TestWaitAll(t *testing.T) {
	success := []RunState{
		{LifeCycleState: types.LifeCycleRunning},
		{LifeCycleState: types.LifeCycleTerminated, ResultState: types.ResultSuccess},
	}

	t.Run("all_succeed", func(t *testing.T) {
		w := NewWaiter(&scriptedSource{states: success}, slog.Default())
		err := w.WaitAll(context.Background(), []int64{1, 2, 3}, quickOpts())
		require.NoError(t, err)
	})

	t.Run("one_fails", func(t *testing.T) {
		source := &scriptedSource{states: []RunState{
			{LifeCycleState: types.LifeCycleTerminated, ResultState: types.ResultFailed, StateMessage: "boom"},
		}}
		w := NewWaiter(source, slog.Default())
		err := w.WaitAll(context.Background(), []int64{1, 2}, quickOpts())

		var runErr *RunFailedError
		require.ErrorAs(t, err, &runErr)
	})
}

func TestWaitTimeoutError_Unwrap(t *testing.T) {
	err := fmt.Errorf("outer: %w", &WaitTimeoutError{RunID: 1, Elapsed: time.Second, LastState: types.LifeCycleRunning})

	var timeoutErr *WaitTimeoutError
	assert.True(t, errors.As(err, &timeoutErr))
}
