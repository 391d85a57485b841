package databricks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dwsmith1983/brickgate/pkg/types"
)

// APIError is a non-2xx response from the Databricks REST API.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("databricks api: status %d (%s): %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("databricks api: status %d: %s", e.StatusCode, e.Message)
}

// RunFailedError is returned when a run reaches a terminal state with a
// non-success result.
type RunFailedError struct {
	RunID int64
	State RunState
}

func (e *RunFailedError) Error() string {
	return fmt.Sprintf("Run `%d` failed with result state: %s. Message: %s",
		e.RunID, e.State.ResultState, e.State.StateMessage)
}

// WaitTimeoutError is returned when no terminal state is observed within the
// configured maximum wait time.
type WaitTimeoutError struct {
	RunID     int64
	Elapsed   time.Duration
	LastState types.RunLifeCycleState
}

func (e *WaitTimeoutError) Error() string {
	return fmt.Sprintf("run %d did not reach a terminal state within %s (last observed state: %s)",
		e.RunID, e.Elapsed.Round(time.Millisecond), e.LastState)
}

// ClassifyFailure categorizes a client call error for retry decisions.
// 4xx responses are permanent (client errors); 429, 408, 5xx and network
// errors are transient.
func ClassifyFailure(err error) types.FailureCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return types.FailureTimeout
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests,
			apiErr.StatusCode == http.StatusRequestTimeout:
			return types.FailureTransient
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			return types.FailurePermanent
		}
		return types.FailureTransient
	}

	return types.FailureTransient
}
