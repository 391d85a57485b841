// Package types defines the public domain types for the brickgate Databricks run client.
package types

// RunLifeCycleState is the coarse execution phase of a Databricks run.
type RunLifeCycleState string

// RunLifeCycleState values mirror the Databricks Jobs API state vocabulary.
const (
	LifeCyclePending       RunLifeCycleState = "PENDING"
	LifeCycleRunning       RunLifeCycleState = "RUNNING"
	LifeCycleTerminating   RunLifeCycleState = "TERMINATING"
	LifeCycleTerminated    RunLifeCycleState = "TERMINATED"
	LifeCycleSkipped       RunLifeCycleState = "SKIPPED"
	LifeCycleInternalError RunLifeCycleState = "INTERNAL_ERROR"
)

// IsTerminal reports whether no further lifecycle transitions can occur.
func (s RunLifeCycleState) IsTerminal() bool {
	switch s {
	case LifeCycleTerminated, LifeCycleSkipped, LifeCycleInternalError:
		return true
	}
	return false
}

// RunResultState is the fine-grained outcome of a run once it has terminated.
// It is empty while the lifecycle state is non-terminal; an empty result state
// must never be read as failure while a run is still in flight.
type RunResultState string

// RunResultState values enumerate the possible terminal outcomes.
const (
	ResultSuccess  RunResultState = "SUCCESS"
	ResultFailed   RunResultState = "FAILED"
	ResultTimedOut RunResultState = "TIMEDOUT"
	ResultCanceled RunResultState = "CANCELED"
)

// FailureCategory classifies why a client call failed.
type FailureCategory string

const (
	FailureTransient FailureCategory = "TRANSIENT"
	FailurePermanent FailureCategory = "PERMANENT"
	FailureTimeout   FailureCategory = "TIMEOUT"
)
