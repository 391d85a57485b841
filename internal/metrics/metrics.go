// Package metrics exposes runtime counters via expvar.
package metrics

import "expvar"

var (
	SubmitsTotal   = expvar.NewInt("submits_total")
	SubmitFailures = expvar.NewInt("submit_failures")
	PollsTotal     = expvar.NewInt("polls_total")
	PollFailures   = expvar.NewInt("poll_failures")
	CancelsTotal   = expvar.NewInt("cancels_total")
	RunsSucceeded  = expvar.NewInt("runs_succeeded")
	RunsFailed     = expvar.NewInt("runs_failed")
	RunsSkipped    = expvar.NewInt("runs_skipped")
	WaitTimeouts   = expvar.NewInt("wait_timeouts")
	BreakerOpens   = expvar.NewInt("breaker_opens")
)
