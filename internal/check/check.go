// Package check provides liveness evaluators for supervised processes.
//
// An Evaluator is a pure observation function: it inspects the supervised
// process (or an external progress signal such as a growing file) and returns
// a Verdict. Evaluators hold no state between calls; anything that must
// persist from one evaluation to the next travels through the Verdict's Next
// value and reappears as the Prior field of the following Observation. The
// watcher that drives the evaluator owns that threading.
package check

import (
	"context"
	"fmt"
	"time"
)

// Action is the decision carried by a Verdict.
type Action int

const (
	// ActionContinue lets the supervised process keep running.
	ActionContinue Action = iota
	// ActionKill requests termination of the supervised process.
	ActionKill
)

// Verdict is the result of a single evaluation.
type Verdict struct {
	Action Action
	// Reason describes why termination was requested.
	Reason string
	// Err records an evaluation failure. A non-nil Err is treated as a kill
	// request; a misbehaving evaluator must never leave a process running
	// unsupervised.
	Err error
	// Next is threaded into the Prior field of the following Observation.
	Next any
}

// Continue produces a Verdict that lets the process keep running. The next
// value is handed back on the following observation.
func Continue(next any) Verdict {
	return Verdict{Action: ActionContinue, Next: next}
}

// Kill produces a Verdict requesting termination with the supplied reason.
func Kill(reason string) Verdict {
	return Verdict{Action: ActionKill, Reason: reason}
}

// Errorf produces a Verdict recording an evaluation failure. It is treated
// as a kill request whose reason is the error text.
func Errorf(format string, args ...any) Verdict {
	err := fmt.Errorf(format, args...)
	return Verdict{Action: ActionKill, Reason: err.Error(), Err: err}
}

// Observation is the read-only view handed to an evaluator on each call.
type Observation struct {
	// Pid identifies the supervised process.
	Pid int
	// StartedAt is the launch timestamp of the supervised process.
	StartedAt time.Time
	// At is the time this observation was taken.
	At time.Time
	// Prior is the Next value returned by the previous evaluation, or nil on
	// the first call.
	Prior any
}

// Elapsed reports how long the supervised process has been running at the
// time of the observation.
func (o Observation) Elapsed() time.Duration {
	return o.At.Sub(o.StartedAt)
}

// Evaluator decides, once per interval, whether a supervised process should
// keep running.
type Evaluator interface {
	Evaluate(ctx context.Context, obs Observation) Verdict
}

// Func adapts a plain function to the Evaluator interface.
type Func func(ctx context.Context, obs Observation) Verdict

func (f Func) Evaluate(ctx context.Context, obs Observation) Verdict {
	return f(ctx, obs)
}
