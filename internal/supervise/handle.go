package supervise

import (
	"fmt"
	"os/exec"
	"sync/atomic"
	"time"
)

// State describes the lifecycle of a supervised process. States only move
// forward; a handle never returns to an earlier state.
type State int32

const (
	// StateRunning means the process has been spawned and not yet observed
	// to terminate.
	StateRunning State = iota
	// StateExited means the process terminated on its own.
	StateExited
	// StateKilled means a termination sequence was started for the process.
	StateKilled
	// StateReaped means the final exit status has been collected. The pid
	// may be recycled by the OS at any point after this; the handle must
	// never signal it again.
	StateReaped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	case StateReaped:
		return "reaped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ExitStatus is the final status of a terminated process.
type ExitStatus struct {
	// Code is the exit code. When the process was terminated by a signal it
	// follows the shell convention of 128 plus the signal number.
	Code int
	// Signal names the terminating signal, or is empty when the process
	// exited on its own.
	Signal string
}

func (s ExitStatus) String() string {
	if s.Signal != "" {
		return fmt.Sprintf("signal %s (code %d)", s.Signal, s.Code)
	}
	return fmt.Sprintf("exit %d", s.Code)
}

// Handle owns one spawned OS process. It is created by Launch and mutated
// only through the reap and kill paths of its owning Managed process.
type Handle struct {
	pid       int
	startedAt time.Time

	cmd *exec.Cmd
	out *collector

	state atomic.Int32

	// claimed is the single-fire flag shared by the natural-exit and
	// watcher-fire paths. Exactly one of them wins the CompareAndSwap and
	// performs the final outcome determination.
	claimed atomic.Bool

	// killStarted gates the termination sequence so a duplicate trigger can
	// never send a second signal sequence to a recycled pid.
	killStarted   atomic.Bool
	killSequences atomic.Int32

	// waitDone closes once the underlying wait has returned; status and
	// waitErr are immutable afterwards.
	waitDone chan struct{}
	status   ExitStatus
	waitErr  error
}

// Pid returns the OS process identifier. It must not be used to signal the
// process once the handle has been reaped.
func (h *Handle) Pid() int {
	return h.pid
}

// StartedAt returns the launch timestamp.
func (h *Handle) StartedAt() time.Time {
	return h.startedAt
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	return State(h.state.Load())
}

// KillSequences reports how many termination sequences were started for this
// process. It is always 0 or 1.
func (h *Handle) KillSequences() int {
	return int(h.killSequences.Load())
}

// claim marks the calling path as the one that determines the final outcome.
// It succeeds for exactly one caller per handle.
func (h *Handle) claim() bool {
	return h.claimed.CompareAndSwap(false, true)
}

// advance moves the lifecycle state forward. Attempts to move backwards are
// ignored, which keeps transitions monotonic under concurrent callers.
func (h *Handle) advance(to State) {
	for {
		cur := h.state.Load()
		if cur >= int32(to) {
			return
		}
		if h.state.CompareAndSwap(cur, int32(to)) {
			return
		}
	}
}
