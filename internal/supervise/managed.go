package supervise

import (
	"context"
	"fmt"
	"time"

	"github.com/Paintersrp/leash/internal/check"
	"github.com/Paintersrp/leash/internal/metrics"
)

// Kind classifies the final outcome of a supervised run.
type Kind int

const (
	// KindNaturalExit means the process terminated on its own.
	KindNaturalExit Kind = iota
	// KindTimedOut means the deadline watcher killed the process.
	KindTimedOut
	// KindCheckKilled means the check watcher killed the process.
	KindCheckKilled
	// KindLaunchFailed means no process was ever spawned.
	KindLaunchFailed
	// KindKillFailed means signal delivery failed or the process survived
	// the escalation; the process may still be running.
	KindKillFailed
	// KindCanceled means the caller's context ended the run; the process
	// was killed before returning.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindNaturalExit:
		return "exited"
	case KindTimedOut:
		return "timed-out"
	case KindCheckKilled:
		return "check-killed"
	case KindLaunchFailed:
		return "launch-failed"
	case KindKillFailed:
		return "kill-failed"
	case KindCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the single, final result of a supervised run. Exactly one
// Outcome is produced per run, and the process is no longer running when it
// is returned (except for KindKillFailed, which reports exactly that).
type Outcome struct {
	Kind Kind
	// Status is the definitive exit status. It is valid for every kind
	// except KindLaunchFailed and KindKillFailed.
	Status ExitStatus
	// Reason describes why a watcher fired.
	Reason string
	// Err carries the launch error, kill error, or check evaluation error.
	Err error
	// Duration is the wall time from launch to status collection.
	Duration time.Duration
	// Stdout and Stderr hold captured output when the Spec enabled capture.
	Stdout string
	Stderr string
}

// ExitCode maps the outcome to a process exit code: the child's own status
// when it ran to termination, -1 when there is no status to report.
func (o Outcome) ExitCode() int {
	switch o.Kind {
	case KindNaturalExit, KindTimedOut, KindCheckKilled, KindCanceled:
		return o.Status.Code
	default:
		return -1
	}
}

// Managed supervises one spawned process with at most one watcher strategy.
type Managed struct {
	Spec     Spec
	Strategy Strategy
	Kill     KillSpec

	handle *Handle
}

// Handle returns the launched process handle, or nil before launch or after
// a launch failure.
func (m *Managed) Handle() *Handle {
	return m.handle
}

// RunWithTimeout supervises spec under a fixed deadline.
func RunWithTimeout(ctx context.Context, spec Spec, timeout time.Duration) Outcome {
	m := &Managed{Spec: spec, Strategy: WithTimeout(timeout)}
	return m.Run(ctx)
}

// RunWithCheck supervises spec with a periodic check evaluator.
func RunWithCheck(ctx context.Context, spec Spec, evaluator check.Evaluator, interval time.Duration) Outcome {
	m := &Managed{Spec: spec, Strategy: WithCheck(evaluator, interval, 0)}
	return m.Run(ctx)
}

// Run launches the process, arms the configured watcher concurrently with
// the natural-exit wait, and returns once the race is resolved. It returns
// exactly once and never while the process is still running, unless the
// outcome is KindKillFailed.
func (m *Managed) Run(ctx context.Context) Outcome {
	if ctx == nil {
		ctx = context.Background()
	}

	h, err := Launch(m.Spec)
	if err != nil {
		return Outcome{Kind: KindLaunchFailed, Err: err}
	}
	m.handle = h
	metrics.AddProcessStarted()

	out := m.supervise(ctx, h)

	out.Duration = time.Since(h.startedAt)
	if h.out != nil {
		out.Stdout, out.Stderr = h.out.contents()
	}
	metrics.ObserveProcessRuntime(out.Duration)
	if h.KillSequences() > 0 {
		metrics.AddKill(out.Kind.String())
	}
	return out
}

func (m *Managed) supervise(ctx context.Context, h *Handle) Outcome {
	kill := m.Kill.withDefaults()

	watchCtx, disarm := context.WithCancel(ctx)
	defer disarm()

	// fired receives at most one value: the outcome of a watcher that won
	// the claim. A watcher that stands down sends nothing.
	fired := make(chan Outcome, 1)
	var watcherDone chan struct{}
	if m.Strategy != nil {
		watcherDone = make(chan struct{})
		go func() {
			defer close(watcherDone)
			if out, ok := m.Strategy.watch(watchCtx, h, kill); ok {
				fired <- out
			}
		}()
	}

	select {
	case <-h.waitDone:
		if h.claim() {
			disarm()
			status, err := h.Await(ctx)
			return Outcome{Kind: KindNaturalExit, Status: status, Err: err}
		}
		// The watcher won the race; its outcome is authoritative.
		return <-fired

	case out := <-fired:
		return out

	case <-ctx.Done():
		disarm()
		if watcherDone != nil {
			<-watcherDone
		}
		select {
		case out := <-fired:
			return out
		default:
		}
		return m.cancel(ctx, h, kill)
	}
}

// cancel tears the process down after the caller's context ended. The kill
// runs under its own bounded context so it cannot inherit the cancellation.
func (m *Managed) cancel(ctx context.Context, h *Handle, kill KillSpec) Outcome {
	h.claim()

	killCtx, done := context.WithTimeout(context.Background(), kill.budget())
	defer done()
	if err := h.kill(killCtx, kill); err != nil {
		return Outcome{Kind: KindKillFailed, Reason: ctx.Err().Error(), Err: err}
	}
	status, err := h.Await(killCtx)
	if err != nil {
		return Outcome{Kind: KindKillFailed, Reason: ctx.Err().Error(), Err: err}
	}
	return Outcome{Kind: KindCanceled, Status: status, Err: ctx.Err()}
}
