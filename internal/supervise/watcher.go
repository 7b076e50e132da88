package supervise

import (
	"context"
	"time"

	"github.com/Paintersrp/leash/internal/check"
)

const defaultCheckInterval = 500 * time.Millisecond

// Strategy is the watcher armed alongside a supervised process. watch blocks
// until the watcher fires, the process exits naturally, or the context is
// cancelled; fired reports whether the watcher claimed the outcome.
type Strategy interface {
	watch(ctx context.Context, h *Handle, kill KillSpec) (out Outcome, fired bool)
}

// WithTimeout supervises with a fixed deadline measured from launch. A zero
// or negative timeout fires immediately.
func WithTimeout(timeout time.Duration) Strategy {
	return &timeoutWatcher{timeout: timeout}
}

type timeoutWatcher struct {
	timeout time.Duration
}

func (w *timeoutWatcher) watch(ctx context.Context, h *Handle, kill KillSpec) (Outcome, bool) {
	deadline := h.startedAt.Add(w.timeout)
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Outcome{}, false
	case <-h.waitDone:
		return Outcome{}, false
	case <-timer.C:
	}

	return fire(ctx, h, kill, KindTimedOut, "deadline exceeded", nil)
}

// WithCheck supervises by invoking evaluator at the given interval while the
// process runs. A Kill verdict or an evaluation error terminates the
// process. Each evaluation is bounded by evalTimeout (the interval itself
// when zero) so a stuck evaluator cannot hang the watcher.
func WithCheck(evaluator check.Evaluator, interval, evalTimeout time.Duration) Strategy {
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	if evalTimeout <= 0 {
		evalTimeout = interval
	}
	return &checkWatcher{evaluator: evaluator, interval: interval, evalTimeout: evalTimeout}
}

type checkWatcher struct {
	evaluator   check.Evaluator
	interval    time.Duration
	evalTimeout time.Duration
}

func (w *checkWatcher) watch(ctx context.Context, h *Handle, kill KillSpec) (Outcome, bool) {
	// The watcher, not the evaluator, carries state between evaluations.
	var prior any

	for {
		timer := time.NewTimer(w.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Outcome{}, false
		case <-h.waitDone:
			timer.Stop()
			return Outcome{}, false
		case <-timer.C:
		}

		evalCtx, cancel := context.WithTimeout(ctx, w.evalTimeout)
		verdict := w.evaluator.Evaluate(evalCtx, check.Observation{
			Pid:       h.pid,
			StartedAt: h.startedAt,
			At:        time.Now(),
			Prior:     prior,
		})
		cancel()

		if verdict.Err == nil && verdict.Action == check.ActionContinue {
			prior = verdict.Next
			continue
		}
		if ctx.Err() != nil {
			// Disarmed while the evaluation was in flight.
			return Outcome{}, false
		}

		reason := verdict.Reason
		if reason == "" && verdict.Err != nil {
			reason = verdict.Err.Error()
		}
		if reason == "" {
			reason = "check requested kill"
		}
		return fire(ctx, h, kill, KindCheckKilled, reason, verdict.Err)
	}
}

// fire is the shared kill path of all watchers. It races the single-fire
// claim against the natural-exit path; the loser backs off without side
// effects. A claimed kill runs under its own bounded context so that caller
// cancellation cannot abandon a half-finished signal sequence, and the
// handle is always re-awaited so the reported status is definitive.
func fire(_ context.Context, h *Handle, kill KillSpec, kind Kind, reason string, evalErr error) (Outcome, bool) {
	if !h.claim() {
		return Outcome{}, false
	}
	killCtx, done := context.WithTimeout(context.Background(), kill.budget())
	defer done()
	if err := h.kill(killCtx, kill); err != nil {
		return Outcome{Kind: KindKillFailed, Reason: reason, Err: err}, true
	}
	status, err := h.Await(killCtx)
	if err != nil {
		return Outcome{Kind: KindKillFailed, Reason: reason, Err: err}, true
	}
	return Outcome{Kind: kind, Status: status, Reason: reason, Err: evalErr}, true
}
