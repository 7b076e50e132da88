package supervise

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Paintersrp/leash/internal/metrics"
)

const (
	// DefaultGracePeriod separates the graceful and forceful signals.
	DefaultGracePeriod = 2 * time.Second

	// defaultKillAttempts bounds how often the forceful signal is repeated
	// before the sequence gives up.
	defaultKillAttempts = 20
	killRetryPause      = 100 * time.Millisecond
)

// ErrUnkillable reports a process that survived the full signal escalation.
var ErrUnkillable = errors.New("process survived termination signals")

// KillSpec configures the termination escalation. The zero value uses
// platform defaults (SIGTERM then SIGKILL on Unix).
type KillSpec struct {
	Graceful os.Signal
	Forceful os.Signal
	// Grace is how long to wait for exit after the graceful signal.
	Grace time.Duration
	// Attempts caps the forceful signal repeats.
	Attempts int
}

func (k KillSpec) withDefaults() KillSpec {
	if k.Graceful == nil {
		k.Graceful = defaultGracefulSignal
	}
	if k.Forceful == nil {
		k.Forceful = defaultForcefulSignal
	}
	if k.Grace <= 0 {
		k.Grace = DefaultGracePeriod
	}
	if k.Attempts <= 0 {
		k.Attempts = defaultKillAttempts
	}
	return k
}

// budget bounds a full termination sequence with some slack for scheduling.
func (k KillSpec) budget() time.Duration {
	return k.Grace + time.Duration(k.Attempts)*killRetryPause + time.Second
}

// kill applies the escalating termination sequence: graceful signal, wait up
// to the grace period, then the forceful signal repeated until the process
// exits or the attempt limit is reached. At most one sequence ever proceeds
// past the signal-send step per handle; a concurrent caller waits for the
// first sequence's effect instead of signalling a possibly recycled pid. A
// process that has already exited is success, not an error.
func (h *Handle) kill(ctx context.Context, spec KillSpec) error {
	select {
	case <-h.waitDone:
		return nil
	default:
	}

	if !h.killStarted.CompareAndSwap(false, true) {
		select {
		case <-h.waitDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	h.killSequences.Add(1)
	h.advance(StateKilled)

	if err := h.signal(spec.Graceful); err != nil {
		return err
	}
	exited, err := h.waitExit(ctx, spec.Grace)
	if err != nil || exited {
		return err
	}

	for i := 0; i < spec.Attempts; i++ {
		metrics.AddKillEscalation()
		if err := h.signal(spec.Forceful); err != nil {
			return err
		}
		exited, err = h.waitExit(ctx, killRetryPause)
		if err != nil || exited {
			return err
		}
	}
	return fmt.Errorf("pid %d: %w", h.pid, ErrUnkillable)
}

func (h *Handle) waitExit(ctx context.Context, d time.Duration) (bool, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-h.waitDone:
		return true, nil
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
