package supervise

import (
	"context"
	"errors"
	"os/exec"
)

// reap performs the single wait on the child. It runs in its own goroutine
// for the lifetime of the process; every other path observes termination
// through waitDone rather than waiting on the process directly, because the
// OS wait primitive is undefined for repeated calls.
func (h *Handle) reap() {
	defer close(h.waitDone)

	if h.out != nil {
		// Drain the pipes before Wait closes them.
		h.out.join()
	}

	err := h.cmd.Wait()
	switch {
	case err == nil:
		h.status = exitStatusFromState(h.cmd.ProcessState)
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			h.status = exitStatusFromState(exitErr.ProcessState)
		} else {
			h.status = ExitStatus{Code: -1}
			h.waitErr = err
		}
	}
	h.advance(StateExited)
}

// Await blocks until the process has terminated by any means and returns its
// exit status. It is idempotent: once the status has been collected, repeat
// calls return the cached value without waiting again. The returned error is
// either the context's or a wait failure unrelated to process exit.
func (h *Handle) Await(ctx context.Context) (ExitStatus, error) {
	select {
	case <-h.waitDone:
	default:
		// Prefer the collected status when both are ready.
		select {
		case <-h.waitDone:
		case <-ctx.Done():
			return ExitStatus{}, ctx.Err()
		}
	}
	h.advance(StateReaped)
	return h.status, h.waitErr
}
