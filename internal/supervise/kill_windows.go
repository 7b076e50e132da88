//go:build windows

package supervise

import (
	"errors"
	"fmt"
	"os"
)

var (
	defaultGracefulSignal os.Signal = os.Interrupt
	defaultForcefulSignal os.Signal = os.Kill
)

// signal delivers sig to the child. Without job objects only the top-level
// process is reached; see the package comment.
func (h *Handle) signal(sig os.Signal) error {
	if sig == os.Kill {
		if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("kill process %d: %w", h.pid, err)
		}
		return nil
	}
	if err := h.cmd.Process.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("signal process %d: %w", h.pid, err)
	}
	return nil
}
