//go:build !windows

package supervise

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

var (
	defaultGracefulSignal os.Signal = syscall.SIGTERM
	defaultForcefulSignal os.Signal = syscall.SIGKILL
)

// signal delivers sig to the child's process group. A process that has
// already disappeared is treated as delivered.
func (h *Handle) signal(sig os.Signal) error {
	s, ok := sig.(syscall.Signal)
	if !ok {
		if err := h.cmd.Process.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("signal process %d: %w", h.pid, err)
		}
		return nil
	}
	if err := syscall.Kill(-h.pid, s); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("signal process group %d: %w", h.pid, err)
	}
	return nil
}
