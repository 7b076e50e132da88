//go:build !windows

package supervise

import (
	"os"
	"syscall"
)

func exitStatusFromState(state *os.ProcessState) ExitStatus {
	if state == nil {
		return ExitStatus{Code: -1}
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		sig := ws.Signal()
		// Shell convention for signal deaths.
		return ExitStatus{Code: 128 + int(sig), Signal: sig.String()}
	}
	return ExitStatus{Code: state.ExitCode()}
}
