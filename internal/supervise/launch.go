package supervise

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// Spec describes how to spawn a child process. Validation of the command is
// the caller's concern; Launch assumes the path and arguments have already
// been vetted.
type Spec struct {
	// Path is the executable to run. Bare names are resolved against PATH.
	Path string
	// Args are the arguments, not including the executable itself.
	Args []string
	// Env is the child's full environment. Nil inherits the parent's.
	Env []string
	// Dir is the working directory. Empty inherits the parent's.
	Dir string
	// Stdin feeds the child's standard input.
	Stdin io.Reader

	// Capture collects stdout and stderr into in-memory buffers surfaced on
	// the final Outcome. When false the streams go to Stdout and Stderr
	// below (nil discards).
	Capture bool
	Stdout  io.Writer
	Stderr  io.Writer
}

// Launch spawns the child process described by spec and returns its Handle
// in the running state. The process is placed in its own process group so
// termination signals reach its direct children.
func Launch(spec Spec) (*Handle, error) {
	if spec.Path == "" {
		return nil, errors.New("launch requires an executable path")
	}

	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.Stdin = spec.Stdin
	configureCmdSysProcAttr(cmd)

	var out *collector
	if spec.Capture {
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("launch %s: stdout: %w", spec.Path, err)
		}
		stderr, err := cmd.StderrPipe()
		if err != nil {
			return nil, fmt.Errorf("launch %s: stderr: %w", spec.Path, err)
		}
		out = newCollector(stdout, stderr)
	} else {
		cmd.Stdout = spec.Stdout
		cmd.Stderr = spec.Stderr
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch %s: %w", spec.Path, err)
	}

	h := &Handle{
		pid:       cmd.Process.Pid,
		startedAt: time.Now(),
		cmd:       cmd,
		out:       out,
		waitDone:  make(chan struct{}),
	}
	if out != nil {
		out.start()
	}
	go h.reap()

	return h, nil
}
