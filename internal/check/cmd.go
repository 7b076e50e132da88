package check

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

type commandCheck struct {
	command []string
}

// NewCommand constructs an evaluator that runs the supplied command on each
// evaluation. A zero exit status means the process may keep running; any
// other exit status requests termination.
func NewCommand(command []string) (Evaluator, error) {
	if len(command) == 0 {
		return nil, errors.New("check: command requires at least one argument")
	}
	return &commandCheck{command: append([]string(nil), command...)}, nil
}

func (c *commandCheck) Evaluate(ctx context.Context, obs Observation) Verdict {
	cmd := exec.CommandContext(ctx, c.command[0], c.command[1:]...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Errorf("check command: %v", ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Kill(fmt.Sprintf("check command exit %d", exitErr.ExitCode()))
		}
		return Errorf("check command: %v", err)
	}
	return Continue(nil)
}
