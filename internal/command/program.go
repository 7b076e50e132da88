// Package command parses and validates launch commands before they reach the
// supervision engine. It is deliberately separate from package supervise: the
// launcher assumes a vetted command, and everything here is plain validation
// with no concurrency concerns.
package command

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/google/shlex"
)

// shell metacharacters rejected by strict validation; a command line that
// needs them should be run through an explicit shell instead.
const metacharacters = "|&;<>`$(){}*?!~#"

// ValidationError reports a command line that failed validation.
type ValidationError struct {
	Cmdline string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("command %q: %s", e.Cmdline, e.Reason)
}

// Program is a parsed launch command plus the environment it should run in.
type Program struct {
	// Cmdline is the raw command line the program was parsed from, or a
	// reconstruction when built directly from arguments.
	Cmdline string
	// Args holds the executable followed by its arguments.
	Args []string
	// Env is the child's full environment; nil inherits the parent's.
	Env []string
}

// Parse splits a command line using shell-style word rules (quoting honored,
// no expansion performed).
func Parse(cmdline string) (*Program, error) {
	args, err := shlex.Split(cmdline)
	if err != nil {
		return nil, &ValidationError{Cmdline: cmdline, Reason: err.Error()}
	}
	if len(args) == 0 {
		return nil, &ValidationError{Cmdline: cmdline, Reason: "empty command"}
	}
	return &Program{Cmdline: cmdline, Args: args}, nil
}

// FromArgs builds a program from an already-split argument vector.
func FromArgs(args []string) (*Program, error) {
	if len(args) == 0 {
		return nil, &ValidationError{Reason: "empty command"}
	}
	return &Program{
		Cmdline: strings.Join(args, " "),
		Args:    append([]string(nil), args...),
	}, nil
}

// Executable returns the executable word of the command.
func (p *Program) Executable() string {
	return p.Args[0]
}

// Arguments returns the arguments following the executable.
func (p *Program) Arguments() []string {
	return p.Args[1:]
}

// SetEnv applies environment overrides. When replace is false the overrides
// are merged over the inherited environment; when true the child runs with
// only the supplied variables.
func (p *Program) SetEnv(overrides map[string]string, replace bool) {
	if len(overrides) == 0 && !replace {
		p.Env = nil
		return
	}

	merged := make(map[string]string, len(overrides))
	if !replace {
		for _, kv := range os.Environ() {
			if k, v, ok := strings.Cut(kv, "="); ok {
				merged[k] = v
			}
		}
	}
	for k, v := range overrides {
		merged[k] = v
	}

	env := make([]string, 0, len(merged))
	for k, v := range merged {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	p.Env = env
}

// Validate performs strict launch checks: no shell metacharacters in the raw
// command line, and an executable that can be resolved, exists, and carries
// execute permission. It returns the resolved executable path.
func (p *Program) Validate() (string, error) {
	if len(p.Args) == 0 {
		return "", &ValidationError{Cmdline: p.Cmdline, Reason: "empty command"}
	}
	if idx := strings.IndexAny(p.Cmdline, metacharacters); idx >= 0 {
		return "", &ValidationError{
			Cmdline: p.Cmdline,
			Reason:  fmt.Sprintf("disallowed shell metacharacter %q", p.Cmdline[idx]),
		}
	}

	path := p.Executable()
	if !strings.ContainsRune(path, os.PathSeparator) {
		resolved, err := exec.LookPath(path)
		if err != nil {
			return "", &ValidationError{Cmdline: p.Cmdline, Reason: fmt.Sprintf("cannot find executable %s", path)}
		}
		path = resolved
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", &ValidationError{Cmdline: p.Cmdline, Reason: fmt.Sprintf("cannot find executable %s", path)}
	}
	if info.IsDir() {
		return "", &ValidationError{Cmdline: p.Cmdline, Reason: fmt.Sprintf("%s is a directory", path)}
	}
	if info.Mode().Perm()&0o111 == 0 {
		return "", &ValidationError{Cmdline: p.Cmdline, Reason: fmt.Sprintf("permission denied to exec %s", path)}
	}
	return path, nil
}
