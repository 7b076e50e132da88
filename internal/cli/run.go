package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/leash/internal/check"
	"github.com/Paintersrp/leash/internal/cliutil"
	"github.com/Paintersrp/leash/internal/command"
	"github.com/Paintersrp/leash/internal/config"
	"github.com/Paintersrp/leash/internal/supervise"
)

// Exit codes follow the timeout(1) conventions so scripts can distinguish a
// supervised kill from the child's own failure.
const (
	exitTimedOut     = 124
	exitCheckKilled  = 125
	exitKillFailed   = 126
	exitLaunchFailed = 127
	exitCanceled     = 130
)

func newRunCmd(ctx *context) *cobra.Command {
	var (
		timeout      time.Duration
		interval     time.Duration
		checkTimeout time.Duration
		watchFile    string
		checkCmd     string
		httpURL      string
		expectStatus []int
		tcpAddr      string
		gracePeriod  time.Duration
		killAttempts int
		envPairs     []string
		replaceEnv   bool
		workdir      string
		strict       bool
		capture      bool
		jsonOut      bool
	)

	cmd := &cobra.Command{
		Use:   "run [task] [flags] -- command [args...]",
		Short: "Run a command under supervision",
		Long: "Run launches a command and supervises it with either a fixed deadline\n" +
			"(--timeout) or a periodic liveness check (--watch-file, --check-cmd,\n" +
			"--http, --tcp). Named tasks come from the leash manifest.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dash := cmd.ArgsLenAtDash()
			taskArgs := args
			var cmdArgs []string
			if dash >= 0 {
				taskArgs, cmdArgs = args[:dash], args[dash:]
			}
			if len(taskArgs) > 1 {
				return fmt.Errorf("expected at most one task name, got %d", len(taskArgs))
			}

			var (
				task     *config.TaskSpec
				defaults config.Defaults
			)
			if len(taskArgs) == 1 {
				if len(cmdArgs) > 0 {
					return errors.New("pass either a task name or a command, not both")
				}
				doc, err := ctx.loadConfig()
				if err != nil {
					return err
				}
				defaults = doc.Defaults
				t, ok := doc.Tasks[taskArgs[0]]
				if !ok {
					return fmt.Errorf("task %q not defined in %s", taskArgs[0], *ctx.configFile)
				}
				task = t
			} else if len(cmdArgs) == 0 {
				return errors.New("requires a command after -- or a task name")
			}

			var (
				prog *command.Program
				err  error
			)
			if task != nil {
				prog, err = command.Parse(task.Command)
			} else {
				prog, err = command.FromArgs(cmdArgs)
			}
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if task != nil {
				if !flags.Changed("timeout") && task.Timeout.IsSet() {
					timeout = task.Timeout.Duration
				}
				if !flags.Changed("grace-period") && task.GracePeriod.IsSet() {
					gracePeriod = task.GracePeriod.Duration
				}
				if !flags.Changed("workdir") && task.Workdir != "" {
					workdir = task.Workdir
				}
				if !flags.Changed("capture") {
					if task.Capture != nil {
						capture = *task.Capture
					} else if defaults.Capture != nil {
						capture = *defaults.Capture
					}
				}
				strict = strict || task.Strict
				replaceEnv = replaceEnv || task.ReplaceEnv
			}
			if !flags.Changed("grace-period") && gracePeriod == 0 && defaults.GracePeriod.IsSet() {
				gracePeriod = defaults.GracePeriod.Duration
			}
			if !flags.Changed("interval") && defaults.Interval.IsSet() {
				interval = defaults.Interval.Duration
			}
			if !flags.Changed("check-timeout") && defaults.CheckTimeout.IsSet() {
				checkTimeout = defaults.CheckTimeout.Duration
			}
			if !flags.Changed("kill-attempts") && defaults.KillAttempts > 0 {
				killAttempts = defaults.KillAttempts
			}

			env, err := parseEnvPairs(envPairs)
			if err != nil {
				return err
			}
			if task != nil && len(task.Env) > 0 {
				merged := make(map[string]string, len(task.Env)+len(env))
				for k, v := range task.Env {
					merged[k] = v
				}
				for k, v := range env {
					merged[k] = v
				}
				env = merged
			}
			if len(env) > 0 || replaceEnv {
				prog.SetEnv(env, replaceEnv)
			}

			checkSpec, err := checkSpecFromFlags(watchFile, checkCmd, httpURL, expectStatus, tcpAddr, interval, checkTimeout)
			if err != nil {
				return err
			}
			if checkSpec == nil && task != nil && task.Check != nil {
				checkSpec = taskCheckSpec(task.Check, interval, checkTimeout)
			}

			haveTimeout := flags.Changed("timeout") || (task != nil && task.Timeout.IsSet())
			if haveTimeout && checkSpec != nil {
				return errors.New("--timeout and liveness checks are mutually exclusive; a process gets exactly one watcher")
			}

			var strategy supervise.Strategy
			switch {
			case haveTimeout:
				strategy = supervise.WithTimeout(timeout)
			case checkSpec != nil:
				evaluator, err := buildEvaluator(checkSpec)
				if err != nil {
					return err
				}
				strategy = supervise.WithCheck(evaluator, checkSpec.Interval.Duration, checkSpec.Timeout.Duration)
			}

			path := prog.Executable()
			if strict {
				path, err = prog.Validate()
				if err != nil {
					return err
				}
			}

			spec := supervise.Spec{
				Path:    path,
				Args:    prog.Arguments(),
				Env:     prog.Env,
				Dir:     workdir,
				Stdin:   os.Stdin,
				Capture: capture,
			}
			if !capture {
				spec.Stdout = cmd.OutOrStdout()
				spec.Stderr = cmd.ErrOrStderr()
			}

			managed := &supervise.Managed{
				Spec:     spec,
				Strategy: strategy,
				Kill:     supervise.KillSpec{Grace: gracePeriod, Attempts: killAttempts},
			}

			runID := uuid.NewString()
			reporter := newReporter(cmd.OutOrStdout(), cmd.ErrOrStderr(), runID, jsonOut)
			reporter.launched(prog.Cmdline)

			outcome := managed.Run(cmd.Context())
			return reporter.report(outcome, capture)
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "Kill the command after this duration")
	cmd.Flags().DurationVarP(&interval, "interval", "i", 0, "How often to evaluate the liveness check")
	cmd.Flags().DurationVar(&checkTimeout, "check-timeout", 0, "Bound on a single check evaluation (defaults to the interval)")
	cmd.Flags().StringVar(&watchFile, "watch-file", "", "Kill the command when this file stops growing")
	cmd.Flags().StringVar(&checkCmd, "check-cmd", "", "Kill the command when this check command exits non-zero")
	cmd.Flags().StringVar(&httpURL, "http", "", "Kill the command when a GET against this URL fails")
	cmd.Flags().IntSliceVar(&expectStatus, "expect-status", nil, "Acceptable HTTP status codes for --http")
	cmd.Flags().StringVar(&tcpAddr, "tcp", "", "Kill the command when dialing this address fails")
	cmd.Flags().DurationVar(&gracePeriod, "grace-period", 0, "Delay between the graceful and forceful kill signals")
	cmd.Flags().IntVar(&killAttempts, "kill-attempts", 0, "Forceful signal repeats before giving up")
	cmd.Flags().StringArrayVarP(&envPairs, "env", "e", nil, "Environment overrides for the child (KEY=VALUE)")
	cmd.Flags().BoolVar(&replaceEnv, "replace-env", false, "Run the child with only the supplied environment")
	cmd.Flags().StringVarP(&workdir, "workdir", "w", "", "Working directory for the child")
	cmd.Flags().BoolVar(&strict, "strict", false, "Validate the command before launching")
	cmd.Flags().BoolVar(&capture, "capture", false, "Collect child output and print it after completion")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit structured JSON log records")

	return cmd
}

func parseEnvPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid env override %q: expected KEY=VALUE", pair)
		}
		env[k] = v
	}
	return env, nil
}

func checkSpecFromFlags(watchFile, checkCmd, httpURL string, expectStatus []int, tcpAddr string, interval, checkTimeout time.Duration) (*config.CheckSpec, error) {
	spec := &config.CheckSpec{
		Interval: config.Duration{Duration: interval},
		Timeout:  config.Duration{Duration: checkTimeout},
	}
	sources := 0
	if watchFile != "" {
		spec.File = watchFile
		sources++
	}
	if checkCmd != "" {
		spec.Command = strings.Fields(checkCmd)
		sources++
	}
	if httpURL != "" {
		spec.HTTP = &config.HTTPCheckSpec{URL: httpURL, ExpectStatus: expectStatus}
		sources++
	}
	if tcpAddr != "" {
		spec.TCP = &config.TCPCheckSpec{Address: tcpAddr}
		sources++
	}
	switch sources {
	case 0:
		return nil, nil
	case 1:
		return spec, nil
	default:
		return nil, errors.New("multiple check sources configured; pick one")
	}
}

// taskCheckSpec applies flag-derived defaults to a task's check on a copy,
// so the loaded document is never mutated.
func taskCheckSpec(src *config.CheckSpec, interval, checkTimeout time.Duration) *config.CheckSpec {
	spec := *src
	if !spec.Interval.IsSet() && interval > 0 {
		spec.Interval = config.Duration{Duration: interval}
	}
	if !spec.Timeout.IsSet() && checkTimeout > 0 {
		spec.Timeout = config.Duration{Duration: checkTimeout}
	}
	return &spec
}

func buildEvaluator(spec *config.CheckSpec) (check.Evaluator, error) {
	switch {
	case spec.File != "":
		return check.NewFileGrowth(spec.File)
	case len(spec.Command) > 0:
		return check.NewCommand(spec.Command)
	case spec.HTTP != nil:
		return check.NewHTTP(spec.HTTP.URL, spec.HTTP.ExpectStatus)
	case spec.TCP != nil:
		return check.NewTCP(spec.TCP.Address)
	}
	return nil, errors.New("no check source configured")
}

// reporter writes run progress and the final outcome either as plain text or
// as JSON log records.
type reporter struct {
	stdout io.Writer
	stderr io.Writer
	runID  string
	json   bool
	enc    *json.Encoder
}

func newReporter(stdout, stderr io.Writer, runID string, jsonOut bool) *reporter {
	r := &reporter{stdout: stdout, stderr: stderr, runID: runID, json: jsonOut}
	if jsonOut {
		r.enc = json.NewEncoder(stdout)
	}
	return r
}

func (r *reporter) launched(cmdline string) {
	if !r.json {
		return
	}
	record := cliutil.NewLogRecord(r.runID, cliutil.SourceSystem, "info", "launched "+cmdline)
	cliutil.EncodeLogRecord(r.enc, r.stderr, record)
}

func (r *reporter) emitCaptured(source, text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if line == "" {
			continue
		}
		if r.json {
			record := cliutil.NewLogRecord(r.runID, source, "", line)
			cliutil.EncodeLogRecord(r.enc, r.stderr, record)
			continue
		}
		if source == cliutil.SourceStderr {
			fmt.Fprintln(r.stderr, line)
		} else {
			fmt.Fprintln(r.stdout, line)
		}
	}
}

func (r *reporter) report(outcome supervise.Outcome, captured bool) error {
	if captured {
		r.emitCaptured(cliutil.SourceStdout, outcome.Stdout)
		r.emitCaptured(cliutil.SourceStderr, outcome.Stderr)
	}

	summary, level := summarize(outcome)
	if r.json {
		record := cliutil.NewLogRecord(r.runID, cliutil.SourceSystem, level, summary)
		cliutil.EncodeLogRecord(r.enc, r.stderr, record)
	} else if outcome.Kind != supervise.KindNaturalExit {
		fmt.Fprintf(r.stderr, "leash: %s\n", summary)
	}

	switch outcome.Kind {
	case supervise.KindNaturalExit:
		if code := outcome.Status.Code; code != 0 {
			return &exitError{code: code}
		}
		return nil
	case supervise.KindTimedOut:
		return &exitError{code: exitTimedOut}
	case supervise.KindCheckKilled:
		return &exitError{code: exitCheckKilled}
	case supervise.KindKillFailed:
		return &exitError{code: exitKillFailed}
	case supervise.KindLaunchFailed:
		return &exitError{code: exitLaunchFailed}
	case supervise.KindCanceled:
		return &exitError{code: exitCanceled}
	default:
		return &exitError{code: 1}
	}
}

func summarize(outcome supervise.Outcome) (summary, level string) {
	switch outcome.Kind {
	case supervise.KindNaturalExit:
		return fmt.Sprintf("%s after %s", outcome.Status, outcome.Duration.Round(time.Millisecond)), "info"
	case supervise.KindTimedOut:
		return fmt.Sprintf("timed out after %s; killed (%s)", outcome.Duration.Round(time.Millisecond), outcome.Status), "warn"
	case supervise.KindCheckKilled:
		return fmt.Sprintf("check failed: %s; killed (%s)", outcome.Reason, outcome.Status), "warn"
	case supervise.KindLaunchFailed:
		return fmt.Sprintf("launch failed: %v", outcome.Err), "error"
	case supervise.KindKillFailed:
		return fmt.Sprintf("kill failed: %v; the process may still be running", outcome.Err), "error"
	case supervise.KindCanceled:
		return fmt.Sprintf("canceled; killed (%s)", outcome.Status), "warn"
	default:
		return outcome.Kind.String(), "info"
	}
}
