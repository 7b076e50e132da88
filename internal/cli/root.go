package cli

import (
	stdcontext "context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/leash/internal/config"
)

func NewRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "leash",
		Short: "Run child processes that cannot run forever",
		Long: "leash supervises a child process and terminates it when a deadline\n" +
			"passes or a periodic liveness check fails, without using alarm signals.",
	}

	root.PersistentFlags().
		StringVarP(&configFile, "file", "f", "leash.yaml", "Path to leash task definitions")

	ctx := &context{configFile: &configFile}
	root.AddCommand(newRunCmd(ctx))
	root.AddCommand(newConfigCmd())

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root
}

// Execute runs the CLI entrypoint.
func Execute() {
	ctx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	root.SetContext(ctx)

	if err := root.ExecuteContext(ctx); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type context struct {
	configFile *string
}

func (c *context) loadConfig() (*config.File, error) {
	return config.Load(*c.configFile)
}

// exitError carries a process exit code through cobra without printing
// anything further; the run command has already reported the outcome.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}
