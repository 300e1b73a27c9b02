package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <script>",
		Short: "Run a script of pipelines",
		Long: `Run a script, one pipeline per line.

Blank lines and lines starting with # are skipped. Variables and the
working directory carry over from line to line. Execution stops at the
first failing pipeline. Use - to read the script from stdin.

An interrupt stops the script before its next line.

Example:
  crush run ./report.crush
  echo 'echo hello' | crush run -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(rootOpts, args[0], cmd)
		},
	}
}

func runScript(opts *RootOptions, path string, cmd *cobra.Command) error {
	var script io.Reader
	if path == "-" {
		script = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open script", err)
		}
		defer f.Close()
		script = f
	}

	sess, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer closeSession(sess)

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping script", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Debug("script starting", "path", path)
	if err := sess.ExecScript(ctx, script); err != nil {
		if errors.Is(err, context.Canceled) {
			return WrapExitError(ExitFailure, "script interrupted", err)
		}
		return WrapExitError(ExitFailure, "script failed", err)
	}
	slog.Debug("script finished", "path", path, "row_errors", sess.Errors())
	return nil
}
