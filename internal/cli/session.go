package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/crush/internal/config"
	"github.com/roach88/crush/internal/shell"
)

// openSession loads configuration, configures logging and starts a shell
// session writing to the command's output streams.
func openSession(opts *RootOptions, cmd *cobra.Command) (*shell.Session, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to determine working directory", err)
	}

	path := opts.Config
	if path == "" {
		path = config.Discover(cwd)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	configureLogging(opts, cfg, cmd)
	if path != "" {
		slog.Debug("config loaded", "path", path)
	}

	sess, err := shell.New(shell.Options{
		Config: cfg,
		Cwd:    cwd,
		Out:    cmd.OutOrStdout(),
		ErrOut: cmd.ErrOrStderr(),
		Format: opts.Format,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to start session", err)
	}
	return sess, nil
}

// configureLogging installs a text handler on stderr. --verbose wins over the
// configured level.
func configureLogging(opts *RootOptions, cfg *config.Config, cmd *cobra.Command) {
	logLevel := cfg.LogLevel()
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// closeSession releases the session, logging failures.
func closeSession(sess *shell.Session) {
	if err := sess.Close(); err != nil {
		slog.Error("error closing session", "error", err)
	}
}
