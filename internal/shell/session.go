// Package shell wires the interpreter together: configuration, state,
// the builtin registry, the job runner, the row printer and the optional
// history store. Both the CLI and the conformance harness drive pipelines
// through a Session.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/crush/internal/builtin"
	"github.com/roach88/crush/internal/command"
	"github.com/roach88/crush/internal/config"
	"github.com/roach88/crush/internal/job"
	"github.com/roach88/crush/internal/parse"
	"github.com/roach88/crush/internal/printer"
	"github.com/roach88/crush/internal/state"
	"github.com/roach88/crush/internal/store"
)

// Options configures a Session.
type Options struct {
	// Config supplies stream capacity, history path and initial variables.
	// Nil means config.Default().
	Config *config.Config

	// Cwd is the initial working directory. Relative history paths resolve
	// against it.
	Cwd string

	// Out receives rendered rows, ErrOut receives per-row job errors.
	Out    io.Writer
	ErrOut io.Writer

	// Format is printer.FormatText or printer.FormatJSON.
	Format string

	// PipelineIDs names history entries. Defaults to UUIDv7.
	PipelineIDs job.IDGenerator

	// JobIDs names spawned jobs. Defaults to UUIDv7.
	JobIDs job.IDGenerator
}

// Session is one interpreter instance. Exec calls are serialized by the
// underlying Runner.
type Session struct {
	registry *command.Registry
	runner   *job.Runner
	printer  *printer.Printer
	history  *store.Store
	ids      job.IDGenerator
}

// New builds a session. The caller must Close it to release the history
// store.
func New(opts Options) (*Session, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	st := state.New(opts.Cwd)
	for _, name := range cfg.VarNames() {
		if err := st.Let(name, cfg.Vars[name]); err != nil {
			return nil, fmt.Errorf("seed variable %s: %w", name, err)
		}
	}

	var history *store.Store
	if cfg.History.Path != "" {
		path, err := cfg.History.Resolve(st.Cwd())
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		h, err := store.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		history = h
		slog.Debug("history enabled", "path", path)
	}

	reg, err := builtin.NewRegistry(builtin.Options{History: history})
	if err != nil {
		closeHistory(history)
		return nil, err
	}

	p := printer.New(opts.Out, opts.ErrOut, opts.Format)

	var execOpts []job.ExecutorOption
	if opts.JobIDs != nil {
		execOpts = append(execOpts, job.WithIDGenerator(opts.JobIDs))
	}
	exec := job.NewExecutor(p, execOpts...)

	ids := opts.PipelineIDs
	if ids == nil {
		ids = job.UUIDv7Generator{}
	}

	return &Session{
		registry: reg,
		runner:   job.NewRunner(exec, st, job.WithCapacity(cfg.Stream.Capacity)),
		printer:  p,
		history:  history,
		ids:      ids,
	}, nil
}

// Registry returns the sealed command registry.
func (s *Session) Registry() *command.Registry {
	return s.registry
}

// State returns the interpreter state.
func (s *Session) State() *state.State {
	return s.runner.State()
}

// Errors returns the number of per-row errors reported so far.
func (s *Session) Errors() int {
	return s.printer.Errors()
}

// Spawned returns the number of Run jobs started so far.
func (s *Session) Spawned() int64 {
	return s.runner.Executor().Spawned()
}

// Exec parses and runs one pipeline, rendering its output. Blank input and
// comment-only input do nothing. When history is enabled every non-empty
// pipeline is recorded with its outcome.
func (s *Session) Exec(ctx context.Context, src string) error {
	defs, err := parse.Parse(src, s.registry)
	if err == nil && len(defs) == 0 {
		return nil
	}
	if err == nil {
		err = s.runner.Run(defs, s.printer.Sink)
	}

	s.record(ctx, strings.TrimSpace(src), err)
	return err
}

// ExecScript runs r line by line. Execution stops at the first failing
// pipeline; the error names its line number.
func (s *Session) ExecScript(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Exec(ctx, scanner.Text()); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	return nil
}

// Close releases the history store.
func (s *Session) Close() error {
	if s.history == nil {
		return nil
	}
	return s.history.Close()
}

func (s *Session) record(ctx context.Context, pipeline string, runErr error) {
	if s.history == nil || pipeline == "" {
		return
	}
	id := s.ids.Generate()
	if err := s.history.RecordPipeline(ctx, id, pipeline, runErr); err != nil {
		slog.Warn("failed to record pipeline", "id", id, "error", err)
	}
}

func closeHistory(h *store.Store) {
	if h == nil {
		return
	}
	if err := h.Close(); err != nil {
		slog.Error("error closing history", "error", err)
	}
}
