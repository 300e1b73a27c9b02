package harness

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/crush/internal/config"
	"github.com/roach88/crush/internal/job"
	"github.com/roach88/crush/internal/shell"
	"github.com/roach88/crush/internal/value"
)

// WorkDir replaces the scenario's temporary directory in the transcript.
const WorkDir = "$WORK"

// historyFile is the history database name used when a scenario enables
// history.
const historyFile = "history.db"

// Result holds the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step and assertion held.
	Pass bool

	// Errors lists every failed expectation.
	Errors []string

	// Transcript is the deterministic record compared against golden files:
	// each step's source, its rendered rows, its row errors and its
	// pipeline error.
	Transcript []byte

	// Output is the rendered rows of every step, concatenated.
	Output string

	// RowErrors is the number of rows reported and skipped.
	RowErrors int

	// Spawned is the number of Run jobs started.
	Spawned int64
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh session rooted at a fresh temporary
// directory. The returned error covers harness failures (files could not be
// written, the session could not start); expectation failures are reported
// in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "crush-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("create scenario directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("failed to remove scenario directory", "dir", dir, "error", err)
		}
	}()

	if err := writeFiles(dir, scenario.Files); err != nil {
		return nil, err
	}

	cfg, err := scenarioConfig(scenario)
	if err != nil {
		return nil, err
	}

	var out, errOut bytes.Buffer
	sess, err := shell.New(shell.Options{
		Config:      cfg,
		Cwd:         dir,
		Out:         &out,
		ErrOut:      &errOut,
		Format:      scenario.Format,
		PipelineIDs: job.NewSequenceGenerator("pipeline"),
		JobIDs:      job.NewSequenceGenerator("job"),
	})
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			slog.Warn("failed to close session", "error", err)
		}
	}()

	result := &Result{}
	var transcript bytes.Buffer
	var output strings.Builder
	scrub := strings.NewReplacer(dir, WorkDir)

	for i, step := range scenario.Steps {
		out.Reset()
		errOut.Reset()

		runErr := sess.Exec(ctx, step.Run)

		fmt.Fprintf(&transcript, "$ %s\n", strings.TrimSpace(step.Run))
		transcript.WriteString(scrub.Replace(out.String()))
		transcript.WriteString(scrub.Replace(errOut.String()))
		if runErr != nil {
			fmt.Fprintf(&transcript, "error: %s\n", scrub.Replace(runErr.Error()))
		}
		output.Write(out.Bytes())

		if msg := checkStep(step, runErr); msg != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("steps[%d] %q: %s", i, step.Run, msg))
		}
	}

	result.Transcript = transcript.Bytes()
	result.Output = output.String()
	result.RowErrors = sess.Errors()
	result.Spawned = sess.Spawned()

	for _, a := range scenario.Assertions {
		if err := evaluateAssertion(result, a); err != nil {
			result.Errors = append(result.Errors, err.Error())
		}
	}

	result.Pass = len(result.Errors) == 0
	return result, nil
}

// checkStep returns a failure message, or "" when the step met its
// expectation.
func checkStep(step Step, runErr error) string {
	switch {
	case step.Error == "" && runErr != nil:
		return fmt.Sprintf("unexpected error: %v", runErr)
	case step.Error != "" && runErr == nil:
		return fmt.Sprintf("expected error containing %q, got success", step.Error)
	case step.Error != "" && !strings.Contains(runErr.Error(), step.Error):
		return fmt.Sprintf("expected error containing %q, got %v", step.Error, runErr)
	}
	return ""
}

// writeFiles creates the scenario's fixture files in sorted order.
func writeFiles(dir string, files map[string]string) error {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create directory for %s: %w", name, err)
		}
		if err := os.WriteFile(path, []byte(files[name]), 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// scenarioConfig builds the session configuration from the scenario.
func scenarioConfig(s *Scenario) (*config.Config, error) {
	cfg := config.Default()
	for name, raw := range s.Vars {
		v, err := convertVar(raw)
		if err != nil {
			return nil, fmt.Errorf("vars.%s: %w", name, err)
		}
		cfg.Vars[name] = v
	}
	if s.History {
		cfg.History.Path = historyFile
	}
	return cfg, nil
}

// convertVar maps a decoded YAML scalar to a cell value.
func convertVar(raw any) (value.Value, error) {
	switch v := raw.(type) {
	case int:
		return value.Integer(v), nil
	case int64:
		return value.Integer(v), nil
	case float64:
		return value.Float(v), nil
	case bool:
		return value.Bool(v), nil
	case string:
		return value.NewText(v), nil
	default:
		return nil, fmt.Errorf("unsupported variable type %T", raw)
	}
}
