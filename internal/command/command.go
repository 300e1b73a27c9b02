package command

import (
	"fmt"

	"github.com/roach88/crush/internal/state"
	"github.com/roach88/crush/internal/stream"
	"github.com/roach88/crush/internal/value"
)

// Exec selects how a command executes.
type Exec int

const (
	// ExecRun is a pure stream transform, executed on its own goroutine.
	ExecRun Exec = iota + 1

	// ExecMutate alters interpreter state, executed synchronously on the
	// caller's goroutine.
	ExecMutate
)

// String returns "run" or "mutate".
func (e Exec) String() string {
	switch e {
	case ExecRun:
		return "run"
	case ExecMutate:
		return "mutate"
	default:
		return fmt.Sprintf("exec(%d)", int(e))
	}
}

// Reporter receives non-fatal, per-row errors. It does not alter control
// flow. Implementations must be safe for concurrent use.
type Reporter interface {
	JobError(err error)
}

// Scope is the read-only view of interpreter state available at compile
// time.
type Scope interface {
	Lookup(name string) (value.Value, bool)
	Vars() map[string]value.Value
	Cwd() string
}

// PrepareContext is what a command sees when a call is bound.
type PrepareContext struct {
	Name      string
	InputType value.Schema
	Arguments Arguments
	Scope     Scope // may be nil
}

// Binding is the outcome of binding a call: the declared output schema and
// any command-specific compiled configuration.
type Binding struct {
	Output value.Schema
	Config any
}

// PrepareFunc checks arguments against the input schema and declares the
// output schema. Errors abort compilation before any row flows.
type PrepareFunc func(ctx *PrepareContext) (Binding, error)

// RunContext is handed to a Run command on its own goroutine. The command
// owns both endpoints exclusively.
type RunContext struct {
	JobID     string
	Name      string
	InputType value.Schema
	Arguments Arguments
	Config    any
	Input     *stream.Reader
	Output    *stream.Writer
	Reporter  Reporter
}

// RunFunc is a stream transform. Its only observable effects are stream
// sends and receives.
type RunFunc func(ctx *RunContext) error

// MutateContext is handed to a Mutate command on the caller's goroutine.
type MutateContext struct {
	JobID     string
	Name      string
	InputType value.Schema
	Arguments Arguments
	Config    any
	State     *state.State
}

// MutateFunc alters interpreter state.
type MutateFunc func(ctx *MutateContext) error

// Command describes one registered command.
type Command struct {
	// Name is the registry key.
	Name string

	// Short is a one-line description for listings.
	Short string

	// Exec selects Run or Mutate.
	Exec Exec

	// Prepare binds arguments at compile time. Nil means any arguments are
	// accepted and the output schema is empty.
	Prepare PrepareFunc

	// Run is required for ExecRun.
	Run RunFunc

	// Mutate is required for ExecMutate.
	Mutate MutateFunc
}

// validate checks that the descriptor is usable.
func (c *Command) validate() error {
	if c.Name == "" {
		return fmt.Errorf("command name is required")
	}
	switch c.Exec {
	case ExecRun:
		if c.Run == nil {
			return fmt.Errorf("command %q: run command without Run function", c.Name)
		}
	case ExecMutate:
		if c.Mutate == nil {
			return fmt.Errorf("command %q: mutate command without Mutate function", c.Name)
		}
	default:
		return fmt.Errorf("command %q: unknown exec kind %d", c.Name, int(c.Exec))
	}
	return nil
}
