package command

import (
	"fmt"
	"sync/atomic"

	"github.com/roach88/crush/internal/errs"
	"github.com/roach88/crush/internal/stream"
	"github.com/roach88/crush/internal/value"
)

// CompileContext carries what argument resolution needs besides the input
// schema.
type CompileContext struct {
	// Scope resolves $name variables. May be nil, in which case any variable
	// reference is an argument error.
	Scope Scope

	// Capacity is the buffer size of streams created for sub-pipelines.
	// Zero selects stream.DefaultCapacity.
	Capacity int
}

// CallDefinition is an uncompiled command invocation. Immutable once built.
type CallDefinition struct {
	Command   *Command
	Arguments []ArgumentDefinition
}

// Call compiles the definition against the input schema.
//
// Every argument is resolved in order. Nested sub-pipelines are compiled
// into Jobs appended to deps; they are not run. The command's Prepare hook
// then binds the resolved arguments and declares the output schema.
//
// Returns an argument error for unresolvable variables, malformed
// sub-pipelines, or arguments the command rejects.
func (d CallDefinition) Call(input value.Schema, cc CompileContext, deps *[]*Job) (*Call, error) {
	if d.Command == nil {
		return nil, errs.Argument("call definition has no command")
	}

	args := make(Arguments, 0, len(d.Arguments))
	for i, def := range d.Arguments {
		arg, err := resolveArgument(def, cc, deps)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", d.Command.Name, i+1, err)
		}
		args = append(args, arg)
	}

	binding := Binding{}
	if d.Command.Prepare != nil {
		var err error
		binding, err = d.Command.Prepare(&PrepareContext{
			Name:      d.Command.Name,
			InputType: input,
			Arguments: args,
			Scope:     cc.Scope,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.Command.Name, err)
		}
	}

	return &Call{
		Name:       d.Command.Name,
		InputType:  input,
		OutputType: binding.Output,
		Arguments:  args,
		Exec:       d.Command.Exec,
		Config:     binding.Config,
		command:    d.Command,
	}, nil
}

// resolveArgument turns one definition into an Argument.
func resolveArgument(def ArgumentDefinition, cc CompileContext, deps *[]*Job) (Argument, error) {
	switch def.Kind {
	case ArgLiteral:
		if def.Value == nil {
			return Argument{}, errs.Argument("literal %q has no value", def.Source)
		}
		return Argument{Name: def.Name, Value: def.Value, Source: def.Source}, nil

	case ArgVariable:
		if cc.Scope == nil {
			return Argument{}, errs.Argument("unknown variable $%s", def.Variable)
		}
		v, ok := cc.Scope.Lookup(def.Variable)
		if !ok {
			return Argument{}, errs.Argument("unknown variable $%s", def.Variable)
		}
		return Argument{Name: def.Name, Value: v, Source: def.Source}, nil

	case ArgPipeline:
		if len(def.Pipeline) == 0 {
			return Argument{}, errs.Argument("empty sub-pipeline")
		}
		jobs, out, outType, err := CompilePipeline(def.Pipeline, stream.Empty(), nil, cc, deps)
		if err != nil {
			return Argument{}, err
		}
		*deps = append(*deps, jobs...)
		return Argument{Name: def.Name, Source: def.Source, Stream: out, StreamType: outType}, nil

	default:
		return Argument{}, errs.Argument("unknown argument kind %d", int(def.Kind))
	}
}

// CompilePipeline compiles a chain of stages.
//
// Stage i reads from the output of stage i-1; the first stage reads from
// input, whose schema is inputType. Each stage gets a fresh stream of
// cc.Capacity. Dependency Jobs from nested sub-pipelines are appended to
// deps; the stage Jobs themselves are returned in order along with the
// reader end and schema of the last stage's output.
func CompilePipeline(
	defs []CallDefinition,
	input *stream.Reader,
	inputType value.Schema,
	cc CompileContext,
	deps *[]*Job,
) ([]*Job, *stream.Reader, value.Schema, error) {
	jobs := make([]*Job, 0, len(defs))
	in := input
	inType := inputType

	for i, def := range defs {
		call, err := def.Call(inType, cc, deps)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("stage %d: %w", i+1, err)
		}

		w, r := stream.Pipe(cc.Capacity)
		jobs = append(jobs, &Job{Call: call, Input: in, Output: w})

		in = r
		inType = call.OutputType
	}

	return jobs, in, inType, nil
}

// Call is a compiled, single-use invocation.
type Call struct {
	Name       string
	InputType  value.Schema
	OutputType value.Schema
	Arguments  Arguments
	Exec       Exec
	Config     any

	command  *Command
	consumed atomic.Bool
}

// Command returns the descriptor this call was compiled from.
func (c *Call) Command() *Command {
	return c.command
}

// Consume marks the call as handed to an executor. It returns an error if the
// call was already consumed.
func (c *Call) Consume() error {
	if !c.consumed.CompareAndSwap(false, true) {
		return errs.Generic("call %s already executed", c.Name)
	}
	return nil
}

// Job is a Call bound to its stream endpoints.
type Job struct {
	// ID correlates log lines. Assigned by the executor if empty.
	ID string

	Call   *Call
	Input  *stream.Reader
	Output *stream.Writer
}
