package testutil

import (
	"errors"

	"github.com/roach88/crush/internal/command"
	"github.com/roach88/crush/internal/errs"
	"github.com/roach88/crush/internal/stream"
	"github.com/roach88/crush/internal/value"
)

// NumbersSchema is the output schema of the Numbers command.
var NumbersSchema = value.Schema{value.Column("n", value.TypeInteger)}

// Numbers returns a Run command that emits the integers 1..count as a single
// column "n". It stops quietly when its consumer goes away.
func Numbers(name string, count int) *command.Command {
	return &command.Command{
		Name: name,
		Exec: command.ExecRun,
		Prepare: func(*command.PrepareContext) (command.Binding, error) {
			return command.Binding{Output: NumbersSchema}, nil
		},
		Run: func(ctx *command.RunContext) error {
			out, err := ctx.Output.Initialize(NumbersSchema)
			if err != nil {
				return err
			}
			for i := 1; i <= count; i++ {
				if err := out.Send(value.NewRow(value.Integer(i))); err != nil {
					if errors.Is(err, stream.ErrClosed) {
						return nil
					}
					return err
				}
			}
			return nil
		},
	}
}

// Passthrough returns a Run command that copies its input to its output.
func Passthrough(name string) *command.Command {
	return &command.Command{
		Name: name,
		Exec: command.ExecRun,
		Prepare: func(ctx *command.PrepareContext) (command.Binding, error) {
			return command.Binding{Output: ctx.InputType}, nil
		},
		Run: func(ctx *command.RunContext) error {
			in, err := ctx.Input.Initialize()
			if err != nil {
				return err
			}
			out, err := ctx.Output.Initialize(in.Schema())
			if err != nil {
				return err
			}
			return stream.SendAll(in, out)
		},
	}
}

// Failing returns a Run command that returns err without producing output.
func Failing(name string, err error) *command.Command {
	return &command.Command{
		Name: name,
		Exec: command.ExecRun,
		Run: func(*command.RunContext) error {
			return err
		},
	}
}

// Panicking returns a Run command that panics with msg.
func Panicking(name, msg string) *command.Command {
	return &command.Command{
		Name: name,
		Exec: command.ExecRun,
		Run: func(*command.RunContext) error {
			panic(msg)
		},
	}
}

// Counter returns a Mutate command that increments *calls each time it runs.
func Counter(name string, calls *int) *command.Command {
	return &command.Command{
		Name: name,
		Exec: command.ExecMutate,
		Mutate: func(*command.MutateContext) error {
			*calls++
			return nil
		},
	}
}

// Rejecting returns a command whose Prepare always fails, for compile error
// paths.
func Rejecting(name string) *command.Command {
	return &command.Command{
		Name: name,
		Exec: command.ExecRun,
		Prepare: func(*command.PrepareContext) (command.Binding, error) {
			return command.Binding{}, errs.Argument("%s rejects every call", name)
		},
		Run: func(*command.RunContext) error {
			return nil
		},
	}
}

// Call wraps cmd in a CallDefinition with the given arguments.
func Call(cmd *command.Command, args ...command.ArgumentDefinition) command.CallDefinition {
	return command.CallDefinition{Command: cmd, Arguments: args}
}
