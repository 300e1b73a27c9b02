package where

import (
	"errors"

	"github.com/roach88/crush/internal/command"
	"github.com/roach88/crush/internal/errs"
	"github.com/roach88/crush/internal/stream"
	"github.com/roach88/crush/internal/value"
)

// Filter forwards the rows of in that satisfy cond to out, in order.
//
// A row whose evaluation fails is reported to reporter and dropped; the loop
// continues with the next row. The loop ends at end of stream, or quietly
// when the consumer of out goes away.
func Filter(cond Condition, in stream.Readable, out *stream.OutputStream, reporter command.Reporter) error {
	for {
		row, err := in.Recv()
		if errors.Is(err, stream.ErrEndOfStream) {
			return nil
		}
		if err != nil {
			return err
		}

		ok, err := Evaluate(cond, row)
		if err != nil {
			if reporter != nil {
				reporter.JobError(err)
			}
			continue
		}
		if !ok {
			continue
		}

		if err := out.Send(row); err != nil {
			if errors.Is(err, stream.ErrClosed) {
				return nil
			}
			return err
		}
	}
}

// Command returns the descriptor of the where command.
//
// The condition is parsed while the pipeline compiles, so a malformed
// condition or an unknown column fails before any row flows.
func Command() *command.Command {
	return &command.Command{
		Name:    "where",
		Short:   "keep rows matching a condition",
		Exec:    command.ExecRun,
		Prepare: prepare,
		Run:     run,
	}
}

func prepare(ctx *command.PrepareContext) (command.Binding, error) {
	vars := map[string]value.Value{}
	tokens := make([]string, 0, len(ctx.Arguments))
	for _, arg := range ctx.Arguments {
		if arg.Name != "" {
			return command.Binding{}, errs.Argument("unexpected named argument %s", arg.Name)
		}
		if arg.IsStream() {
			return command.Binding{}, errs.Argument("condition cannot contain a sub-pipeline")
		}
		if len(arg.Source) > 1 && arg.Source[0] == '$' {
			vars[arg.Source[1:]] = arg.Value
		}
		tokens = append(tokens, arg.Source)
	}

	cond, err := ParseWithVars(ctx.InputType, tokens, vars)
	if err != nil {
		return command.Binding{}, err
	}
	return command.Binding{Output: ctx.InputType, Config: cond}, nil
}

func run(ctx *command.RunContext) error {
	cond, ok := ctx.Config.(Condition)
	if !ok {
		return errs.Generic("where: missing compiled condition")
	}

	in, err := ctx.Input.Initialize()
	if err != nil {
		return err
	}
	out, err := ctx.Output.Initialize(in.Schema())
	if err != nil {
		return err
	}
	return Filter(cond, in, out, ctx.Reporter)
}
