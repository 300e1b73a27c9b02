package builtin

import (
	"errors"

	"github.com/roach88/crush/internal/command"
	"github.com/roach88/crush/internal/errs"
	"github.com/roach88/crush/internal/stream"
	"github.com/roach88/crush/internal/value"
)

// echoCommand emits one row per positional argument. When every argument
// has the same variant the column keeps it; otherwise cells are rendered as
// text.
func echoCommand() *command.Command {
	return &command.Command{
		Name:  "echo",
		Short: "emit each argument as a row",
		Exec:  command.ExecRun,
		Prepare: func(ctx *command.PrepareContext) (command.Binding, error) {
			if err := ctx.Arguments.Only(); err != nil {
				return command.Binding{}, err
			}
			var cells []value.Value
			for _, a := range ctx.Arguments {
				if a.IsStream() {
					return command.Binding{}, errs.Argument("echo: cannot echo a sub-pipeline")
				}
				cells = append(cells, a.Value)
			}

			t := value.TypeText
			if len(cells) > 0 {
				t = cells[0].Type()
				for _, c := range cells[1:] {
					if c.Type() != t {
						t = value.TypeText
						break
					}
				}
			}
			if t == value.TypeText {
				for i, c := range cells {
					cells[i] = value.NewText(value.Format(c))
				}
			}

			return command.Binding{
				Output: value.Schema{value.Column("value", t)},
				Config: cells,
			}, nil
		},
		Run: func(ctx *command.RunContext) error {
			cells, _ := ctx.Config.([]value.Value)
			out, err := ctx.Output.Initialize(value.Schema{value.Column("value", echoType(cells))})
			if err != nil {
				return err
			}
			for _, c := range cells {
				if stop, err := sendRow(out, value.NewRow(c)); stop {
					return err
				}
			}
			return nil
		},
	}
}

func echoType(cells []value.Value) value.ValueType {
	if len(cells) == 0 {
		return value.TypeText
	}
	return cells[0].Type()
}

// headCommand forwards the first n rows (default 10) and then stops, which
// releases the producer upstream.
func headCommand() *command.Command {
	return &command.Command{
		Name:  "head",
		Short: "keep the first n rows",
		Exec:  command.ExecRun,
		Prepare: func(ctx *command.PrepareContext) (command.Binding, error) {
			if err := ctx.Arguments.Only("n"); err != nil {
				return command.Binding{}, err
			}
			if err := ctx.Arguments.NoPositional(); err != nil {
				return command.Binding{}, err
			}
			n, err := ctx.Arguments.Integer("n", 10)
			if err != nil {
				return command.Binding{}, err
			}
			if n < 0 {
				return command.Binding{}, errs.Argument("argument \"n\": must not be negative")
			}
			return command.Binding{Output: ctx.InputType, Config: n}, nil
		},
		Run: func(ctx *command.RunContext) error {
			n, _ := ctx.Config.(int64)
			in, out, err := openIO(ctx, nil)
			if err != nil {
				return err
			}
			for i := int64(0); i < n; i++ {
				row, err := in.Recv()
				if errors.Is(err, stream.ErrEndOfStream) {
					return nil
				}
				if err != nil {
					return err
				}
				if stop, err := sendRow(out, row); stop {
					return err
				}
			}
			return nil
		},
	}
}

// reverseCommand buffers the whole input and emits it backwards.
func reverseCommand() *command.Command {
	return &command.Command{
		Name:  "reverse",
		Short: "emit rows in reverse order",
		Exec:  command.ExecRun,
		Prepare: func(ctx *command.PrepareContext) (command.Binding, error) {
			if len(ctx.Arguments) > 0 {
				return command.Binding{}, errs.Argument("reverse takes no arguments")
			}
			return command.Binding{Output: ctx.InputType}, nil
		},
		Run: func(ctx *command.RunContext) error {
			in, out, err := openIO(ctx, nil)
			if err != nil {
				return err
			}
			table, err := stream.Collect(in)
			if err != nil {
				return err
			}
			rows := table.Rows()
			for i := len(rows) - 1; i >= 0; i-- {
				if stop, err := sendRow(out, rows[i]); stop {
					return err
				}
			}
			return nil
		},
	}
}

var countSchema = value.Schema{value.Column("count", value.TypeInteger)}

// countCommand emits the number of input rows.
func countCommand() *command.Command {
	return &command.Command{
		Name:  "count",
		Short: "count input rows",
		Exec:  command.ExecRun,
		Prepare: func(ctx *command.PrepareContext) (command.Binding, error) {
			if len(ctx.Arguments) > 0 {
				return command.Binding{}, errs.Argument("count takes no arguments")
			}
			return command.Binding{Output: countSchema}, nil
		},
		Run: func(ctx *command.RunContext) error {
			in, out, err := openIO(ctx, countSchema)
			if err != nil {
				return err
			}
			var n int64
			for {
				_, err := in.Recv()
				if errors.Is(err, stream.ErrEndOfStream) {
					break
				}
				if err != nil {
					return err
				}
				n++
			}
			_, err = sendRow(out, value.NewRow(value.Integer(n)))
			return err
		},
	}
}

// catCommand concatenates its sub-pipeline arguments. Every stream must
// declare the same schema.
func catCommand() *command.Command {
	return &command.Command{
		Name:  "cat",
		Short: "concatenate sub-pipeline outputs",
		Exec:  command.ExecRun,
		Prepare: func(ctx *command.PrepareContext) (command.Binding, error) {
			streams := ctx.Arguments.Streams()
			if len(streams) == 0 || len(streams) != len(ctx.Arguments) {
				return command.Binding{}, errs.Argument("cat expects only (sub-pipeline) arguments")
			}
			schema := streams[0].StreamType
			for i, s := range streams[1:] {
				if !s.StreamType.Equal(schema) {
					return command.Binding{}, errs.Type(
						"cat: stream %d has schema %s, expected %s", i+2, s.StreamType, schema)
				}
			}
			return command.Binding{Output: schema}, nil
		},
		Run: func(ctx *command.RunContext) error {
			var out *stream.OutputStream
			for _, a := range ctx.Arguments.Streams() {
				src, err := a.Stream.Initialize()
				if err != nil {
					return err
				}
				if out == nil {
					out, err = ctx.Output.Initialize(a.StreamType)
					if err != nil {
						return err
					}
				}
				if err := stream.SendAll(src, out); err != nil {
					return err
				}
				src.Close()
			}
			return nil
		},
	}
}
