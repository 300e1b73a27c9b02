package builtin

import (
	"os"
	"sort"

	"github.com/roach88/crush/internal/command"
	"github.com/roach88/crush/internal/errs"
	"github.com/roach88/crush/internal/value"
)

// bindings collects name=value arguments, rejecting positional and stream
// arguments.
func bindings(name string, args command.Arguments) (map[string]value.Value, []string, error) {
	if len(args) == 0 {
		return nil, nil, errs.Argument("%s: expected name=value", name)
	}
	vals := make(map[string]value.Value, len(args))
	var order []string
	for _, a := range args {
		if a.Name == "" {
			return nil, nil, errs.Argument("%s: expected name=value, got %s", name, a.Source)
		}
		if a.IsStream() {
			return nil, nil, errs.Argument("%s: cannot bind %s to a sub-pipeline", name, a.Name)
		}
		if _, seen := vals[a.Name]; !seen {
			order = append(order, a.Name)
		}
		vals[a.Name] = a.Value
	}
	return vals, order, nil
}

// letCommand declares new variables: let x=1 y="two"
func letCommand() *command.Command {
	return &command.Command{
		Name:  "let",
		Short: "declare variables",
		Exec:  command.ExecMutate,
		Mutate: func(ctx *command.MutateContext) error {
			vals, order, err := bindings(ctx.Name, ctx.Arguments)
			if err != nil {
				return err
			}
			for _, name := range order {
				if err := ctx.State.Let(name, vals[name]); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// setCommand assigns existing variables: set x=2
func setCommand() *command.Command {
	return &command.Command{
		Name:  "set",
		Short: "assign declared variables",
		Exec:  command.ExecMutate,
		Mutate: func(ctx *command.MutateContext) error {
			vals, order, err := bindings(ctx.Name, ctx.Arguments)
			if err != nil {
				return err
			}
			for _, name := range order {
				if err := ctx.State.Set(name, vals[name]); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// unsetCommand removes variables: unset x y
func unsetCommand() *command.Command {
	return &command.Command{
		Name:  "unset",
		Short: "remove variables",
		Exec:  command.ExecMutate,
		Mutate: func(ctx *command.MutateContext) error {
			if len(ctx.Arguments) == 0 {
				return errs.Argument("unset: expected variable names")
			}
			for _, a := range ctx.Arguments {
				t, ok := a.Value.(value.Text)
				if a.Name != "" || !ok {
					return errs.Argument("unset: expected a variable name, got %s", a.Source)
				}
				if err := ctx.State.Unset(string(t)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// cdCommand changes the working directory; without an argument it goes
// home.
func cdCommand() *command.Command {
	return &command.Command{
		Name:  "cd",
		Short: "change the working directory",
		Exec:  command.ExecMutate,
		Mutate: func(ctx *command.MutateContext) error {
			pos := ctx.Arguments.Positional()
			if len(pos) != len(ctx.Arguments) || len(pos) > 1 {
				return errs.Argument("cd takes at most one directory")
			}
			dir := "~"
			if len(pos) == 1 {
				p, err := pathArg(pos[0])
				if err != nil {
					return err
				}
				dir = p
			}
			if dir == "~" || (len(dir) > 1 && dir[:2] == "~/") {
				home, err := os.UserHomeDir()
				if err != nil {
					return errs.Argument("cd: %v", err)
				}
				dir = home + dir[1:]
			}
			return ctx.State.Chdir(dir)
		},
	}
}

var envSchema = value.Schema{
	value.Column("name", value.TypeText),
	value.Column("type", value.TypeText),
	value.Column("value", value.TypeText),
}

// envCommand lists the variables visible when the pipeline was compiled,
// sorted by name.
func envCommand() *command.Command {
	return &command.Command{
		Name:  "env",
		Short: "list variables",
		Exec:  command.ExecRun,
		Prepare: func(ctx *command.PrepareContext) (command.Binding, error) {
			if len(ctx.Arguments) > 0 {
				return command.Binding{}, errs.Argument("env takes no arguments")
			}
			var rows []value.Row
			if ctx.Scope != nil {
				vars := ctx.Scope.Vars()
				names := make([]string, 0, len(vars))
				for name := range vars {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					v := vars[name]
					rows = append(rows, value.NewRow(
						value.NewText(name),
						value.NewText(v.Type().String()),
						value.NewText(value.Format(v)),
					))
				}
			}
			return command.Binding{Output: envSchema, Config: rows}, nil
		},
		Run: func(ctx *command.RunContext) error {
			rows, _ := ctx.Config.([]value.Row)
			out, err := ctx.Output.Initialize(envSchema)
			if err != nil {
				return err
			}
			for _, row := range rows {
				if stop, err := sendRow(out, row); stop {
					return err
				}
			}
			return nil
		},
	}
}

var pwdSchema = value.Schema{value.Column("directory", value.TypeFile)}

// pwdCommand emits the working directory as of compile time.
func pwdCommand() *command.Command {
	return &command.Command{
		Name:  "pwd",
		Short: "print the working directory",
		Exec:  command.ExecRun,
		Prepare: func(ctx *command.PrepareContext) (command.Binding, error) {
			if len(ctx.Arguments) > 0 {
				return command.Binding{}, errs.Argument("pwd takes no arguments")
			}
			return command.Binding{Output: pwdSchema, Config: cwdOf(ctx.Scope)}, nil
		},
		Run: func(ctx *command.RunContext) error {
			dir, _ := ctx.Config.(string)
			out, err := ctx.Output.Initialize(pwdSchema)
			if err != nil {
				return err
			}
			_, err = sendRow(out, value.NewRow(value.File(dir)))
			return err
		},
	}
}
