// Package builtin declares the commands every shell session starts with.
//
// Most builtins are thin producers or consumers over the stream contracts:
// they bind arguments in Prepare, so a bad argument fails while the pipeline
// compiles, and do their work in Run. The variable and directory commands
// are Mutate commands and run serialized against the interpreter state.
package builtin

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/crush/internal/command"
	"github.com/roach88/crush/internal/errs"
	"github.com/roach88/crush/internal/store"
	"github.com/roach88/crush/internal/stream"
	"github.com/roach88/crush/internal/value"
	"github.com/roach88/crush/internal/where"
)

// Options carries the collaborators some builtins need.
type Options struct {
	// History backs the history command. Nil disables it.
	History *store.Store
}

// Commands returns every builtin descriptor.
func Commands(opts Options) []*command.Command {
	return []*command.Command{
		echoCommand(),
		where.Command(),
		headCommand(),
		reverseCommand(),
		countCommand(),
		catCommand(),
		csvCommand(),
		sqliteCommand(),
		historyCommand(opts.History),
		lsCommand(),
		letCommand(),
		setCommand(),
		unsetCommand(),
		cdCommand(),
		envCommand(),
		pwdCommand(),
	}
}

// Declare registers every builtin in reg.
func Declare(reg *command.Registry, opts Options) error {
	for _, cmd := range Commands(opts) {
		if err := reg.Declare(cmd); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a sealed registry holding the builtins.
func NewRegistry(opts Options) (*command.Registry, error) {
	reg := command.NewRegistry()
	if err := Declare(reg, opts); err != nil {
		return nil, err
	}
	reg.Seal()
	return reg, nil
}

// sendRow sends row and reports whether the producer should stop. A consumer
// that went away stops the producer without an error.
func sendRow(out *stream.OutputStream, row value.Row) (bool, error) {
	if err := out.Send(row); err != nil {
		if errors.Is(err, stream.ErrClosed) {
			return true, nil
		}
		return true, err
	}
	return false, nil
}

// openIO initializes the input and then the output with schema. A nil schema
// reuses the input schema.
func openIO(ctx *command.RunContext, schema value.Schema) (*stream.InputStream, *stream.OutputStream, error) {
	in, err := ctx.Input.Initialize()
	if err != nil {
		return nil, nil, err
	}
	if schema == nil {
		schema = in.Schema()
	}
	out, err := ctx.Output.Initialize(schema)
	if err != nil {
		return nil, nil, err
	}
	return in, out, nil
}

// cwdOf returns the working directory visible at compile time.
func cwdOf(scope command.Scope) string {
	if scope != nil {
		return scope.Cwd()
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "/"
}

// resolvePath makes p absolute against the compile-time working directory,
// expanding a leading "~".
func resolvePath(scope command.Scope, p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errs.Argument("cannot expand %s: %v", p, err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(cwdOf(scope), p)
	}
	return filepath.Clean(p), nil
}

// pathArg reads a path from a Text or File value.
func pathArg(a command.Argument) (string, error) {
	switch v := a.Value.(type) {
	case value.File:
		return string(v), nil
	case value.Text:
		return string(v), nil
	default:
		return "", errs.Argument("expected a path, got %s", a.Source)
	}
}

// singleChar reads a one-character text argument such as a separator.
func singleChar(args command.Arguments, name string, def rune) (rune, error) {
	s, err := args.String(name, string(def))
	if err != nil {
		return 0, err
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, errs.Argument("argument %q: expected a single character, got %q", name, s)
	}
	return r[0], nil
}

// columnSpec builds a schema from name=type arguments, skipping the reserved
// option names.
func columnSpec(args command.Arguments, reserved ...string) (value.Schema, error) {
	var schema value.Schema
	for _, a := range args {
		if a.Name == "" || contains(reserved, a.Name) {
			continue
		}
		if a.IsStream() {
			return nil, errs.Argument("column %q: expected a type name", a.Name)
		}
		t, err := value.ParseValueType(value.Format(a.Value))
		if err != nil {
			return nil, errs.Wrap(errs.CodeArgument, "column "+a.Name, err)
		}
		if _, dup := schema.Index(a.Name); dup {
			return nil, errs.Argument("column %q declared twice", a.Name)
		}
		schema = append(schema, value.Column(a.Name, t))
	}
	if len(schema) == 0 {
		return nil, errs.Argument("no columns declared, use name=type")
	}
	return schema, nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// report hands a per-row error to the job's reporter, if any.
func report(ctx *command.RunContext, err error) {
	if ctx.Reporter != nil {
		ctx.Reporter.JobError(err)
	}
}
