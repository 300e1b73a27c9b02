package command

import (
	"github.com/roach88/crush/internal/errs"
	"github.com/roach88/crush/internal/stream"
	"github.com/roach88/crush/internal/value"
)

// ArgumentKind distinguishes argument definitions.
type ArgumentKind int

const (
	// ArgLiteral is a value written in the pipeline text.
	ArgLiteral ArgumentKind = iota + 1

	// ArgVariable is a $name reference resolved at compile time.
	ArgVariable

	// ArgPipeline is a nested sub-pipeline, compiled into dependency Jobs.
	ArgPipeline
)

// ArgumentDefinition is the uncompiled form of one argument.
type ArgumentDefinition struct {
	// Name is set for name=value bindings; empty for positional arguments.
	Name string

	Kind ArgumentKind

	// Value holds the literal for ArgLiteral.
	Value value.Value

	// Source is the raw token as written, quotes included.
	Source string

	// Variable is the referenced name for ArgVariable.
	Variable string

	// Pipeline holds the stages of an ArgPipeline.
	Pipeline []CallDefinition
}

// Literal creates a literal argument definition.
func Literal(name string, v value.Value, source string) ArgumentDefinition {
	return ArgumentDefinition{Name: name, Kind: ArgLiteral, Value: v, Source: source}
}

// Variable creates a $name argument definition.
func Variable(name, variable string) ArgumentDefinition {
	return ArgumentDefinition{Name: name, Kind: ArgVariable, Variable: variable, Source: "$" + variable}
}

// SubPipeline creates a nested pipeline argument definition.
func SubPipeline(name string, defs []CallDefinition) ArgumentDefinition {
	return ArgumentDefinition{Name: name, Kind: ArgPipeline, Pipeline: defs, Source: "{...}"}
}

// Argument is a resolved argument.
type Argument struct {
	Name   string
	Value  value.Value // nil when Stream is set
	Source string

	// Stream is the reader end of a dependency Job's output.
	Stream     *stream.Reader
	StreamType value.Schema
}

// IsStream reports whether the argument is a sub-pipeline output.
func (a Argument) IsStream() bool {
	return a.Stream != nil
}

// Arguments is the resolved argument list of a call.
type Arguments []Argument

// Positional returns the unnamed arguments in order.
func (args Arguments) Positional() Arguments {
	var out Arguments
	for _, a := range args {
		if a.Name == "" {
			out = append(out, a)
		}
	}
	return out
}

// Named returns the last argument bound to name.
func (args Arguments) Named(name string) (Argument, bool) {
	for i := len(args) - 1; i >= 0; i-- {
		if args[i].Name == name {
			return args[i], true
		}
	}
	return Argument{}, false
}

// Sources returns the raw tokens of the positional arguments.
func (args Arguments) Sources() []string {
	pos := args.Positional()
	out := make([]string, len(pos))
	for i, a := range pos {
		out[i] = a.Source
	}
	return out
}

// Streams returns the sub-pipeline arguments in order.
func (args Arguments) Streams() Arguments {
	var out Arguments
	for _, a := range args {
		if a.IsStream() {
			out = append(out, a)
		}
	}
	return out
}

// Only fails with an argument error if any named argument is not in allowed.
func (args Arguments) Only(allowed ...string) error {
	for _, a := range args {
		if a.Name == "" {
			continue
		}
		found := false
		for _, name := range allowed {
			if a.Name == name {
				found = true
				break
			}
		}
		if !found {
			return errs.Argument("unknown argument %q", a.Name)
		}
	}
	return nil
}

// NoPositional fails if any positional argument is present.
func (args Arguments) NoPositional() error {
	if pos := args.Positional(); len(pos) > 0 {
		return errs.Argument("unexpected argument %s", pos[0].Source)
	}
	return nil
}

// scalar returns the named argument's value, checking it is not a stream.
func (args Arguments) scalar(name string) (value.Value, bool, error) {
	a, ok := args.Named(name)
	if !ok {
		return nil, false, nil
	}
	if a.IsStream() {
		return nil, false, errs.Argument("argument %q: expected a value, got a stream", name)
	}
	return a.Value, true, nil
}

// Integer returns the named integer argument or def.
func (args Arguments) Integer(name string, def int64) (int64, error) {
	v, ok, err := args.scalar(name)
	if err != nil || !ok {
		return def, err
	}
	n, isInt := v.(value.Integer)
	if !isInt {
		return def, errs.Argument("argument %q: expected integer, got %s", name, v.Type())
	}
	return int64(n), nil
}

// String returns the named argument rendered as text, or def. Accepts Text,
// File and Command values.
func (args Arguments) String(name, def string) (string, error) {
	v, ok, err := args.scalar(name)
	if err != nil || !ok {
		return def, err
	}
	switch s := v.(type) {
	case value.Text:
		return string(s), nil
	case value.File:
		return string(s), nil
	case value.Command:
		return string(s), nil
	default:
		return def, errs.Argument("argument %q: expected text, got %s", name, v.Type())
	}
}

// Bool returns the named boolean argument or def.
func (args Arguments) Bool(name string, def bool) (bool, error) {
	v, ok, err := args.scalar(name)
	if err != nil || !ok {
		return def, err
	}
	b, isBool := v.(value.Bool)
	if !isBool {
		return def, errs.Argument("argument %q: expected bool, got %s", name, v.Type())
	}
	return bool(b), nil
}
