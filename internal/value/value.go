package value

import (
	"fmt"
	"regexp"
	"time"

	"github.com/gobwas/glob"
)

// Value is a sealed interface representing one typed cell.
// Only the variants declared in this file implement it.
type Value interface {
	value() // Sealed - only these types implement it

	// Type returns the variant's type tag.
	Type() ValueType
}

// Text is a unicode string cell.
type Text string

func (Text) value() {}

// Type implements Value.
func (Text) Type() ValueType { return TypeText }

// Integer is a signed 64-bit integer cell.
type Integer int64

func (Integer) value() {}

// Type implements Value.
func (Integer) Type() ValueType { return TypeInteger }

// Float is a 64-bit floating point cell.
type Float float64

func (Float) value() {}

// Type implements Value.
func (Float) Type() ValueType { return TypeFloat }

// Bool is a boolean cell.
type Bool bool

func (Bool) value() {}

// Type implements Value.
func (Bool) Type() ValueType { return TypeBool }

// File is a filesystem path cell. The path is kept as raw bytes in a string
// and may not be valid UTF-8.
type File string

func (File) value() {}

// Type implements Value.
func (File) Type() ValueType { return TypeFile }

// Duration is a time span cell.
type Duration time.Duration

func (Duration) value() {}

// Type implements Value.
func (Duration) Type() ValueType { return TypeDuration }

// Command is a reference to a registered command by name.
type Command string

func (Command) value() {}

// Type implements Value.
func (Command) Type() ValueType { return TypeCommand }

// Glob is a shell-style wildcard pattern. It holds both the source text and
// the compiled matcher.
type Glob struct {
	Source  string
	matcher glob.Glob
}

func (Glob) value() {}

// Type implements Value.
func (Glob) Type() ValueType { return TypeGlob }

// NewGlob compiles a glob pattern.
func NewGlob(source string) (Glob, error) {
	g, err := glob.Compile(source)
	if err != nil {
		return Glob{}, fmt.Errorf("invalid glob %q: %w", source, err)
	}
	return Glob{Source: source, matcher: g}, nil
}

// MustGlob is NewGlob that panics on error. For tests and constants.
func MustGlob(source string) Glob {
	g, err := NewGlob(source)
	if err != nil {
		panic(err)
	}
	return g
}

// Match reports whether s matches the pattern.
func (g Glob) Match(s string) bool {
	if g.matcher == nil {
		return false
	}
	return g.matcher.Match(s)
}

// Regex is a regular expression pattern. It holds both the source text and
// the compiled matcher.
type Regex struct {
	Source string
	re     *regexp.Regexp
}

func (Regex) value() {}

// Type implements Value.
func (Regex) Type() ValueType { return TypeRegex }

// NewRegex compiles a regular expression.
func NewRegex(source string) (Regex, error) {
	re, err := regexp.Compile(source)
	if err != nil {
		return Regex{}, fmt.Errorf("invalid regex %q: %w", source, err)
	}
	return Regex{Source: source, re: re}, nil
}

// MustRegex is NewRegex that panics on error. For tests and constants.
func MustRegex(source string) Regex {
	r, err := NewRegex(source)
	if err != nil {
		panic(err)
	}
	return r
}

// Match reports whether s contains a match of the expression.
func (r Regex) Match(s string) bool {
	if r.re == nil {
		return false
	}
	return r.re.MatchString(s)
}
