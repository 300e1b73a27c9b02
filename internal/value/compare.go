package value

import (
	"cmp"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/roach88/crush/internal/errs"
)

// Equal reports structural, variant-sensitive equality.
// Values of different variants are never equal. Patterns compare by source.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Text:
		y, ok := b.(Text)
		return ok && x == y
	case Integer:
		y, ok := b.(Integer)
		return ok && x == y
	case Float:
		y, ok := b.(Float)
		if !ok {
			return false
		}
		// NaN is equal to itself so that every cell equals itself.
		return x == y || (math.IsNaN(float64(x)) && math.IsNaN(float64(y)))
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case File:
		y, ok := b.(File)
		return ok && x == y
	case Duration:
		y, ok := b.(Duration)
		return ok && x == y
	case Command:
		y, ok := b.(Command)
		return ok && x == y
	case Glob:
		y, ok := b.(Glob)
		return ok && x.Source == y.Source
	case Regex:
		y, ok := b.(Regex)
		return ok && x.Source == y.Source
	default:
		return false
	}
}

// Compare is a partial order over cells.
// It returns ok=false when the pair is incomparable: different variants, or a
// variant with no defined order.
func Compare(a, b Value) (int, bool) {
	switch x := a.(type) {
	case Integer:
		if y, ok := b.(Integer); ok {
			return cmp.Compare(x, y), true
		}
	case Float:
		if y, ok := b.(Float); ok {
			if math.IsNaN(float64(x)) || math.IsNaN(float64(y)) {
				return 0, false
			}
			return cmp.Compare(x, y), true
		}
	case Text:
		if y, ok := b.(Text); ok {
			return strings.Compare(string(x), string(y)), true
		}
	case Duration:
		if y, ok := b.(Duration); ok {
			return cmp.Compare(x, y), true
		}
	}
	return 0, false
}

// Matches tests needle against pattern.
//
// The needle must be Text or File and the pattern Glob or Regex. A File whose
// path is not valid UTF-8 fails with "invalid filename"; every other
// combination fails with "invalid match".
func Matches(needle, pattern Value) (bool, error) {
	var s string
	switch n := needle.(type) {
	case Text:
		s = string(n)
	case File:
		if !utf8.ValidString(string(n)) {
			if isPattern(pattern) {
				return false, errs.Match("invalid filename")
			}
			return false, errs.Match("invalid match")
		}
		s = string(n)
	default:
		return false, errs.Match("invalid match")
	}

	switch p := pattern.(type) {
	case Glob:
		return p.Match(s), nil
	case Regex:
		return p.Match(s), nil
	default:
		return false, errs.Match("invalid match")
	}
}

func isPattern(v Value) bool {
	switch v.(type) {
	case Glob, Regex:
		return true
	default:
		return false
	}
}
