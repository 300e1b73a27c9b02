package value

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/crush/internal/errs"
)

// NewText creates an NFC normalized Text cell.
func NewText(s string) Text {
	return Text(norm.NFC.String(s))
}

// Parse coerces text into a cell of the given type.
// Returns a Type error if the text cannot be coerced.
func Parse(t ValueType, text string) (Value, error) {
	switch t {
	case TypeText:
		return NewText(text), nil
	case TypeInteger:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, errs.Type("invalid integer %q", text)
		}
		return Integer(n), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, errs.Type("invalid float %q", text)
		}
		return Float(f), nil
	case TypeBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, errs.Type("invalid bool %q", text)
		}
		return Bool(b), nil
	case TypeFile:
		if text == "" {
			return nil, errs.Type("empty file name")
		}
		return File(text), nil
	case TypeGlob:
		g, err := NewGlob(text)
		if err != nil {
			return nil, errs.Wrap(errs.CodeType, "parse glob", err)
		}
		return g, nil
	case TypeRegex:
		r, err := NewRegex(text)
		if err != nil {
			return nil, errs.Wrap(errs.CodeType, "parse regex", err)
		}
		return r, nil
	case TypeDuration:
		d, err := time.ParseDuration(text)
		if err != nil {
			return nil, errs.Type("invalid duration %q", text)
		}
		return Duration(d), nil
	case TypeCommand:
		if text == "" {
			return nil, errs.Type("empty command name")
		}
		return Command(text), nil
	default:
		return nil, errs.Type("cannot parse into %s", t)
	}
}

// Infer derives a cell from literal syntax:
//
//	"quoted"           Text
//	42, -7             Integer
//	1.5, 2e3           Float
//	true, false        Bool
//	10s, 1h30m         Duration
//	re"^a.c$"          Regex
//	glob"*.go", *.go   Glob (bare tokens containing * ? or [)
//	/tmp, ./x, ~/x     File
//
// Any other token is Text.
func Infer(token string) (Value, error) {
	switch {
	case token == "":
		return nil, errs.Type("empty literal")
	case strings.HasPrefix(token, `"`):
		s, err := strconv.Unquote(token)
		if err != nil {
			return nil, errs.Type("invalid quoted text %s", token)
		}
		return NewText(s), nil
	case strings.HasPrefix(token, `re"`):
		s, err := strconv.Unquote(token[2:])
		if err != nil {
			return nil, errs.Type("invalid regex literal %s", token)
		}
		return Parse(TypeRegex, s)
	case strings.HasPrefix(token, `glob"`):
		s, err := strconv.Unquote(token[4:])
		if err != nil {
			return nil, errs.Type("invalid glob literal %s", token)
		}
		return Parse(TypeGlob, s)
	case token == "true" || token == "false":
		return Bool(token == "true"), nil
	}

	if startsNumeric(token) {
		if n, err := strconv.ParseInt(token, 10, 64); err == nil {
			return Integer(n), nil
		}
		if f, err := strconv.ParseFloat(token, 64); err == nil {
			return Float(f), nil
		}
		if d, err := time.ParseDuration(token); err == nil {
			return Duration(d), nil
		}
	}

	if isPathLiteral(token) {
		return File(token), nil
	}
	if strings.ContainsAny(token, "*?[") {
		return Parse(TypeGlob, token)
	}
	return NewText(token), nil
}

// startsNumeric reports whether token begins like a number ("1", "-1", ".5").
func startsNumeric(token string) bool {
	s := strings.TrimPrefix(strings.TrimPrefix(token, "-"), "+")
	if s == "" {
		return false
	}
	c := s[0]
	return (c >= '0' && c <= '9') || (c == '.' && len(s) > 1 && s[1] >= '0' && s[1] <= '9')
}

func isPathLiteral(token string) bool {
	if token == "." || token == ".." || token == "~" {
		return true
	}
	for _, prefix := range []string{"/", "./", "../", "~/"} {
		if strings.HasPrefix(token, prefix) {
			return true
		}
	}
	return false
}
