package where

import (
	"strings"

	"github.com/roach88/crush/internal/errs"
)

type tokenKind int

const (
	tokWord tokenKind = iota + 1
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
}

// opStart begins an operator; opRest may follow it. A leading '~' is a
// home-relative path, not an operator.
const (
	opStart = "=!<>"
	opRest  = "=~"
)

// lex splits argument tokens further into words, operators and
// parentheses. Quoted sections are kept intact inside the word they belong
// to, so `re"a|b"` stays one word.
func lex(args []string) ([]token, error) {
	var out []token
	for _, arg := range args {
		toks, err := lexArg(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, toks...)
	}
	return out, nil
}

func lexArg(s string) ([]token, error) {
	var (
		out  []token
		word strings.Builder
	)
	flush := func() {
		if word.Len() > 0 {
			out = append(out, token{kind: tokWord, text: word.String()})
			word.Reset()
		}
	}

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '"':
			end, err := quoteEnd(s, i)
			if err != nil {
				return nil, err
			}
			word.WriteString(s[i:end])
			i = end

		case c == ' ' || c == '\t' || c == '\n':
			flush()
			i++

		case c == '(':
			flush()
			out = append(out, token{kind: tokLParen, text: "("})
			i++

		case c == ')':
			flush()
			out = append(out, token{kind: tokRParen, text: ")"})
			i++

		case strings.IndexByte(opStart, c) >= 0:
			flush()
			j := i + 1
			for j < len(s) && strings.IndexByte(opRest, s[j]) >= 0 {
				j++
			}
			op := s[i:j]
			if _, ok := lookupOp(op); !ok {
				return nil, errs.Argument("unknown operator %q", op)
			}
			out = append(out, token{kind: tokOp, text: op})
			i = j

		default:
			word.WriteByte(c)
			i++
		}
	}
	flush()
	return out, nil
}

// quoteEnd returns the index just past the quote that closes the one at
// start, honoring backslash escapes.
func quoteEnd(s string, start int) (int, error) {
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i + 1, nil
		}
	}
	return 0, errs.Argument("unterminated quote in %s", s)
}
