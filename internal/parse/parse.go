// Package parse turns pipeline text into call definitions.
//
// Syntax:
//
//	pipeline := stage ("|" stage)*
//	stage    := command argument*
//	argument := word | name=word | $name | name=$name | { pipeline } | name={ pipeline }
//
// Words are separated by whitespace. Double-quoted sections may contain
// whitespace, pipes and braces; the quotes stay part of the word's source
// text. A word starting with '#' outside quotes begins a comment that runs to
// the end of the line.
//
// Literal words are typed by value.Infer. The raw source of every word is
// kept, so commands with their own argument language (where) can re-read
// it.
package parse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/crush/internal/command"
	"github.com/roach88/crush/internal/errs"
	"github.com/roach88/crush/internal/value"
)

// namedArg matches name=value words. The value may not start with '=' or
// '~', so comparisons like size==1 and name=~"x" stay positional.
var namedArg = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)=([^=~].*)?$`)

// variableRef matches $name.
var variableRef = regexp.MustCompile(`^\$([A-Za-z_][A-Za-z0-9_]*)$`)

// Parse parses src into the stages of one pipeline, resolving command names
// in reg. An empty source yields no stages.
func Parse(src string, reg *command.Registry) ([]command.CallDefinition, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, nil
	}

	p := &parser{toks: toks, reg: reg}
	defs, err := p.pipeline()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, errs.Argument("unexpected %q", p.peek().text)
	}
	return defs, nil
}

type parser struct {
	toks []token
	pos  int
	reg  *command.Registry
}

func (p *parser) done() bool {
	return p.pos >= len(p.toks)
}

func (p *parser) peek() token {
	if p.done() {
		return token{}
	}
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	p.pos++
	return t
}

// pipeline parses stages until end of input or a closing brace, which is left
// for the caller.
func (p *parser) pipeline() ([]command.CallDefinition, error) {
	var defs []command.CallDefinition
	for {
		def, err := p.stage()
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", len(defs)+1, err)
		}
		defs = append(defs, def)

		if p.peek().kind != tokPipe {
			return defs, nil
		}
		p.next()
	}
}

func (p *parser) stage() (command.CallDefinition, error) {
	t := p.next()
	if t.kind != tokWord {
		return command.CallDefinition{}, errs.Argument("empty pipeline stage")
	}
	cmd, ok := p.reg.Lookup(t.text)
	if !ok {
		return command.CallDefinition{}, errs.Argument("unknown command %q", t.text)
	}

	def := command.CallDefinition{Command: cmd}
	for {
		switch p.peek().kind {
		case tokWord:
			arg, err := p.argument(p.next().text)
			if err != nil {
				return command.CallDefinition{}, err
			}
			def.Arguments = append(def.Arguments, arg)

		case tokLBrace:
			arg, err := p.subPipeline("")
			if err != nil {
				return command.CallDefinition{}, err
			}
			def.Arguments = append(def.Arguments, arg)

		default:
			return def, nil
		}
	}
}

// argument parses one word, which may be a name= prefix of a following
// sub-pipeline.
func (p *parser) argument(word string) (command.ArgumentDefinition, error) {
	name, src := "", word
	if m := namedArg.FindStringSubmatch(word); m != nil {
		name, src = m[1], m[2]
		if src == "" {
			if p.peek().kind == tokLBrace {
				return p.subPipeline(name)
			}
			return command.ArgumentDefinition{}, errs.Argument("argument %q has no value", name)
		}
	}

	if m := variableRef.FindStringSubmatch(src); m != nil {
		return command.Variable(name, m[1]), nil
	}

	v, err := value.Infer(src)
	if err != nil {
		return command.ArgumentDefinition{}, errs.Wrap(errs.CodeArgument, "argument "+word, err)
	}
	return command.Literal(name, v, src), nil
}

func (p *parser) subPipeline(name string) (command.ArgumentDefinition, error) {
	p.next() // {
	if p.peek().kind == tokRBrace {
		return command.ArgumentDefinition{}, errs.Argument("empty sub-pipeline")
	}
	defs, err := p.pipeline()
	if err != nil {
		return command.ArgumentDefinition{}, err
	}
	if p.next().kind != tokRBrace {
		return command.ArgumentDefinition{}, errs.Argument("missing closing brace")
	}
	return command.SubPipeline(name, defs), nil
}

type tokenKind int

const (
	tokWord tokenKind = iota + 1
	tokPipe
	tokLBrace
	tokRBrace
)

type token struct {
	kind tokenKind
	text string
}

// lex splits src into words and punctuation.
func lex(src string) ([]token, error) {
	var (
		toks []token
		word strings.Builder
	)
	flush := func() {
		if word.Len() > 0 {
			toks = append(toks, token{kind: tokWord, text: word.String()})
			word.Reset()
		}
	}

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '"':
			end := quoteEnd(src, i)
			if end < 0 {
				return nil, errs.Argument("unterminated quote")
			}
			word.WriteString(src[i:end])
			i = end

		case c == '#' && word.Len() == 0:
			for i < len(src) && src[i] != '\n' {
				i++
			}

		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flush()
			i++

		case c == '|':
			flush()
			toks = append(toks, token{kind: tokPipe, text: "|"})
			i++

		case c == '{':
			flush()
			toks = append(toks, token{kind: tokLBrace, text: "{"})
			i++

		case c == '}':
			flush()
			toks = append(toks, token{kind: tokRBrace, text: "}"})
			i++

		default:
			word.WriteByte(c)
			i++
		}
	}
	flush()
	return toks, nil
}

// quoteEnd returns the index just past the quote closing the one at start,
// or -1.
func quoteEnd(s string, start int) int {
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return -1
}
