package where

import (
	"regexp"

	"github.com/roach88/crush/internal/errs"
	"github.com/roach88/crush/internal/value"
)

// identifier matches words that are treated as column references.
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Parse compiles argument tokens into a Condition against schema.
//
// Bare identifiers must name a column of schema; anything else is a literal.
// Returns an argument error on the first problem. No partial condition is
// ever returned.
func Parse(schema value.Schema, tokens []string) (Condition, error) {
	return ParseWithVars(schema, tokens, nil)
}

// ParseWithVars is Parse with $name operands resolved from vars.
func ParseWithVars(schema value.Schema, tokens []string, vars map[string]value.Value) (Condition, error) {
	toks, err := lex(tokens)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, errs.Argument("missing condition")
	}

	p := &parser{schema: schema, vars: vars, toks: toks}
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, errs.Argument("unexpected %q after condition", p.peek().text)
	}
	return cond, nil
}

// parser is a recursive-descent parser over lexed tokens.
type parser struct {
	schema value.Schema
	vars   map[string]value.Value
	toks   []token
	pos    int
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

// keyword reports whether the next token is the bare word kw, consuming it
// if so.
func (p *parser) keyword(kw string) bool {
	t := p.peek()
	if t.kind == tokWord && t.text == kw {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseOr() (Condition, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	terms := []Condition{first}
	for p.keyword("or") {
		term, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return Or{Terms: terms}, nil
}

func (p *parser) parseAnd() (Condition, error) {
	first, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	terms := []Condition{first}
	for p.keyword("and") {
		term, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return And{Terms: terms}, nil
}

func (p *parser) parseUnary() (Condition, error) {
	if p.keyword("not") {
		term, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Not{Term: term}, nil
	}

	if p.peek().kind == tokLParen {
		p.next()
		cond, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRParen {
			return nil, errs.Argument("missing closing parenthesis")
		}
		return cond, nil
	}

	return p.parseComparison()
}

func (p *parser) parseComparison() (Condition, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	t := p.next()
	if t.kind != tokOp {
		if t.kind == 0 {
			return nil, errs.Argument("expected operator after %s", left)
		}
		return nil, errs.Argument("expected operator after %s, got %q", left, t.text)
	}
	op, _ := lookupOp(t.text)

	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	return Binary{Op: op, Left: left, Right: right}, nil
}

func (p *parser) parseOperand() (Operand, error) {
	t := p.next()
	if t.kind != tokWord {
		if t.kind == 0 {
			return nil, errs.Argument("unexpected end of condition")
		}
		return nil, errs.Argument("expected operand, got %q", t.text)
	}

	word := t.text
	switch {
	case len(word) > 1 && word[0] == '$':
		v, ok := p.vars[word[1:]]
		if !ok {
			return nil, errs.Argument("unknown variable %s", word)
		}
		return Literal{Value: v}, nil

	case word != "true" && word != "false" && identifier.MatchString(word):
		idx, ok := p.schema.Index(word)
		if !ok {
			return nil, errs.Argument("unknown column %q", word)
		}
		return Field{Index: idx, Name: word}, nil
	}

	v, err := value.Infer(word)
	if err != nil {
		return nil, errs.Wrap(errs.CodeArgument, "invalid literal "+word, err)
	}
	return Literal{Value: v}, nil
}
