package where

import (
	"fmt"
	"strings"

	"github.com/roach88/crush/internal/value"
)

// Condition is a compiled predicate over a row.
//
// This is a sealed interface; only types in this package implement it.
type Condition interface {
	conditionNode()
	String() string
}

// Operand is one side of a binary predicate.
//
// This is a sealed interface. Operand types:
//   - Literal: a constant value
//   - Field: a column of the current row, by index
type Operand interface {
	operandNode()
	String() string
}

// Literal is a constant operand.
type Literal struct {
	Value value.Value
}

func (Literal) operandNode() {}

// String renders the literal in display form.
func (l Literal) String() string {
	if t, ok := l.Value.(value.Text); ok {
		return fmt.Sprintf("%q", string(t))
	}
	return value.Format(l.Value)
}

// Field references a row cell. Index is resolved at parse time; Name is kept
// for display.
type Field struct {
	Index int
	Name  string
}

func (Field) operandNode() {}

// String returns the column name.
func (f Field) String() string {
	return f.Name
}

// Op is a binary predicate operator.
type Op int

const (
	OpEqual Op = iota + 1
	OpNotEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpLessThan
	OpLessThanOrEqual
	OpMatch
	OpNotMatch
)

var opSymbols = map[Op]string{
	OpEqual:              "==",
	OpNotEqual:           "!=",
	OpGreaterThan:        ">",
	OpGreaterThanOrEqual: ">=",
	OpLessThan:           "<",
	OpLessThanOrEqual:    "<=",
	OpMatch:              "=~",
	OpNotMatch:           "!~",
}

// String returns the operator symbol.
func (o Op) String() string {
	if s, ok := opSymbols[o]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// lookupOp maps a symbol to its operator.
func lookupOp(symbol string) (Op, bool) {
	for op, s := range opSymbols {
		if s == symbol {
			return op, true
		}
	}
	return 0, false
}

// Binary compares two operands.
//
// Semantics by operator class:
//   - OpEqual, OpNotEqual: variant-sensitive structural equality. Mismatched
//     variants are unequal, never an error.
//   - ordering: partial comparison; an incomparable pair is a comparison
//     error for that row.
//   - OpMatch, OpNotMatch: Left is the needle (Text or File), Right is the
//     pattern (Glob or Regex).
type Binary struct {
	Op    Op
	Left  Operand
	Right Operand
}

func (Binary) conditionNode() {}

// String renders "left op right".
func (b Binary) String() string {
	return fmt.Sprintf("%s %s %s", b.Left, b.Op, b.Right)
}

// And is true when every term is true. Evaluation stops at the first false
// term.
type And struct {
	Terms []Condition
}

func (And) conditionNode() {}

// String renders the conjunction.
func (a And) String() string {
	return join(a.Terms, " and ")
}

// Or is true when any term is true. Evaluation stops at the first true term.
type Or struct {
	Terms []Condition
}

func (Or) conditionNode() {}

// String renders the disjunction.
func (o Or) String() string {
	return join(o.Terms, " or ")
}

// Not negates its term.
type Not struct {
	Term Condition
}

func (Not) conditionNode() {}

// String renders the negation.
func (n Not) String() string {
	return "not " + group(n.Term)
}

func join(terms []Condition, sep string) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = group(t)
	}
	return strings.Join(parts, sep)
}

// group parenthesizes compound terms.
func group(c Condition) string {
	switch c.(type) {
	case And, Or:
		return "(" + c.String() + ")"
	default:
		return c.String()
	}
}
