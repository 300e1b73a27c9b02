package where

import (
	"github.com/roach88/crush/internal/errs"
	"github.com/roach88/crush/internal/value"
)

// Evaluate applies cond to row.
//
// Errors are per row: a comparison of incomparable cells or an invalid
// match. Callers decide whether to skip the row or stop.
func Evaluate(cond Condition, row value.Row) (bool, error) {
	switch c := cond.(type) {
	case Binary:
		return evalBinary(c, row)

	case And:
		for _, term := range c.Terms {
			ok, err := Evaluate(term, row)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil

	case Or:
		for _, term := range c.Terms {
			ok, err := Evaluate(term, row)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil

	case Not:
		ok, err := Evaluate(c.Term, row)
		if err != nil {
			return false, err
		}
		return !ok, nil

	default:
		return false, errs.Generic("unknown condition %T", cond)
	}
}

func evalBinary(b Binary, row value.Row) (bool, error) {
	left, err := resolve(b.Left, row)
	if err != nil {
		return false, err
	}
	right, err := resolve(b.Right, row)
	if err != nil {
		return false, err
	}

	switch b.Op {
	case OpEqual:
		return value.Equal(left, right), nil
	case OpNotEqual:
		return !value.Equal(left, right), nil

	case OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual:
		c, ok := value.Compare(left, right)
		if !ok {
			return false, errs.Comparison("cell types can't be compared")
		}
		switch b.Op {
		case OpGreaterThan:
			return c > 0, nil
		case OpGreaterThanOrEqual:
			return c >= 0, nil
		case OpLessThan:
			return c < 0, nil
		default:
			return c <= 0, nil
		}

	case OpMatch:
		return value.Matches(left, right)
	case OpNotMatch:
		ok, err := value.Matches(left, right)
		if err != nil {
			return false, err
		}
		return !ok, nil

	default:
		return false, errs.Generic("unknown operator %s", b.Op)
	}
}

// resolve dereferences an operand against row.
func resolve(o Operand, row value.Row) (value.Value, error) {
	switch op := o.(type) {
	case Literal:
		return op.Value, nil
	case Field:
		if op.Index < 0 || op.Index >= len(row.Cells) {
			return nil, errs.Type("column %s out of range for row with %d cells", op.Name, len(row.Cells))
		}
		return row.Cells[op.Index], nil
	default:
		return nil, errs.Generic("unknown operand %T", o)
	}
}
