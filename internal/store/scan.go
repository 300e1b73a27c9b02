package store

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/roach88/crush/internal/errs"
	"github.com/roach88/crush/internal/value"
)

// RowFunc receives each converted row, or the conversion error of a row that
// could not be converted. Returning a non-nil error stops the scan.
type RowFunc func(row value.Row, rowErr error) error

// Scan runs query and converts every result row to schema.
//
// The result must have exactly len(schema) columns. Conversion happens
// positionally; column names in the result are ignored.
func (s *Store) Scan(ctx context.Context, schema value.Schema, query string, args []any, fn RowFunc) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if len(cols) != len(schema) {
		return errs.Argument("query returns %d columns, %d declared", len(cols), len(schema))
	}

	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("query: %w", err)
		}
		row, rowErr := convertRow(schema, raw)
		if err := fn(row, rowErr); err != nil {
			return err
		}
	}
	return rows.Err()
}

func convertRow(schema value.Schema, raw []any) (value.Row, error) {
	cells := make([]value.Value, len(schema))
	for i, col := range schema {
		v, err := convertCell(raw[i], col.Type)
		if err != nil {
			return value.Row{}, fmt.Errorf("column %q: %w", col.Name, err)
		}
		cells[i] = v
	}
	return value.Row{Cells: cells}, nil
}

// convertCell maps a driver value to a cell of type t.
func convertCell(raw any, t value.ValueType) (value.Value, error) {
	switch v := raw.(type) {
	case nil:
		return nil, errs.Type("NULL value")
	case []byte:
		return value.Parse(t, string(v))
	case string:
		return value.Parse(t, v)
	case time.Time:
		return value.Parse(t, v.UTC().Format(time.RFC3339Nano))
	case int64:
		switch t {
		case value.TypeInteger:
			return value.Integer(v), nil
		case value.TypeFloat:
			return value.Float(v), nil
		case value.TypeBool:
			return value.Bool(v != 0), nil
		case value.TypeDuration:
			return value.Duration(time.Duration(v)), nil
		}
		return value.Parse(t, strconv.FormatInt(v, 10))
	case float64:
		switch t {
		case value.TypeFloat:
			return value.Float(v), nil
		case value.TypeInteger:
			// 2^63 is exactly representable; MaxInt64 is not.
			if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
				return nil, errs.Type("%v is not an integer", v)
			}
			return value.Integer(int64(v)), nil
		}
		return value.Parse(t, strconv.FormatFloat(v, 'g', -1, 64))
	case bool:
		if t == value.TypeBool {
			return value.Bool(v), nil
		}
		return value.Parse(t, strconv.FormatBool(v))
	default:
		return nil, errs.Type("unsupported column value %T", raw)
	}
}
