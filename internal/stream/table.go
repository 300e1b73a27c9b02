package stream

import (
	"errors"

	"github.com/roach88/crush/internal/value"
)

// Readable is anything rows can be pulled from: a live InputStream or a
// materialized Table.
type Readable interface {
	Schema() value.Schema
	Recv() (value.Row, error)
}

// Table is a materialized stream.
type Table struct {
	schema value.Schema
	rows   []value.Row
	pos    int
}

// NewTable creates a table from rows that already conform to schema.
func NewTable(schema value.Schema, rows []value.Row) *Table {
	return &Table{schema: schema, rows: rows}
}

// Collect drains r into a Table. Stops at ErrEndOfStream; any other error is
// returned along with the rows read so far.
func Collect(r Readable) (*Table, error) {
	t := &Table{schema: r.Schema()}
	for {
		row, err := r.Recv()
		if errors.Is(err, ErrEndOfStream) {
			return t, nil
		}
		if err != nil {
			return t, err
		}
		t.rows = append(t.rows, row)
	}
}

// Schema returns the table schema.
func (t *Table) Schema() value.Schema {
	return t.schema
}

// Rows returns all rows regardless of the read cursor.
func (t *Table) Rows() []value.Row {
	return t.rows
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Recv returns rows in order, then ErrEndOfStream.
func (t *Table) Recv() (value.Row, error) {
	if t.pos >= len(t.rows) {
		return value.Row{}, ErrEndOfStream
	}
	row := t.rows[t.pos]
	t.pos++
	return row, nil
}

// SendAll sends every row of r to out, stopping quietly if the consumer goes
// away. Returns the first non-cancellation error.
func SendAll(r Readable, out *OutputStream) error {
	for {
		row, err := r.Recv()
		if errors.Is(err, ErrEndOfStream) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := out.Send(row); err != nil {
			if errors.Is(err, ErrClosed) {
				return nil
			}
			return err
		}
	}
}
