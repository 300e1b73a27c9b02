package value

import (
	"fmt"
	"strings"
)

// ValueType is the type tag of a Value variant.
type ValueType int

const (
	TypeText ValueType = iota + 1
	TypeInteger
	TypeFloat
	TypeBool
	TypeFile
	TypeGlob
	TypeRegex
	TypeDuration
	TypeCommand
)

var typeNames = map[ValueType]string{
	TypeText:     "text",
	TypeInteger:  "integer",
	TypeFloat:    "float",
	TypeBool:     "bool",
	TypeFile:     "file",
	TypeGlob:     "glob",
	TypeRegex:    "regex",
	TypeDuration: "duration",
	TypeCommand:  "command",
}

// String returns the lowercase type name used in schemas and arguments.
func (t ValueType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// ParseValueType resolves a type name ("text", "integer", ...).
func ParseValueType(name string) (ValueType, error) {
	lower := strings.ToLower(name)
	for t, n := range typeNames {
		if n == lower {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown type %q", name)
}

// ColumnType names and types one column of a stream.
type ColumnType struct {
	Name string
	Type ValueType
}

// Column is shorthand for building a ColumnType.
func Column(name string, t ValueType) ColumnType {
	return ColumnType{Name: name, Type: t}
}

// String returns "name=type".
func (c ColumnType) String() string {
	return c.Name + "=" + c.Type.String()
}

// Schema is the ordered column list committed once per stream.
type Schema []ColumnType

// Index returns the position of the first column with the given name.
func (s Schema) Index(name string) (int, bool) {
	for i, c := range s {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Equal reports whether both schemas have the same columns in the same order.
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the schema as "[a=text b=integer]".
func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Check verifies that row conforms to the schema positionally and by variant.
func (s Schema) Check(row Row) error {
	if len(row.Cells) != len(s) {
		return fmt.Errorf("row has %d cells, schema has %d columns", len(row.Cells), len(s))
	}
	for i, cell := range row.Cells {
		if cell == nil {
			return fmt.Errorf("column %q: missing cell", s[i].Name)
		}
		if cell.Type() != s[i].Type {
			return fmt.Errorf("column %q: expected %s, got %s", s[i].Name, s[i].Type, cell.Type())
		}
	}
	return nil
}

// Row is an ordered sequence of cells matching a stream's schema.
type Row struct {
	Cells []Value
}

// NewRow creates a row from cells.
func NewRow(cells ...Value) Row {
	return Row{Cells: cells}
}
