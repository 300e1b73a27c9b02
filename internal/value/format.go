package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Format renders a cell for display.
func Format(v Value) string {
	switch val := v.(type) {
	case Text:
		return string(val)
	case Integer:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(val))
	case File:
		return string(val)
	case Duration:
		return time.Duration(val).String()
	case Command:
		return string(val)
	case Glob:
		return val.Source
	case Regex:
		return val.Source
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// MarshalRowJSON renders a row as a JSON object keyed by column name, in
// schema order.
//
// Differences from json.Marshal on a map:
//  1. Keys keep schema order (a map would sort them)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Integers, floats and bools are JSON scalars; every other variant is
//     rendered as its Format string
func MarshalRowJSON(schema Schema, row Row) ([]byte, error) {
	if err := schema.Check(row); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range schema {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalString(col.Name)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", col.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := marshalCell(row.Cells[i])
		if err != nil {
			return nil, fmt.Errorf("marshal column %q: %w", col.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalCell(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Integer:
		return []byte(strconv.FormatInt(int64(val), 10)), nil
	case Float:
		return json.Marshal(float64(val))
	case Bool:
		return []byte(strconv.FormatBool(bool(val))), nil
	default:
		return marshalString(Format(v))
	}
}

// marshalString produces a JSON string with NFC normalization and without
// HTML escaping.
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	// Encoder appends a newline
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
