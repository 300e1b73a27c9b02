// Package where implements the row condition language used by the where
// command.
//
// ARCHITECTURE:
//
//	[argument tokens] → lex → parse(schema) → Condition → Evaluate(row)
//
// Column names are resolved to field indices once, at parse time, against the
// schema the pipeline declared for the where stage. A condition that parses
// never refers to a column that does not exist.
//
// GRAMMAR:
//
//	condition  := or
//	or         := and ("or" and)*
//	and        := unary ("and" unary)*
//	unary      := "not" unary | "(" condition ")" | comparison
//	comparison := operand op operand
//	op         := "==" | "!=" | ">" | ">=" | "<" | "<=" | "=~" | "!~"
//	operand    := column | $variable | literal
//
// A bare identifier is a column reference. Every other operand is a literal
// whose variant is inferred from its syntax (see value.Infer).
//
// ERROR ISOLATION:
//
// Evaluation errors are per row. Filter reports them through the command
// Reporter, drops the row and keeps going, so one badly typed row never
// aborts the stream.
//
// SEALED INTERFACES:
//
// Condition and Operand are sealed with marker methods. Evaluate switches
// over every node type exhaustively.
package where
