package peg

import "reflect"

// An Expr is an immutable grammar expression.
//
// Expressions are built once and may be shared by any number of concurrent parse
// attempts, each with its own State.
type Expr interface {
	// match e against the attempt's input, capturing into dest.
	//
	// On failure the stream cursor, the output cursor and dest must be left exactly
	// as they were on entry.
	match(s *State, dest reflect.Value) bool
	// String renders the expression in EBNF syntax.
	String() string
}
