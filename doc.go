// Package peg is a recursive-descent PEG engine that parses a character stream directly
// into typed Go values.
//
// A grammar is built from a small algebra of expressions:
//
//   - `Char`, `Escaped`, `Lit`, `LitI`, `Range`, `Set`, `Pred` match input symbols.
//   - `Seq` matches every expression in order.
//   - `Alt` matches the first expression that matches (ordered choice).
//   - `Repeat(min, max, e)` matches e greedily between min and max times.
//   - `Optional` matches zero or one time.
//   - `First` matches exactly once, capturing one list element.
//   - `Drop` matches without capturing.
//   - `IndexedSeq` and `IndexedAlt` route each expression into an explicit field.
//
// Named and mutually recursive rules live in a Grammar and are referenced through *Ref.
//
// Every symbol a match keeps is written to an Output and captured as a Span, a half-open
// range of that Output. Captures go into the destination passed to the drivers: a Span,
// a struct whose exported fields receive the kept expressions of a sequence in order, a
// slice receiving the elements of a repetition, or a pointer allocated on success.
// ResultType derives the destination type of any expression.
//
// Here is a grammar for "local@domain" addresses:
//
//	g := peg.NewGrammar()
//	atom := peg.Repeat(1, peg.Unbounded, peg.Pred("atext", isAtext))
//	addr := g.Define("addr-spec", peg.Seq(atom, peg.Drop(peg.Char('@')), atom))
//
//	var dest struct{ Local, Domain peg.Span }
//	out, err := peg.ParseString(addr, "local@domain", &dest)
//	// out.Text(dest.Local) == "local", out.Text(dest.Domain) == "domain"
//
// Choices never backtrack into a branch that succeeded, and every failed match restores
// the input cursor, the output cursor and the destination exactly.
package peg
