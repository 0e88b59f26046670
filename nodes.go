package peg

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
)

// Unbounded is the max count of a Repeat without upper bound.
const Unbounded = -1

// A single symbol, optionally consumed without being emitted.
type char struct {
	ch     rune
	escape bool
}

// Char matches the symbol ch.
func Char(ch rune) Expr { return &char{ch: ch} }

// Escaped matches the symbol ch but never writes it to the Output, so it does not appear
// in captured text.
func Escaped(ch rune) Expr { return &char{ch: ch, escape: true} }

func (c *char) match(s *State, dest reflect.Value) bool {
	if s.halted() || !s.in.GetIf(c.ch) {
		return false
	}
	start := s.out.Pos()
	s.out.Emit(c.ch, c.escape)
	setSpan(dest, Span{start, s.out.Pos()})
	return true
}

type runeRange struct {
	lo, hi rune
}

// A character predicate.
type class struct {
	name   string
	ranges []runeRange
	fn     func(rune) bool
}

// Range matches one symbol in [lo, hi].
func Range(lo, hi rune) Expr {
	if hi < lo {
		panic(fmt.Sprintf("peg: decreasing range %q-%q", lo, hi))
	}
	return &class{
		ranges: []runeRange{{lo, hi}},
		fn:     func(r rune) bool { return r >= lo && r <= hi },
	}
}

// Set matches one of the symbols of chars.
func Set(chars string) Expr {
	c := &class{fn: func(r rune) bool { return strings.ContainsRune(chars, r) }}
	for _, r := range chars {
		c.ranges = append(c.ranges, runeRange{r, r})
	}
	return c
}

// Pred matches one symbol satisfying fn. The name is used when rendering the grammar.
//
// fn is never called with EOF.
func Pred(name string, fn func(rune) bool) Expr {
	return &class{name: name, fn: fn}
}

func (c *class) match(s *State, dest reflect.Value) bool {
	if s.halted() {
		return false
	}
	ch := s.in.Next()
	if ch == EOF || !c.fn(ch) {
		s.in.Back()
		return false
	}
	start := s.out.Pos()
	s.out.Emit(ch, false)
	setSpan(dest, Span{start, s.out.Pos()})
	return true
}

// A literal string.
type literal struct {
	runes []rune
	fold  bool
}

// Lit matches the string s exactly.
func Lit(s string) Expr { return &literal{runes: []rune(s)} }

// LitI matches the string s ignoring case, as ABNF quoted strings do. The input symbols,
// not the literal's, are written to the Output.
func LitI(s string) Expr { return &literal{runes: []rune(s), fold: true} }

func (l *literal) match(s *State, dest reflect.Value) bool {
	if s.halted() {
		return false
	}
	in, out := s.in.Pos(), s.out.Pos()
	for _, want := range l.runes {
		ch := s.in.Next()
		if ch != want && !(l.fold && ch != EOF && unicode.ToLower(ch) == unicode.ToLower(want)) {
			s.in.SetPos(in)
			s.out.SetPos(out)
			return false
		}
		s.out.Emit(ch, false)
	}
	setSpan(dest, Span{out, s.out.Pos()})
	return true
}

// <expr> ... or <expr> | ...
type sequence struct {
	choice    bool
	indexed   bool
	exprs     []Expr
	routes    []Route
	writeSpan bool
}

// Seq matches every expression in order.
//
// Expressions wrapped in Drop are matched for effect only. If exactly one expression is
// kept it is routed into the sequence's own slot, otherwise kept expressions fill the
// fields of a struct destination in order.
func Seq(exprs ...Expr) Expr {
	q := &sequence{}
	var kept []int
	for i, e := range exprs {
		if d, ok := e.(*dropped); ok {
			q.exprs = append(q.exprs, d.expr)
			q.routes = append(q.routes, Discard)
			continue
		}
		q.exprs = append(q.exprs, e)
		q.routes = append(q.routes, None)
		kept = append(kept, i)
	}
	for field, i := range kept {
		if len(kept) == 1 {
			q.routes[i] = Self
		} else {
			q.routes[i] = Field(field)
		}
	}
	return q.done()
}

// Alt matches the first expression that matches, in order. Every branch writes into the
// alternative's own slot.
func Alt(exprs ...Expr) Expr {
	q := &sequence{choice: true}
	for _, e := range exprs {
		if d, ok := e.(*dropped); ok {
			q.exprs = append(q.exprs, d.expr)
			q.routes = append(q.routes, Discard)
			continue
		}
		q.exprs = append(q.exprs, e)
		q.routes = append(q.routes, Self)
	}
	return q.done()
}

// IndexedSeq is Seq with an explicit route per expression.
//
// This lets a rule composed of sub-rules fill the fields of a flat, hand-designed
// result struct.
func IndexedSeq(routes []Route, exprs ...Expr) Expr {
	return indexed(false, routes, exprs)
}

// IndexedAlt is Alt with an explicit route per branch.
func IndexedAlt(routes []Route, exprs ...Expr) Expr {
	return indexed(true, routes, exprs)
}

func indexed(choice bool, routes []Route, exprs []Expr) Expr {
	if len(routes) != len(exprs) {
		panic(fmt.Sprintf("peg: %d routes for %d expressions", len(routes), len(exprs)))
	}
	q := &sequence{choice: choice, indexed: true}
	for i, e := range exprs {
		route := routes[i]
		if d, ok := e.(*dropped); ok {
			e, route = d.expr, Discard
		}
		q.exprs = append(q.exprs, e)
		q.routes = append(q.routes, route)
	}
	return q.done()
}

// done decides whether a sequence writes its own span. A choice decides per branch when
// it commits.
func (q *sequence) done() *sequence {
	q.writeSpan = true
	for _, route := range q.routes {
		if route == Self {
			q.writeSpan = false
		}
	}
	return q
}

func (q *sequence) match(s *State, dest reflect.Value) bool {
	cp := s.save(dest)
	defer cp.rollback()
	if q.choice {
		for i, e := range q.exprs {
			if s.match(q.routes[i].resolve(dest), e) {
				return cp.commit(q.routes[i] != Self)
			}
		}
		return false
	}
	for i, e := range q.exprs {
		if !s.match(q.routes[i].resolve(dest), e) {
			return false
		}
	}
	return cp.commit(q.writeSpan)
}

// min*max<expr>
type repeat struct {
	min  int
	max  int
	expr Expr
}

// Repeat matches e greedily between min and max times (max may be Unbounded).
//
// With a slice destination every match is appended as a new element; otherwise the
// elements are discarded and a Span destination receives the whole matched span. An
// unbounded repeat stops at the first iteration that consumes no input.
func Repeat(min, max int, e Expr) Expr {
	if min < 0 || (max != Unbounded && max < min) {
		panic(fmt.Sprintf("peg: invalid repeat bounds %d..%d", min, max))
	}
	return &repeat{min: min, max: max, expr: e}
}

func (r *repeat) match(s *State, dest reflect.Value) bool {
	cp := s.save(dest)
	// Rolling back also truncates the list to its length on entry.
	defer cp.rollback()
	list := dest.IsValid() && dest.Kind() == reflect.Slice
	count := 0
	for r.max == Unbounded || count < r.max {
		elem := elemOf(dest)
		before := s.in.Pos()
		if !s.match(elem, r.expr) {
			break
		}
		if list {
			dest.Set(reflect.Append(dest, elem))
		}
		count++
		if r.max == Unbounded && s.in.Pos() == before {
			break
		}
	}
	if count < r.min {
		return false
	}
	return cp.commit(true)
}

// [ <expr> ]
type optional struct {
	expr Expr
}

// Optional matches e zero or one time and always succeeds.
//
// Unlike Repeat(0, 1, e) the destination is passed straight to e, so the result is e's
// own value, left empty when e did not match.
func Optional(e Expr) Expr { return &optional{expr: e} }

func (o *optional) match(s *State, dest reflect.Value) bool {
	s.match(dest, o.expr)
	return true
}

// Exactly one <expr>, captured as an element.
type first struct {
	expr Expr
	once sync.Once
	typ  reflect.Type
}

// First matches e exactly once.
//
// With a slice destination of e's element type the match is appended as one element, so
// First(x) followed by Repeat(...) can fill a single list field. A destination of e's own
// type, including a slice when e yields a list, is passed straight to e.
func First(e Expr) Expr { return &first{expr: e} }

// resultType of the sub-expression, nil when it cannot be derived.
func (f *first) resultType() reflect.Type {
	f.once.Do(func() {
		f.typ, _ = ResultType(f.expr)
	})
	return f.typ
}

func (f *first) match(s *State, dest reflect.Value) bool {
	cp := s.save(dest)
	defer cp.rollback()
	if dest.IsValid() && dest.Kind() == reflect.Slice && f.resultType() != dest.Type() {
		elem := elemOf(dest)
		if !s.match(elem, f.expr) {
			return false
		}
		dest.Set(reflect.Append(dest, elem))
		return cp.commit(true)
	}
	if !s.match(dest, f.expr) {
		return false
	}
	return cp.commit(false)
}

// An expression matched for effect only.
type dropped struct {
	expr Expr
}

// Drop matches e without capturing its result.
func Drop(e Expr) Expr {
	if d, ok := e.(*dropped); ok {
		return d
	}
	return &dropped{expr: e}
}

func (d *dropped) match(s *State, dest reflect.Value) bool {
	return s.match(reflect.Value{}, d.expr)
}
