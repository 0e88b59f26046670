package peg

import (
	"errors"
	"fmt"
	"reflect"
)

// A Grammar is an arena of named rules.
//
// Rules are referenced through *Ref values that resolve their body by index when they are
// matched, so a rule may be referenced before it is defined and rules may be mutually
// recursive. A Grammar is built by a single goroutine; once parsing starts it is
// read-only and may be shared freely.
type Grammar struct {
	defs    []*ruleDef
	index   map[string]int
	defined []int
	errs    []error
}

type ruleDef struct {
	name string
	body Expr
	typ  reflect.Type
}

// NewGrammar creates an empty Grammar.
func NewGrammar() *Grammar {
	return &Grammar{index: map[string]int{}}
}

// Rule returns the rule called name, declaring it if necessary.
func (g *Grammar) Rule(name string) *Ref {
	if i, ok := g.index[name]; ok {
		return &Ref{g: g, index: i}
	}
	g.defs = append(g.defs, &ruleDef{name: name})
	g.index[name] = len(g.defs) - 1
	return &Ref{g: g, index: len(g.defs) - 1}
}

// Define the body of the rule called name.
//
// Defining a rule twice is recorded as an error reported by Check; the first definition
// is kept.
func (g *Grammar) Define(name string, body Expr) *Ref {
	ref := g.Rule(name)
	def := ref.def()
	if def.body != nil {
		g.errs = append(g.errs, fmt.Errorf("rule %q redefined", name))
		return ref
	}
	def.body = body
	g.defined = append(g.defined, ref.index)
	return ref
}

// Lookup a rule by name.
func (g *Grammar) Lookup(name string) (*Ref, bool) {
	i, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return &Ref{g: g, index: i}, true
}

// Rules of the grammar in definition order, followed by the rules referenced but not
// yet defined.
func (g *Grammar) Rules() []*Ref {
	out := make([]*Ref, 0, len(g.defs))
	for _, i := range g.defined {
		out = append(out, &Ref{g: g, index: i})
	}
	for i, def := range g.defs {
		if def.body == nil {
			out = append(out, &Ref{g: g, index: i})
		}
	}
	return out
}

// Check returns the construction errors of the grammar: redefined rules and rules that
// were referenced but never defined.
func (g *Grammar) Check() error {
	errs := append([]error{}, g.errs...)
	for _, def := range g.defs {
		if def.body == nil {
			errs = append(errs, fmt.Errorf("rule %q is not defined", def.name))
		}
	}
	return errors.Join(errs...)
}

// A Ref is a reference to a named rule of a Grammar.
type Ref struct {
	g     *Grammar
	index int
}

var _ Expr = &Ref{}

func (r *Ref) def() *ruleDef { return r.g.defs[r.index] }

// Name of the rule.
func (r *Ref) Name() string { return r.def().name }

// Grammar the rule belongs to.
func (r *Ref) Grammar() *Grammar { return r.g }

// Body of the rule, nil if not yet defined.
func (r *Ref) Body() Expr { return r.def().body }

// Returns declares the result type of the rule as the type of zero.
//
// Recursive rules need an explicit result type; for other rules it overrides the derived
// type, which lets a rule capture into a hand-designed struct.
func (r *Ref) Returns(zero any) *Ref {
	if zero == nil {
		panic("peg: Returns called with nil")
	}
	r.def().typ = reflect.TypeOf(zero)
	return r
}

func (r *Ref) match(s *State, dest reflect.Value) bool {
	def := r.def()
	if def.body == nil {
		panic(fmt.Sprintf("peg: rule %q is not defined", def.name))
	}
	if s.trace == nil {
		return s.match(dest, def.body)
	}
	start := s.out.Pos()
	s.traceEnter(def.name)
	ok := s.match(dest, def.body)
	s.traceExit(def.name, start, ok)
	return ok
}
