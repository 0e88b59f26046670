package abnf

import (
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/ptaahfr/peg"
	"github.com/ptaahfr/peg/rfc5234"
)

var spanType = reflect.TypeOf(peg.Span{})

// Compile rules into an executable grammar.
//
// Every rule is defined under its ABNF name. A rule referencing core rules only returns
// a peg.Span, any other rule a struct type built at run time with one field per rule it
// references (see Generate for the layout). Run-time struct types cannot refer to
// themselves, so a reference closing a cycle of such rules is captured as the peg.Span
// of its match.
func Compile(rules *Rules) (*peg.Grammar, error) {
	p, err := newPlan(rules)
	if err != nil {
		return nil, err
	}
	c := &compiler{
		plan:     p,
		g:        peg.NewGrammar(),
		types:    map[*shape]reflect.Type{},
		building: map[*shape]bool{},
		degraded: map[*field]bool{},
	}
	for _, pr := range p.rules {
		c.g.Rule(pr.rule.Name)
		if !pr.terminal {
			c.typeOf(pr.shape)
		}
	}
	for _, pr := range p.rules {
		ref := c.g.Define(pr.rule.Name, c.expr(pr.body))
		if pr.terminal {
			ref.Returns(peg.Span{})
		} else {
			ref.Returns(reflect.New(c.types[pr.shape]).Elem().Interface())
		}
	}
	return c.g, c.g.Check()
}

type compiler struct {
	plan     *plan
	g        *peg.Grammar
	types    map[*shape]reflect.Type
	building map[*shape]bool
	// Fields captured as a span because their type is still being built.
	degraded map[*field]bool
}

// typeOf builds the struct type of sh, nil if it is already being built.
func (c *compiler) typeOf(sh *shape) reflect.Type {
	if t, ok := c.types[sh]; ok {
		return t
	}
	if c.building[sh] {
		return nil
	}
	c.building[sh] = true
	defer delete(c.building, sh)
	fields := make([]reflect.StructField, len(sh.fields))
	for i, f := range sh.fields {
		var t reflect.Type
		switch {
		case f.part != nil:
			t = c.typeOf(f.part)
		case c.plan.terminal(f):
			t = spanType
		default:
			t = c.typeOf(c.plan.byName[f.rule].shape)
			if t == nil {
				c.degraded[f] = true
				t = spanType
			} else if !f.list {
				t = reflect.PointerTo(t)
			}
		}
		if f.list {
			t = reflect.SliceOf(t)
		}
		fields[i] = reflect.StructField{Name: f.name, Type: t}
	}
	t := reflect.StructOf(fields)
	c.types[sh] = t
	return t
}

func (c *compiler) expr(n node) peg.Expr {
	switch n := n.(type) {
	case *refNode:
		var e peg.Expr
		if n.core {
			e, _ = rfc5234.Lookup(n.rule)
		} else {
			e = c.g.Rule(n.rule)
		}
		if n.field != nil && c.degraded[n.field] {
			return peg.Seq(peg.Drop(e))
		}
		return e

	case *litNode:
		if strings.ToLower(n.text) != strings.ToUpper(n.text) {
			return peg.LitI(n.text)
		}
		if utf8.RuneCountInString(n.text) == 1 {
			r, _ := utf8.DecodeRuneInString(n.text)
			return peg.Char(r)
		}
		return peg.Lit(n.text)

	case *charsNode:
		if len(n.runes) == 1 {
			return peg.Char(n.runes[0])
		}
		return peg.Lit(string(n.runes))

	case *rangeNode:
		return peg.Range(n.lo, n.hi)

	case *seqNode:
		exprs := make([]peg.Expr, len(n.items))
		for i, item := range n.items {
			exprs[i] = c.expr(item)
		}
		if n.routes != nil && !plainRoutes(n.choice, n.routes) {
			if n.choice {
				return peg.IndexedAlt(n.routes, exprs...)
			}
			return peg.IndexedSeq(n.routes, exprs...)
		}
		for i, route := range n.routes {
			if route == peg.Discard {
				exprs[i] = peg.Drop(exprs[i])
			}
		}
		if n.choice {
			return peg.Alt(exprs...)
		}
		return peg.Seq(exprs...)

	case *repeatNode:
		return peg.Repeat(n.min, n.max, c.expr(n.item))

	case *optionalNode:
		return peg.Optional(c.expr(n.item))

	case *firstNode:
		return peg.First(c.expr(n.item))
	}
	panic("unsupported node")
}
