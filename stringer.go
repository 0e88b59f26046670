package peg

import (
	"bytes"
	"fmt"
	"strings"
)

type stringerVisitor struct {
	bytes.Buffer
	names func(*Ref) string
}

func stringer(e Expr, names func(*Ref) string) string {
	if names == nil {
		names = func(r *Ref) string { return ebnfName(r.Name()) }
	}
	v := &stringerVisitor{names: names}
	v.visit(e, false)
	return v.String()
}

// visit renders e; inSeq is set when e is an operand of a sequence, where a choice needs
// parentheses.
func (s *stringerVisitor) visit(e Expr, inSeq bool) {
	switch e := e.(type) {
	case *Ref:
		fmt.Fprint(s, s.names(e))

	case *sequence:
		if len(e.exprs) == 0 {
			fmt.Fprint(s, `""`)
			return
		}
		if len(e.exprs) == 1 {
			s.visit(e.exprs[0], inSeq)
			return
		}
		if e.choice {
			s.choice(inSeq, len(e.exprs), func(i int) { s.visit(e.exprs[i], false) })
			return
		}
		for i, c := range e.exprs {
			if i > 0 {
				fmt.Fprint(s, " ")
			}
			s.visit(c, true)
		}

	case *repeat:
		if e.max == 0 {
			fmt.Fprint(s, `""`)
			return
		}
		parts := []string{}
		for i := 0; i < e.min; i++ {
			parts = append(parts, stringerOf(e.expr, s.names, true))
		}
		inner := stringerOf(e.expr, s.names, false)
		switch {
		case e.max == Unbounded:
			parts = append(parts, "{ "+inner+" }")
		case e.max > e.min:
			tail := ""
			for i := e.min; i < e.max; i++ {
				if tail == "" {
					tail = "[ " + inner + " ]"
				} else {
					tail = "[ " + inner + " " + tail + " ]"
				}
			}
			parts = append(parts, tail)
		}
		if len(parts) == 1 && e.min == 1 {
			s.visit(e.expr, inSeq)
			return
		}
		fmt.Fprint(s, strings.Join(parts, " "))

	case *optional:
		fmt.Fprint(s, "[ ")
		s.visit(e.expr, false)
		fmt.Fprint(s, " ]")

	case *first:
		s.visit(e.expr, inSeq)

	case *dropped:
		s.visit(e.expr, inSeq)

	case *char:
		fmt.Fprintf(s, "%q", string(e.ch))

	case *literal:
		fmt.Fprintf(s, "%q", string(e.runes))

	case *class:
		if e.name != "" {
			fmt.Fprintf(s, "%q", "<"+e.name+">")
			return
		}
		if len(e.ranges) == 0 {
			fmt.Fprint(s, `""`)
			return
		}
		s.choice(inSeq, len(e.ranges), func(i int) {
			r := e.ranges[i]
			if r.lo == r.hi {
				fmt.Fprintf(s, "%q", string(r.lo))
			} else {
				fmt.Fprintf(s, "%q … %q", string(r.lo), string(r.hi))
			}
		})

	default:
		panic("unsupported")
	}
}

func (s *stringerVisitor) choice(inSeq bool, n int, branch func(i int)) {
	group := inSeq && n > 1
	if group {
		fmt.Fprint(s, "(")
	}
	for i := 0; i < n; i++ {
		if i > 0 {
			fmt.Fprint(s, " | ")
		}
		branch(i)
	}
	if group {
		fmt.Fprint(s, ")")
	}
}

func stringerOf(e Expr, names func(*Ref) string, inSeq bool) string {
	v := &stringerVisitor{names: names}
	v.visit(e, inSeq)
	return v.String()
}

func (r *Ref) String() string      { return ebnfName(r.Name()) }
func (c *char) String() string     { return stringer(c, nil) }
func (c *class) String() string    { return stringer(c, nil) }
func (l *literal) String() string  { return stringer(l, nil) }
func (q *sequence) String() string { return stringer(q, nil) }
func (r *repeat) String() string   { return stringer(r, nil) }
func (o *optional) String() string { return stringer(o, nil) }
func (f *first) String() string    { return stringer(f, nil) }
func (d *dropped) String() string  { return stringer(d, nil) }
