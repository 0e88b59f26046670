package abnf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ptaahfr/peg"
)

// Rules is a resolved ABNF rule list.
type Rules struct {
	Rules []*Rule
	index map[string]*Rule
}

// Lookup a rule by name, ignoring case.
func (r *Rules) Lookup(name string) (*Rule, bool) {
	rule, ok := r.index[strings.ToLower(name)]
	return rule, ok
}

// String renders the rules as ABNF, one rule per line.
func (r *Rules) String() string {
	w := &strings.Builder{}
	for _, rule := range r.Rules {
		fmt.Fprintln(w, rule)
	}
	return w.String()
}

// A Rule with every "=/" increment merged into its alternation.
type Rule struct {
	Name        string
	Alternation *Alternation
}

func (r *Rule) String() string { return r.Name + " = " + r.Alternation.String() }

// Alternation of concatenations.
type Alternation struct {
	Concatenations []*Concatenation
}

func (a *Alternation) String() string {
	out := make([]string, len(a.Concatenations))
	for i, c := range a.Concatenations {
		out[i] = c.String()
	}
	return strings.Join(out, " / ")
}

// Concatenation of repetitions.
type Concatenation struct {
	Repetitions []*Repetition
}

func (c *Concatenation) String() string {
	out := make([]string, len(c.Repetitions))
	for i, r := range c.Repetitions {
		out[i] = r.String()
	}
	return strings.Join(out, " ")
}

// Repetition of an element between Min and Max times. Max is peg.Unbounded when there is
// no upper bound.
type Repetition struct {
	Min     int
	Max     int
	Element Element
}

func (r *Repetition) String() string {
	prefix := ""
	switch {
	case r.Min == 1 && r.Max == 1:
	case r.Min == r.Max:
		prefix = strconv.Itoa(r.Min)
	default:
		if r.Min != 0 {
			prefix = strconv.Itoa(r.Min)
		}
		prefix += "*"
		if r.Max != peg.Unbounded {
			prefix += strconv.Itoa(r.Max)
		}
	}
	return prefix + r.Element.String()
}

// An Element is one of *RuleRef, *Group, *Option, *CharVal, *NumVal, *NumRange or
// *ProseVal.
type Element interface {
	fmt.Stringer
	element()
}

// RuleRef references a rule of the same list or, when Core is set, a core rule of
// RFC 5234. Name is the spelling of the rule definition.
type RuleRef struct {
	Name string
	Core bool
}

// Group is a parenthesized alternation.
type Group struct {
	Alternation *Alternation
}

// Option is a bracketed, optional alternation.
type Option struct {
	Alternation *Alternation
}

// CharVal is a quoted string, matched ignoring case.
type CharVal struct {
	Text string
}

// NumVal is a sequence of symbols given by value.
type NumVal struct {
	Runes []rune
}

// NumRange is a range of symbols given by value.
type NumRange struct {
	Lo rune
	Hi rune
}

// ProseVal is a prose description. It cannot be compiled.
type ProseVal struct {
	Text string
}

func (*RuleRef) element()  {}
func (*Group) element()    {}
func (*Option) element()   {}
func (*CharVal) element()  {}
func (*NumVal) element()   {}
func (*NumRange) element() {}
func (*ProseVal) element() {}

func (r *RuleRef) String() string { return r.Name }
func (g *Group) String() string   { return "(" + g.Alternation.String() + ")" }
func (o *Option) String() string  { return "[" + o.Alternation.String() + "]" }
func (c *CharVal) String() string { return `"` + c.Text + `"` }
func (p *ProseVal) String() string {
	return "<" + p.Text + ">"
}

func (n *NumVal) String() string {
	out := make([]string, len(n.Runes))
	for i, r := range n.Runes {
		out[i] = fmt.Sprintf("%02X", r)
	}
	return "%x" + strings.Join(out, ".")
}

func (n *NumRange) String() string { return fmt.Sprintf("%%x%02X-%02X", n.Lo, n.Hi) }
