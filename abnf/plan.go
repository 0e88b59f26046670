package abnf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ptaahfr/peg"
)

// The planner decides the result shape of every rule and lays out the expressions
// filling it. Compile and Generate both work from the same plan.
//
// A rule referencing no other rule of the list, only literals and core rules, captures a
// peg.Span. Any other rule captures a struct with one field per referenced rule, a list
// when the rule can match it more than once. Literals of such rules are not captured. A repeated group
// referencing more than one rule is hoisted into its own struct, one element per
// repetition.

// node is a planned expression.
type node interface{}

type (
	refNode struct {
		rule string
		core bool
		// The field the reference fills, nil when its value is not kept.
		field *field
	}
	litNode   struct{ text string }
	charsNode struct{ runes []rune }
	rangeNode struct{ lo, hi rune }
	// Routes are nil for plain sequences and alternatives.
	seqNode struct {
		choice bool
		items  []node
		routes []peg.Route
	}
	repeatNode struct {
		min, max int
		item     node
	}
	optionalNode struct{ item node }
	firstNode    struct{ item node }
)

// shape of a capture struct.
type shape struct {
	name   string
	doc    string
	owner  *plannedRule
	fields []*field
	refs   map[string]*field
	parts  map[*Alternation]*field
	names  map[string]bool
}

type field struct {
	name  string
	index int
	list  bool
	// Either the referenced rule or a hoisted group.
	rule string
	core bool
	part *shape
}

type plannedRule struct {
	rule     *Rule
	ident    string
	terminal bool
	shape    *shape
	body     node
	parts    int
}

type plan struct {
	rules  []*plannedRule
	byName map[string]*plannedRule
	shapes []*shape
	core   bool
	idents map[string]bool
}

func newPlan(rules *Rules) (*plan, error) {
	p := &plan{
		byName: map[string]*plannedRule{},
		idents: map[string]bool{"Grammar": true},
	}
	var errs []error
	for _, rule := range rules.Rules {
		if prose := findProse(rule.Alternation); prose != nil {
			errs = append(errs, fmt.Errorf("rule %q: prose value %s cannot be compiled", rule.Name, prose))
		}
		pr := &plannedRule{rule: rule, ident: p.unique(goName(rule.Name))}
		p.rules = append(p.rules, pr)
		p.byName[rule.Name] = pr
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	for _, pr := range p.rules {
		if pr.terminal = p.textOnly(pr.rule.Alternation); pr.terminal {
			continue
		}
		pr.shape = p.newShape(pr, pr.ident+"Data", "is the result of rule "+pr.rule.Name+".")
	}
	for _, pr := range p.rules {
		if pr.terminal {
			pr.body = p.plainAlt(pr.rule.Alternation)
			continue
		}
		counts := p.collectAlt(pr.shape, pr.rule.Alternation)
		markLists(pr.shape, counts)
		pr.body = wrap(p.emitAlt(pr.shape, pr.rule.Alternation))
	}
	return p, nil
}

func findProse(alt *Alternation) *ProseVal {
	for _, c := range alt.Concatenations {
		for _, rep := range c.Repetitions {
			switch e := rep.Element.(type) {
			case *ProseVal:
				return e
			case *Group:
				if prose := findProse(e.Alternation); prose != nil {
					return prose
				}
			case *Option:
				if prose := findProse(e.Alternation); prose != nil {
					return prose
				}
			}
		}
	}
	return nil
}

// textOnly reports whether alt references core rules only.
func (p *plan) textOnly(alt *Alternation) bool {
	for name := range countNames(alt) {
		if _, ok := p.byName[name]; ok {
			return false
		}
	}
	return true
}

func (p *plan) unique(name string) string {
	out := name
	for i := 2; p.idents[out]; i++ {
		out = name + strconv.Itoa(i)
	}
	p.idents[out] = true
	return out
}

// goName converts a rule name to an exported Go identifier.
func goName(name string) string {
	out := &strings.Builder{}
	for _, part := range strings.Split(name, "-") {
		if part == "" {
			continue
		}
		out.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return out.String()
}

func (p *plan) newShape(owner *plannedRule, name, doc string) *shape {
	sh := &shape{
		name:  p.unique(name),
		doc:   doc,
		owner: owner,
		refs:  map[string]*field{},
		parts: map[*Alternation]*field{},
		names: map[string]bool{},
	}
	p.shapes = append(p.shapes, sh)
	return sh
}

func (sh *shape) add(f *field, name string) *field {
	f.name = name
	for i := 2; sh.names[f.name]; i++ {
		f.name = name + strconv.Itoa(i)
	}
	sh.names[f.name] = true
	f.index = len(sh.fields)
	sh.fields = append(sh.fields, f)
	return f
}

func (sh *shape) refField(ref *RuleRef) *field {
	if f, ok := sh.refs[ref.Name]; ok {
		return f
	}
	f := sh.add(&field{rule: ref.Name, core: ref.Core}, goName(ref.Name))
	sh.refs[ref.Name] = f
	return f
}

// terminal reports whether f holds text.
func (p *plan) terminal(f *field) bool {
	if f.part != nil {
		return false
	}
	return f.core || p.byName[f.rule].terminal
}

func repeated(rep *Repetition) bool { return rep.Max == peg.Unbounded || rep.Max > 1 }

func groupOf(e Element) (*Alternation, bool) {
	switch e := e.(type) {
	case *Group:
		return e.Alternation, false
	case *Option:
		return e.Alternation, true
	}
	return nil, false
}

// countNames counts the references of alt by rule name: 1 for at most once per match,
// 2 for more.
func countNames(alt *Alternation) map[string]int {
	out := map[string]int{}
	for _, c := range alt.Concatenations {
		concat := map[string]int{}
		for _, rep := range c.Repetitions {
			if rep.Max == 0 {
				continue
			}
			inner := map[string]int{}
			switch e := rep.Element.(type) {
			case *RuleRef:
				inner[e.Name] = 1
			case *Group:
				inner = countNames(e.Alternation)
			case *Option:
				inner = countNames(e.Alternation)
			}
			for name, n := range inner {
				if repeated(rep) {
					n = 2
				}
				concat[name] = min(concat[name]+n, 2)
			}
		}
		for name, n := range concat {
			out[name] = max(out[name], n)
		}
	}
	return out
}

// hoisted reports whether a repeated group needs its own struct.
func hoisted(alt *Alternation) bool {
	total := 0
	for _, n := range countNames(alt) {
		total += n
	}
	return total > 1
}

func onlyName(names map[string]int) string {
	for name := range names {
		return name
	}
	return ""
}

func markLists(sh *shape, counts map[*field]int) {
	for _, f := range sh.fields {
		f.list = counts[f] > 1
	}
}

// collectAlt adds the fields alt fills to sh, in order of appearance, and counts how
// many times a match fills each of them.
func (p *plan) collectAlt(sh *shape, alt *Alternation) map[*field]int {
	out := map[*field]int{}
	for _, c := range alt.Concatenations {
		concat := map[*field]int{}
		for _, rep := range c.Repetitions {
			for f, n := range p.collectRep(sh, rep) {
				concat[f] = min(concat[f]+n, 2)
			}
		}
		for f, n := range concat {
			out[f] = max(out[f], n)
		}
	}
	return out
}

func (p *plan) collectRep(sh *shape, rep *Repetition) map[*field]int {
	if rep.Max == 0 {
		return nil
	}
	switch e := rep.Element.(type) {
	case *RuleRef:
		f := sh.refField(e)
		if repeated(rep) {
			return map[*field]int{f: 2}
		}
		return map[*field]int{f: 1}

	case *Group, *Option:
		alt, _ := groupOf(e)
		names := countNames(alt)
		switch {
		case len(names) == 0:
			return nil
		case !repeated(rep):
			return p.collectAlt(sh, alt)
		case hoisted(alt):
			owner := sh.owner
			owner.parts++
			part := p.newShape(owner, fmt.Sprintf("%sPart%d", owner.ident, owner.parts),
				"is one repetition of a group of rule "+owner.rule.Name+".")
			markLists(part, p.collectAlt(part, alt))
			f := sh.add(&field{part: part}, fmt.Sprintf("Part%d", owner.parts))
			sh.parts[alt] = f
			return map[*field]int{f: 2}
		default:
			name := onlyName(names)
			_, local := p.byName[name]
			return map[*field]int{sh.refField(&RuleRef{Name: name, Core: !local}): 2}
		}
	}
	return nil
}

// wrap routes a node into its parent's own slot.
func wrap(n node, route peg.Route) node {
	if route == peg.Self {
		return n
	}
	return &seqNode{items: []node{n}, routes: []peg.Route{route}}
}

func (p *plan) ref(e *RuleRef, f *field) *refNode {
	if e.Core {
		p.core = true
	}
	return &refNode{rule: e.Name, core: e.Core, field: f}
}

// emitAlt lays out alt filling sh. The route tells where the node goes relative to sh.
func (p *plan) emitAlt(sh *shape, alt *Alternation) (node, peg.Route) {
	if len(alt.Concatenations) == 1 {
		return p.emitConcat(sh, alt.Concatenations[0])
	}
	q := &seqNode{choice: true}
	for _, c := range alt.Concatenations {
		n, route := p.emitConcat(sh, c)
		q.items = append(q.items, n)
		q.routes = append(q.routes, route)
	}
	return q, peg.Self
}

func (p *plan) emitConcat(sh *shape, c *Concatenation) (node, peg.Route) {
	if len(c.Repetitions) == 1 {
		return p.emitRep(sh, c.Repetitions[0])
	}
	q := &seqNode{}
	for _, rep := range c.Repetitions {
		n, route := p.emitRep(sh, rep)
		q.items = append(q.items, n)
		q.routes = append(q.routes, route)
	}
	return q, peg.Self
}

func (p *plan) emitRep(sh *shape, rep *Repetition) (node, peg.Route) {
	if rep.Max == 0 {
		return p.plain(rep), peg.Discard
	}
	switch e := rep.Element.(type) {
	case *RuleRef:
		f := sh.refs[e.Name]
		var n node = p.ref(e, f)
		if repeated(rep) {
			return &repeatNode{rep.Min, rep.Max, n}, peg.Field(f.index)
		}
		if f.list {
			n = &firstNode{n}
		}
		if rep.Min == 0 {
			n = &optionalNode{n}
		}
		return n, peg.Field(f.index)

	case *Group, *Option:
		alt, opt := groupOf(e)
		names := countNames(alt)
		if len(names) == 0 {
			return p.plain(rep), peg.Discard
		}
		if repeated(rep) {
			var item node
			var f *field
			if part, ok := sh.parts[alt]; ok {
				f = part
				item = wrap(p.emitAlt(part.part, alt))
			} else {
				f = sh.refs[onlyName(names)]
				item, _ = p.valueAlt(f, alt)
			}
			if opt {
				item = &optionalNode{item}
			}
			return &repeatNode{rep.Min, rep.Max, item}, peg.Field(f.index)
		}
		n, route := p.emitAlt(sh, alt)
		if opt || rep.Min == 0 {
			n = &optionalNode{n}
		}
		return n, route
	}
	return p.plain(rep), peg.Discard
}

// valueAlt lays out a group delivering the value of its only reference, which fills f,
// into its own slot.
func (p *plan) valueAlt(f *field, alt *Alternation) (node, peg.Route) {
	if len(alt.Concatenations) == 1 {
		return p.valueConcat(f, alt.Concatenations[0])
	}
	q := &seqNode{choice: true}
	for _, c := range alt.Concatenations {
		n, route := p.valueConcat(f, c)
		q.items = append(q.items, n)
		q.routes = append(q.routes, route)
	}
	return q, peg.Self
}

func (p *plan) valueConcat(f *field, c *Concatenation) (node, peg.Route) {
	if len(c.Repetitions) == 1 {
		return p.valueRep(f, c.Repetitions[0])
	}
	q := &seqNode{}
	for _, rep := range c.Repetitions {
		n, route := p.valueRep(f, rep)
		q.items = append(q.items, n)
		q.routes = append(q.routes, route)
	}
	return q, peg.Self
}

func (p *plan) valueRep(f *field, rep *Repetition) (node, peg.Route) {
	if rep.Max == 0 {
		return p.plain(rep), peg.Discard
	}
	var n node
	route := peg.Self
	switch e := rep.Element.(type) {
	case *RuleRef:
		n = p.ref(e, f)
	case *Group, *Option:
		alt, opt := groupOf(e)
		if len(countNames(alt)) == 0 {
			return p.plain(rep), peg.Discard
		}
		n, route = p.valueAlt(f, alt)
		if opt {
			n = &optionalNode{n}
		}
	default:
		return p.plain(rep), peg.Discard
	}
	if rep.Min == 0 {
		n = &optionalNode{n}
	}
	return n, route
}

// plain lays out a repetition capturing text only.
func (p *plan) plain(rep *Repetition) node {
	n := p.plainElement(rep.Element)
	if rep.Min == 1 && rep.Max == 1 {
		return n
	}
	return &repeatNode{rep.Min, rep.Max, n}
}

func (p *plan) plainElement(e Element) node {
	switch e := e.(type) {
	case *RuleRef:
		return p.ref(e, nil)
	case *Group:
		return p.plainAlt(e.Alternation)
	case *Option:
		// A Repeat, unlike Optional, reports an empty span when nothing matched.
		return &repeatNode{0, 1, p.plainAlt(e.Alternation)}
	case *CharVal:
		return &litNode{e.Text}
	case *NumVal:
		return &charsNode{e.Runes}
	case *NumRange:
		return &rangeNode{e.Lo, e.Hi}
	}
	panic(fmt.Sprintf("unexpected element %s", e))
}

func (p *plan) plainAlt(alt *Alternation) node {
	if len(alt.Concatenations) == 1 {
		return p.plainConcat(alt.Concatenations[0])
	}
	q := &seqNode{choice: true}
	for _, c := range alt.Concatenations {
		q.items = append(q.items, p.plainConcat(c))
	}
	return q
}

func (p *plan) plainConcat(c *Concatenation) node {
	if len(c.Repetitions) == 1 {
		return p.plain(c.Repetitions[0])
	}
	q := &seqNode{}
	for _, rep := range c.Repetitions {
		q.items = append(q.items, p.plain(rep))
	}
	return q
}

// plainRoutes reports whether routes are those Seq or Alt assign to their expressions
// when the Discard ones are wrapped in Drop.
func plainRoutes(choice bool, routes []peg.Route) bool {
	self := 0
	for _, route := range routes {
		switch route {
		case peg.Self:
			self++
		case peg.Discard:
		default:
			return false
		}
	}
	return choice || self <= 1
}
