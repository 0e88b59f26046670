package abnf

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ptaahfr/peg"
	"github.com/ptaahfr/peg/rfc5234"
)

// A Document is a parsed, unresolved ABNF rule list.
type Document struct {
	Data RuleListData
	out  *peg.Output
}

// Parse ABNF source.
//
// RFC 5234 requires every rule to end with a newline; one is added to src if missing.
func Parse(src string, options ...peg.Option) (*Document, error) {
	if !strings.HasSuffix(src, "\n") {
		src += "\n"
	}
	doc := &Document{}
	out, err := peg.ParseString(rulelist, src, &doc.Data, options...)
	if err != nil {
		return nil, err
	}
	doc.out = out
	return doc, nil
}

// Load parses and resolves ABNF source.
func Load(src string) (*Rules, error) {
	doc, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return doc.Resolve()
}

// Text of a captured span.
func (d *Document) Text(span peg.Span) string { return d.out.Text(span) }

// position of an output offset. Nothing in the ABNF syntax is escaped, so output offsets
// are input offsets.
func (d *Document) position(offset int) peg.Position {
	pos := peg.Position{Offset: offset, Line: 1, Column: 1}
	runes := d.out.Runes()
	for i := 0; i < offset && i < len(runes); i++ {
		if runes[i] == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
	}
	return pos
}

// Resolve the document into Rules.
//
// Rule names are case-insensitive. Incremental alternatives ("=/") are merged into the
// rule they extend, and every rule reference must name a rule of the document or a core
// rule. All errors found are returned joined.
func (d *Document) Resolve() (*Rules, error) {
	r := &resolver{
		doc:    d,
		rules:  &Rules{index: map[string]*Rule{}},
		refPos: map[*RuleRef]peg.Position{},
	}
	for _, data := range d.Data.Rules {
		if peg.IsEmpty(data) {
			continue
		}
		r.rule(data)
	}
	for _, rule := range r.rules.Rules {
		r.refs(rule.Alternation)
	}
	if len(r.errs) > 0 {
		return nil, errors.Join(r.errs...)
	}
	return r.rules, nil
}

type resolver struct {
	doc   *Document
	rules *Rules
	errs  []error
	// Position of each unresolved reference.
	refPos map[*RuleRef]peg.Position
}

func (r *resolver) errorf(span peg.Span, format string, args ...interface{}) {
	r.errs = append(r.errs, peg.Errorf(r.doc.position(span.Start), format, args...))
}

func (r *resolver) rule(data RuleData) {
	name := r.doc.Text(data.Name)
	alt := r.alternation(data.Elements)
	existing, ok := r.rules.Lookup(name)
	switch {
	case r.doc.Text(data.DefinedAs) == "=/":
		if !ok {
			r.errorf(data.Name, "incremental alternative for undefined rule %q", name)
			return
		}
		existing.Alternation.Concatenations = append(existing.Alternation.Concatenations, alt.Concatenations...)
	case ok:
		r.errorf(data.Name, "rule %q redefined", name)
	default:
		rule := &Rule{Name: name, Alternation: alt}
		r.rules.Rules = append(r.rules.Rules, rule)
		r.rules.index[strings.ToLower(name)] = rule
	}
}

func (r *resolver) alternation(data AlternationData) *Alternation {
	alt := &Alternation{}
	for _, c := range data.Concatenations {
		concat := &Concatenation{}
		for _, rep := range c.Repetitions {
			concat.Repetitions = append(concat.Repetitions, r.repetition(rep))
		}
		alt.Concatenations = append(alt.Concatenations, concat)
	}
	return alt
}

func (r *resolver) repetition(data RepetitionData) *Repetition {
	rep := &Repetition{Min: 1, Max: 1, Element: r.element(data.Element)}
	switch {
	case !data.Repeat.Exact.Empty():
		rep.Min = r.number(data.Repeat.Exact, 10)
		rep.Max = rep.Min
	case !data.Repeat.Star.Empty():
		rep.Min, rep.Max = 0, peg.Unbounded
		if !data.Repeat.Min.Empty() {
			rep.Min = r.number(data.Repeat.Min, 10)
		}
		if !data.Repeat.Max.Empty() {
			rep.Max = r.number(data.Repeat.Max, 10)
			if rep.Max < rep.Min {
				r.errorf(data.Repeat.Min, "invalid repeat %d*%d", rep.Min, rep.Max)
				rep.Max = rep.Min
			}
		}
	}
	return rep
}

func (r *resolver) number(span peg.Span, base int) int {
	n, err := strconv.ParseInt(r.doc.Text(span), base, 32)
	if err != nil {
		r.errorf(span, "invalid number %q: %s", r.doc.Text(span), errors.Unwrap(err))
		return 0
	}
	return int(n)
}

func (r *resolver) element(data ElementData) Element {
	switch {
	case !data.RuleName.Empty():
		ref := &RuleRef{Name: r.doc.Text(data.RuleName)}
		r.refPos[ref] = r.doc.position(data.RuleName.Start)
		return ref
	case data.Group != nil:
		return &Group{Alternation: r.alternation(*data.Group)}
	case data.Option != nil:
		return &Option{Alternation: r.alternation(*data.Option)}
	case !data.CharVal.Empty():
		text := r.doc.Text(data.CharVal)
		return &CharVal{Text: text[1 : len(text)-1]}
	case data.NumVal != nil:
		return r.numVal(*data.NumVal)
	case !data.ProseVal.Empty():
		text := r.doc.Text(data.ProseVal)
		return &ProseVal{Text: text[1 : len(text)-1]}
	}
	panic("empty element")
}

func (r *resolver) numVal(data NumValData) Element {
	var base int
	switch strings.ToLower(r.doc.Text(data.Base)) {
	case "b":
		base = 2
	case "d":
		base = 10
	default:
		base = 16
	}
	first := r.symbol(data.Digits, base)
	if !data.RangeEnd.Empty() {
		hi := r.symbol(data.RangeEnd, base)
		if hi < first {
			r.errorf(data.Digits, "decreasing range %d-%d", first, hi)
			hi = first
		}
		return &NumRange{Lo: first, Hi: hi}
	}
	runes := []rune{first}
	for _, span := range data.Concat {
		runes = append(runes, r.symbol(span, base))
	}
	return &NumVal{Runes: runes}
}

func (r *resolver) symbol(span peg.Span, base int) rune {
	n := r.number(span, base)
	if n > utf8.MaxRune {
		r.errorf(span, "value %d is out of the Unicode range", n)
		return 0
	}
	return rune(n)
}

// refs binds every rule reference to a rule of the list or to a core rule.
func (r *resolver) refs(alt *Alternation) {
	for _, c := range alt.Concatenations {
		for _, rep := range c.Repetitions {
			switch e := rep.Element.(type) {
			case *RuleRef:
				r.ref(e)
			case *Group:
				r.refs(e.Alternation)
			case *Option:
				r.refs(e.Alternation)
			}
		}
	}
}

func (r *resolver) ref(ref *RuleRef) {
	if rule, ok := r.rules.Lookup(ref.Name); ok {
		ref.Name = rule.Name
		return
	}
	if core, ok := rfc5234.Lookup(ref.Name); ok {
		ref.Name, ref.Core = core.Name(), true
		return
	}
	r.errs = append(r.errs, peg.Errorf(r.refPos[ref], "undefined rule %q", ref.Name))
}
