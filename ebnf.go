package peg

import (
	"fmt"
	"strings"

	"golang.org/x/exp/ebnf"
)

// EBNF returns the grammar in EBNF, one production per line.
//
// Every rule of g is listed in definition order, followed by the rules of other
// grammars that g references. Rule names are lower cased with '-' replaced by '_', so
// every production is lexical.
func (g *Grammar) EBNF() string {
	refs := []*Ref{}
	for _, ref := range g.Rules() {
		if ref.Body() != nil {
			refs = append(refs, ref)
		}
	}
	for _, ref := range g.Rules() {
		refs = append(refs, reachable(ref)...)
	}
	return renderEBNF(refs)
}

// EBNF returns the rule and every rule reachable from it in EBNF, one production per
// line.
func (r *Ref) EBNF() string {
	return renderEBNF(append([]*Ref{r}, reachable(r)...))
}

// Verify the EBNF rendering of the grammar with golang.org/x/exp/ebnf, starting from the
// rule called start.
//
// This reports rules that are referenced but undefined and rules unreachable from start.
func (g *Grammar) Verify(start string) error {
	if _, ok := g.Lookup(start); !ok {
		return fmt.Errorf("no rule %q", start)
	}
	src := g.EBNF()
	grammar, err := ebnf.Parse("grammar", strings.NewReader(src))
	if err != nil {
		return err
	}
	return ebnf.Verify(grammar, ebnfName(start))
}

type ebnfp struct {
	name string
	out  string
}

func renderEBNF(refs []*Ref) string {
	names := map[*ruleDef]string{}
	taken := map[string]bool{}
	outp := []*ebnfp{}
	nameOf := func(r *Ref) string {
		def := r.def()
		if name, ok := names[def]; ok {
			return name
		}
		base := ebnfName(def.name)
		name := base
		for i := 2; taken[name]; i++ {
			name = fmt.Sprintf("%s_%d", base, i)
		}
		taken[name] = true
		names[def] = name
		return name
	}
	seen := map[*ruleDef]bool{}
	for _, ref := range refs {
		def := ref.def()
		if seen[def] || def.body == nil {
			continue
		}
		seen[def] = true
		outp = append(outp, &ebnfp{name: nameOf(ref), out: stringer(def.body, nameOf)})
	}
	out := []string{}
	for _, p := range outp {
		out = append(out, fmt.Sprintf("%s = %s .", p.name, p.out))
	}
	return strings.Join(out, "\n")
}

func ebnfName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "-", "_")
}
