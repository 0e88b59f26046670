package abnf

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"strconv"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/ptaahfr/peg"
)

// GenerateOptions configure Generate.
type GenerateOptions struct {
	// Package name of the generated file.
	Package string
	// Source names the ABNF file in the generated comments, if set.
	Source string
}

// Generate writes Go source defining rules with the peg package.
//
// The source declares a Grammar, one exported *peg.Ref per rule and, for every rule
// referencing other rules of the list, a result struct named after the rule:
//
//	expr = term *( ("+" / "-") term )
//
// captures into
//
//	type ExprData struct {
//		Term []TermData
//	}
//
// A field referencing a core rule or a rule capturing text is a peg.Span, any other a
// pointer to the rule's struct, or a slice when the rule can match the reference more than once. A repeated
// group referencing more than one rule is hoisted into its own ExprPartN struct.
func Generate(w io.Writer, rules *Rules, options GenerateOptions) error {
	p, err := newPlan(rules)
	if err != nil {
		return err
	}
	if options.Package == "" {
		options.Package = "grammar"
	}
	g := &generator{plan: p}
	data := generatedFile{
		Package: options.Package,
		Source:  options.Source,
		Core:    p.core,
	}
	for _, pr := range p.rules {
		rule := generatedRule{Ident: pr.ident, Name: pr.rule.Name, Body: g.expr(pr.body), Returns: "peg.Span{}"}
		if !pr.terminal {
			rule.Returns = pr.shape.name + "{}"
		}
		data.Rules = append(data.Rules, rule)
	}
	for _, sh := range p.shapes {
		typ := generatedType{Name: sh.name, Doc: sh.doc}
		for _, f := range sh.fields {
			typ.Fields = append(typ.Fields, generatedField{Name: f.name, Type: g.fieldType(f)})
		}
		data.Types = append(data.Types, typ)
	}

	tmpl, err := template.New("file").Parse(fileTemplate)
	if err != nil {
		return err
	}
	buf := &bytes.Buffer{}
	if err := tmpl.Execute(buf, data); err != nil {
		return err
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("formatting generated source: %w", err)
	}
	_, err = w.Write(src)
	return err
}

type generatedFile struct {
	Package string
	Source  string
	Core    bool
	Rules   []generatedRule
	Types   []generatedType
}

type generatedRule struct {
	Ident   string
	Name    string
	Body    string
	Returns string
}

type generatedType struct {
	Name   string
	Doc    string
	Fields []generatedField
}

type generatedField struct {
	Name string
	Type string
}

const fileTemplate = `// Code generated by pegc{{if .Source}} from {{.Source}}{{end}}. DO NOT EDIT.

package {{.Package}}

import (
	"github.com/ptaahfr/peg"
{{- if .Core}}
	"github.com/ptaahfr/peg/rfc5234"
{{- end}}
)

// Grammar holds the rules{{if .Source}} of {{.Source}}{{end}}.
var Grammar = peg.NewGrammar()

var (
{{- range .Rules}}
	{{.Ident}} = Grammar.Rule({{printf "%q" .Name}})
{{- end}}
)
{{range .Types}}
// {{.Name}} {{.Doc}}
type {{.Name}} struct {
{{- range .Fields}}
	{{.Name}} {{.Type}}
{{- end}}
}
{{end}}
func init() {
{{- range .Rules}}
	Grammar.Define({{printf "%q" .Name}}, {{.Body}}).Returns({{.Returns}})
{{- end}}
}
`

type generator struct {
	plan *plan
}

func (g *generator) fieldType(f *field) string {
	var t string
	switch {
	case f.part != nil:
		t = f.part.name
	case g.plan.terminal(f):
		t = "peg.Span"
	default:
		t = g.plan.byName[f.rule].shape.name
		if !f.list {
			t = "*" + t
		}
	}
	if f.list {
		t = "[]" + t
	}
	return t
}

func (g *generator) expr(n node) string {
	switch n := n.(type) {
	case *refNode:
		if n.core {
			return "rfc5234." + n.rule
		}
		return g.plan.byName[n.rule].ident

	case *litNode:
		if strings.ToLower(n.text) != strings.ToUpper(n.text) {
			return fmt.Sprintf("peg.LitI(%q)", n.text)
		}
		if utf8.RuneCountInString(n.text) == 1 {
			r, _ := utf8.DecodeRuneInString(n.text)
			return "peg.Char(" + strconv.QuoteRune(r) + ")"
		}
		return fmt.Sprintf("peg.Lit(%q)", n.text)

	case *charsNode:
		if len(n.runes) == 1 {
			return fmt.Sprintf("peg.Char(0x%02X)", n.runes[0])
		}
		return fmt.Sprintf("peg.Lit(%q)", string(n.runes))

	case *rangeNode:
		return fmt.Sprintf("peg.Range(0x%02X, 0x%02X)", n.lo, n.hi)

	case *seqNode:
		items := make([]string, len(n.items))
		for i, item := range n.items {
			items[i] = g.expr(item)
		}
		if n.routes != nil && !plainRoutes(n.choice, n.routes) {
			routes := make([]string, len(n.routes))
			for i, route := range n.routes {
				routes[i] = goRoute(route)
			}
			name := "peg.IndexedSeq"
			if n.choice {
				name = "peg.IndexedAlt"
			}
			return fmt.Sprintf("%s([]peg.Route{%s}, %s)", name, strings.Join(routes, ", "), strings.Join(items, ", "))
		}
		for i, route := range n.routes {
			if route == peg.Discard {
				items[i] = "peg.Drop(" + items[i] + ")"
			}
		}
		if n.choice {
			return "peg.Alt(" + strings.Join(items, ", ") + ")"
		}
		return "peg.Seq(" + strings.Join(items, ", ") + ")"

	case *repeatNode:
		upper := strconv.Itoa(n.max)
		if n.max == peg.Unbounded {
			upper = "peg.Unbounded"
		}
		return fmt.Sprintf("peg.Repeat(%d, %s, %s)", n.min, upper, g.expr(n.item))

	case *optionalNode:
		return "peg.Optional(" + g.expr(n.item) + ")"

	case *firstNode:
		return "peg.First(" + g.expr(n.item) + ")"
	}
	panic("unsupported node")
}

func goRoute(route peg.Route) string {
	switch route {
	case peg.Self:
		return "peg.Self"
	case peg.Discard:
		return "peg.Discard"
	case peg.None:
		return "peg.None"
	}
	return fmt.Sprintf("peg.Field(%d)", int(route))
}
