package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/alecthomas/repr"
	"golang.org/x/exp/ebnf"

	"github.com/ptaahfr/peg/abnf"
)

const (
	mergeRefThreshold  = -1
	mergeSizeThreshold = 0
)

type railroadCmd struct {
	Output  string `short:"o" help:"Output HTML file."`
	Grammar string `arg:"" optional:"" help:"ABNF grammar file, - or omitted to read stdin."`
}

func (c *railroadCmd) Help() string {
	return `
Generates railroad diagrams of an ABNF grammar, one per rule, from its EBNF
rendering. Copy railroad-diagrams.{css,js} from
https://github.com/tabatkins/railroad-diagrams next to the output.
`
}

func (c *railroadCmd) Run(s *streams) error {
	rules, err := loadGrammar(s, c.Grammar)
	if err != nil {
		return err
	}
	g, err := abnf.Compile(rules)
	if err != nil {
		return err
	}
	grammar, err := ebnf.Parse(c.Grammar, strings.NewReader(g.EBNF()))
	if err != nil {
		return err
	}
	var out io.Writer = s.Stdout
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	_, err = io.WriteString(out, railroad(grammar))
	return err
}

type production struct {
	*ebnf.Production
	refs int
	size int
}

// railroad renders the productions of grammar in source order.
func railroad(grammar ebnf.Grammar) string {
	order := make([]*ebnf.Production, 0, len(grammar))
	for _, p := range grammar {
		order = append(order, p)
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Pos().Offset < order[j].Pos().Offset })

	productions := map[string]*production{}
	for _, p := range order {
		productions[p.Name.String] = &production{Production: p}
	}
	for _, p := range order {
		productions[p.Name.String].size = countProductions(productions, p.Expr)
	}
	for _, p := range order {
		if productions[p.Name.String].size <= mergeSizeThreshold {
			productions[p.Name.String].refs = mergeRefThreshold
		}
	}

	s := `<!DOCTYPE html>
<style>
body {
	background-color: hsl(30,20%, 95%);
}
h1 {
	font-family: sans-serif;
	font-size: 1em;
}
</style>
<!-- From https://github.com/tabatkins/railroad-diagrams -->
<link rel='stylesheet' href='railroad-diagrams.css'>
<script src='railroad-diagrams.js'></script>
<body>
`
	for _, p := range order {
		if productions[p.Name.String].refs <= mergeRefThreshold {
			continue
		}
		s += `<h1 id="` + p.Name.String + `">` + p.Name.String + "</h1>\n"
		s += "<script>\n"
		s += "Diagram(" + generate(productions, p.Expr) + ").addTo();\n"
		s += "</script>\n"
	}
	return s + "</body>\n"
}

func generate(productions map[string]*production, n ebnf.Expression) (s string) {
	switch n := n.(type) {
	case nil:
		s += "Skip()"

	case ebnf.Alternative:
		s += "Choice(0, "
		for i, a := range n {
			if i > 0 {
				s += ", "
			}
			s += generate(productions, a)
		}
		s += ")"

	case ebnf.Sequence:
		s += "Sequence("
		for i, t := range n {
			if i > 0 {
				s += ", "
			}
			s += generate(productions, t)
		}
		s += ")"

	case *ebnf.Group:
		s += generate(productions, n.Body)

	case *ebnf.Option:
		s += "Optional(" + generate(productions, n.Body) + ")"

	case *ebnf.Repetition:
		s += "ZeroOrMore(" + generate(productions, n.Body) + ")"

	case *ebnf.Name:
		p := productions[n.String]
		if p == nil || p.refs > mergeRefThreshold {
			s += fmt.Sprintf("NonTerminal(%q, {href:\"#%s\"})", n.String, n.String)
		} else {
			s += generate(productions, p.Expr)
		}

	case *ebnf.Token:
		s += fmt.Sprintf("Terminal(%q)", n.String)

	case *ebnf.Range:
		s += fmt.Sprintf("Terminal(%q)", n.Begin.String+"…"+n.End.String)

	default:
		panic(repr.String(n))
	}
	return
}

func countProductions(productions map[string]*production, n ebnf.Expression) (size int) {
	switch n := n.(type) {
	case nil:
	case ebnf.Alternative:
		for _, a := range n {
			size += countProductions(productions, a)
		}
	case ebnf.Sequence:
		for _, t := range n {
			size += countProductions(productions, t)
		}
	case *ebnf.Group:
		size += countProductions(productions, n.Body)
	case *ebnf.Option:
		size += countProductions(productions, n.Body)
	case *ebnf.Repetition:
		size += countProductions(productions, n.Body)
	case *ebnf.Name:
		if p := productions[n.String]; p != nil {
			p.refs++
		}
		size++
	default:
		size++
	}
	return
}
