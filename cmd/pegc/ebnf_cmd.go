package main

import (
	"fmt"

	"github.com/ptaahfr/peg/abnf"
)

type ebnfCmd struct {
	Start   string `help:"Rule every other rule must be reachable from (defaults to the first rule)."`
	Grammar string `arg:"" optional:"" help:"ABNF grammar file, - or omitted to read stdin."`
}

func (c *ebnfCmd) Run(s *streams) error {
	rules, err := loadGrammar(s, c.Grammar)
	if err != nil {
		return err
	}
	g, err := abnf.Compile(rules)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.Stdout, g.EBNF())
	start := c.Start
	if start == "" && len(rules.Rules) > 0 {
		start = rules.Rules[0].Name
	}
	log.Debugf("verifying from %s", start)
	return g.Verify(start)
}
