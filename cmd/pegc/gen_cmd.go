package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/ptaahfr/peg/abnf"
)

type genCmd struct {
	Output  string `short:"o" help:"Output file."`
	Package string `short:"p" default:"grammar" help:"Go package for generated code."`
	Grammar string `arg:"" optional:"" help:"ABNF grammar file, - or omitted to read stdin."`
}

func (c *genCmd) Help() string {
	return `
Generates Go code defining the rules of an ABNF grammar with the peg package,
with one result struct per rule referencing other rules of the grammar.
`
}

func (c *genCmd) Run(s *streams) error {
	rules, err := loadGrammar(s, c.Grammar)
	if err != nil {
		return err
	}
	options := abnf.GenerateOptions{Package: c.Package}
	if !isStdin(c.Grammar) {
		options.Source = filepath.Base(c.Grammar)
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
	if err := abnf.Generate(out, rules, options); err != nil {
		return err
	}
	if c.Output != "" {
		log.Noticef("wrote %s", c.Output)
	}
	return nil
}
