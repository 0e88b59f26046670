package main

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/alecthomas/repr"

	"github.com/ptaahfr/peg"
	"github.com/ptaahfr/peg/abnf"
)

type matchCmd struct {
	Rule    string        `short:"r" help:"Rule to match (defaults to the first rule)."`
	Trace   bool          `help:"Trace rule attempts to stderr."`
	Repr    bool          `help:"Dump the raw captured value."`
	Timeout time.Duration `help:"Abandon the match after this long."`
	Grammar string        `arg:"" type:"existingfile" help:"ABNF grammar."`
	Input   string        `arg:"" help:"Text to match, or - to read stdin."`
}

func (c *matchCmd) Run(s *streams) error {
	rules, err := loadGrammar(s, c.Grammar)
	if err != nil {
		return err
	}
	g, err := abnf.Compile(rules)
	if err != nil {
		return err
	}
	name := c.Rule
	if name == "" && len(rules.Rules) > 0 {
		name = rules.Rules[0].Name
	}
	rule, ok := rules.Lookup(name)
	if !ok {
		return fmt.Errorf("no rule %q", name)
	}
	ref, _ := g.Lookup(rule.Name)
	dest, err := peg.New(ref)
	if err != nil {
		return err
	}

	options := []peg.Option{}
	if c.Trace {
		options = append(options, peg.Trace(s.Stderr))
	}
	if c.Timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
		defer cancel()
		options = append(options, peg.WithContext(ctx))
	}
	log.Infof("matching %s", rule.Name)
	var out *peg.Output
	if c.Input == "-" {
		out, err = peg.ParseReader(ref, s.Stdin, dest, options...)
	} else {
		out, err = peg.ParseString(ref, c.Input, dest, options...)
	}
	if err != nil {
		return err
	}
	if c.Repr {
		fmt.Fprintln(s.Stdout, repr.String(dest, repr.Indent("  ")))
		return nil
	}
	dump(s.Stdout, out, "", reflect.ValueOf(dest).Elem())
	return nil
}

// dump writes a captured value with the text of its spans, one line per span.
func dump(w io.Writer, out *peg.Output, indent string, v reflect.Value) {
	switch {
	case v.Type() == reflect.TypeOf(peg.Span{}):
		fmt.Fprintf(w, "%q\n", out.Text(v.Interface().(peg.Span)))

	case v.Kind() == reflect.Ptr:
		if v.IsNil() {
			fmt.Fprintln(w, "nil")
			return
		}
		dump(w, out, indent, v.Elem())

	case v.Kind() == reflect.Slice:
		if v.Len() == 0 {
			fmt.Fprintln(w, "[]")
			return
		}
		fmt.Fprintln(w)
		for i := 0; i < v.Len(); i++ {
			fmt.Fprintf(w, "%s- ", indent)
			dump(w, out, indent+"  ", v.Index(i))
		}

	case v.Kind() == reflect.Struct:
		if indent != "" || v.NumField() == 0 {
			fmt.Fprintln(w)
		}
		for i := 0; i < v.NumField(); i++ {
			if peg.IsEmpty(v.Field(i).Interface()) {
				continue
			}
			fmt.Fprintf(w, "%s%s: ", indent, v.Type().Field(i).Name)
			dump(w, out, indent+"  ", v.Field(i))
		}

	default:
		fmt.Fprintln(w, repr.String(v.Interface()))
	}
}
