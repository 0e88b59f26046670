// Command pegc compiles ABNF grammars with the peg engine.
package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/ptaahfr/peg/abnf"
)

var (
	version = "dev"
	log     = commonlog.GetLogger("pegc")
)

type cli struct {
	Version kong.VersionFlag
	Verbose int `short:"v" type:"counter" help:"Increase log verbosity."`

	Gen      genCmd      `cmd:"" help:"Generate Go rule definitions from an ABNF grammar."`
	EBNF     ebnfCmd     `cmd:"" name:"ebnf" help:"Print an ABNF grammar as EBNF and verify it."`
	Railroad railroadCmd `cmd:"" help:"Generate railroad diagrams of an ABNF grammar."`
	Match    matchCmd    `cmd:"" help:"Match input against a rule of an ABNF grammar."`
	Addr     addrCmd     `cmd:"" help:"Parse RFC 5322 address lists."`
}

// Bound into every command.
type streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func newParser(c *cli, s *streams, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("pegc"),
		kong.Description(`A command-line tool for ABNF grammars and the peg engine.`),
		kong.Vars{"version": version},
		kong.UsageOnError(),
		kong.Bind(s),
	}, options...)
	return kong.New(c, options...)
}

func main() {
	c := &cli{}
	s := &streams{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
	parser, err := newParser(c, s)
	if err != nil {
		panic(err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	commonlog.Configure(c.Verbose, nil)
	err = kctx.Run()
	kctx.FatalIfErrorf(err)
}

// isStdin reports whether a grammar argument designates standard input.
func isStdin(path string) bool { return path == "" || path == "-" }

// loadGrammar reads and resolves an ABNF file, "-" or "" for stdin.
func loadGrammar(s *streams, path string) (*abnf.Rules, error) {
	var r io.Reader = s.Stdin
	if isStdin(path) {
		path = "stdin"
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	log.Debugf("read %d bytes from %s", len(src), path)
	rules, err := abnf.Load(string(src))
	if err != nil {
		return nil, err
	}
	log.Infof("loaded %d rules from %s", len(rules.Rules), path)
	return rules, nil
}
