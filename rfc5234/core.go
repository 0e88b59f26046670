// Package rfc5234 provides the core rules of RFC 5234 Appendix B.
//
// The rules are defined in a shared Grammar, Core, and exported as *peg.Ref so other
// grammars can reference them directly. Every core rule captures a peg.Span.
package rfc5234

import (
	"strings"

	"github.com/ptaahfr/peg"
)

// Core holds the core rules.
var Core = peg.NewGrammar()

var (
	ALPHA  = Core.Define("ALPHA", peg.Alt(peg.Range('A', 'Z'), peg.Range('a', 'z')))
	BIT    = Core.Define("BIT", peg.Set("01"))
	CHAR   = Core.Define("CHAR", peg.Range(0x01, 0x7F))
	CR     = Core.Define("CR", peg.Char('\r'))
	LF     = Core.Define("LF", peg.Char('\n'))
	CTL    = Core.Define("CTL", peg.Alt(peg.Range(0x00, 0x1F), peg.Char(0x7F)))
	DIGIT  = Core.Define("DIGIT", peg.Range('0', '9'))
	DQUOTE = Core.Define("DQUOTE", peg.Char('"'))
	HEXDIG = Core.Define("HEXDIG", peg.Alt(DIGIT, peg.Range('A', 'F'), peg.Range('a', 'f')))
	HTAB   = Core.Define("HTAB", peg.Char('\t'))
	OCTET  = Core.Define("OCTET", peg.Range(0x00, 0xFF))
	SP     = Core.Define("SP", peg.Char(' '))
	VCHAR  = Core.Define("VCHAR", peg.Range(0x21, 0x7E))
	WSP    = Core.Define("WSP", peg.Alt(SP, HTAB))

	// CRLF also accepts a bare LF, as found in most text files.
	CRLF = Core.Define("CRLF", peg.Seq(peg.Drop(peg.Optional(CR)), peg.Drop(LF)))
	// StrictCRLF is CRLF as written in RFC 5234.
	StrictCRLF = Core.Define("StrictCRLF", peg.Seq(peg.Drop(CR), peg.Drop(LF)))

	// LWSP is linear white space past a newline. Use with caution in mail headers.
	LWSP = Core.Define("LWSP", peg.Repeat(0, peg.Unbounded, peg.Alt(WSP, peg.Seq(peg.Drop(CRLF), peg.Drop(WSP)))))
)

var byName = func() map[string]*peg.Ref {
	out := map[string]*peg.Ref{}
	for _, rule := range Core.Rules() {
		out[strings.ToLower(rule.Name())] = rule
	}
	return out
}()

// Lookup a core rule by name, ignoring case as ABNF does.
//
// StrictCRLF is not an RFC 5234 rule and is not returned.
func Lookup(name string) (*peg.Ref, bool) {
	name = strings.ToLower(name)
	if name == "strictcrlf" {
		return nil, false
	}
	ref, ok := byName[name]
	return ref, ok
}
