// Package abnf parses grammars written in ABNF (RFC 5234) and turns them into peg rules.
//
// The ABNF syntax itself is a peg.Grammar, Grammar, capturing into the *Data types of this
// package. A parsed Document is resolved into Rules, which can be compiled into an
// executable peg.Grammar or rendered as Go source defining the same rules.
//
// PEG alternatives are ordered, ABNF alternatives are not. Where RFC 5234 relies on
// longest match the rules below are reordered: "=/" is tried before "=", and the
// min*max form of repeat before the exact form.
package abnf

import (
	"github.com/ptaahfr/peg"
	"github.com/ptaahfr/peg/rfc5234"
)

// RuleListData is the capture of a whole ABNF document.
//
// Blank and comment lines yield empty RuleData entries, skipped by Resolve.
type RuleListData struct {
	Rules []RuleData
}

// RuleData is a single rule definition.
type RuleData struct {
	Name      peg.Span
	DefinedAs peg.Span
	Elements  AlternationData
}

// AlternationData is a list of alternatives.
type AlternationData struct {
	Concatenations []ConcatenationData
}

// ConcatenationData is a list of repetitions matched in order.
type ConcatenationData struct {
	Repetitions []RepetitionData
}

// RepetitionData is an element with an optional repeat prefix.
type RepetitionData struct {
	Repeat  RepeatData
	Element ElementData
}

// RepeatData holds either Min, Star and Max for the <a>*<b> form, or Exact for <n>.
type RepeatData struct {
	Min   peg.Span
	Star  peg.Span
	Max   peg.Span
	Exact peg.Span
}

// ElementData holds exactly one non-empty field.
type ElementData struct {
	RuleName peg.Span
	Group    *AlternationData
	Option   *AlternationData
	CharVal  peg.Span
	NumVal   *NumValData
	ProseVal peg.Span
}

// NumValData is a %b, %d or %x value: a single value, a concatenation or a range.
type NumValData struct {
	Base     peg.Span
	Digits   peg.Span
	Concat   []peg.Span
	RangeEnd peg.Span
}

// Grammar of ABNF.
var Grammar = peg.NewGrammar()

var (
	rulelist      = Grammar.Rule("rulelist")
	rule          = Grammar.Rule("rule")
	rulename      = Grammar.Rule("rulename")
	definedAs     = Grammar.Rule("defined-as")
	elements      = Grammar.Rule("elements")
	cWsp          = Grammar.Rule("c-wsp")
	cNl           = Grammar.Rule("c-nl")
	comment       = Grammar.Rule("comment")
	alternation   = Grammar.Rule("alternation")
	concatenation = Grammar.Rule("concatenation")
	repetition    = Grammar.Rule("repetition")
	repeat        = Grammar.Rule("repeat")
	element       = Grammar.Rule("element")
	group         = Grammar.Rule("group")
	option        = Grammar.Rule("option")
	charVal       = Grammar.Rule("char-val")
	numVal        = Grammar.Rule("num-val")
	binVal        = Grammar.Rule("bin-val")
	decVal        = Grammar.Rule("dec-val")
	hexVal        = Grammar.Rule("hex-val")
	proseVal      = Grammar.Rule("prose-val")
)

func many(e peg.Expr) peg.Expr  { return peg.Repeat(0, peg.Unbounded, e) }
func many1(e peg.Expr) peg.Expr { return peg.Repeat(1, peg.Unbounded, e) }

// baseVal builds bin-val, dec-val and hex-val: the base letter, the first value, then
// either more values or the end of a range.
func baseVal(letter string, digit peg.Expr) peg.Expr {
	return peg.IndexedSeq([]peg.Route{peg.Field(0), peg.Field(1), peg.Self},
		peg.LitI(letter),
		many1(digit),
		peg.Optional(peg.IndexedAlt([]peg.Route{peg.Field(2), peg.Field(3)},
			many1(peg.Seq(peg.Drop(peg.Char('.')), many1(digit))),
			peg.Seq(peg.Drop(peg.Char('-')), many1(digit)),
		)),
	)
}

func init() {
	Grammar.Define("rulelist", peg.IndexedSeq([]peg.Route{peg.Field(0)},
		many1(peg.Alt(rule, peg.Drop(peg.Seq(many(cWsp), cNl)))),
	)).Returns(RuleListData{})

	Grammar.Define("rule", peg.IndexedSeq([]peg.Route{peg.Field(0), peg.Field(1), peg.Field(2), peg.Discard},
		rulename, definedAs, elements, cNl,
	)).Returns(RuleData{})

	Grammar.Define("rulename", peg.Seq(rfc5234.ALPHA, many(peg.Alt(rfc5234.ALPHA, rfc5234.DIGIT, peg.Char('-'))))).
		Returns(peg.Span{})

	Grammar.Define("defined-as", peg.Seq(
		peg.Drop(many(cWsp)),
		peg.Alt(peg.Lit("=/"), peg.Char('=')),
		peg.Drop(many(cWsp)),
	)).Returns(peg.Span{})

	Grammar.Define("elements", peg.Seq(alternation, peg.Drop(many(cWsp)))).Returns(AlternationData{})

	Grammar.Define("c-wsp", peg.Alt(rfc5234.WSP, peg.Seq(cNl, rfc5234.WSP))).Returns(peg.Span{})

	Grammar.Define("c-nl", peg.Alt(comment, rfc5234.CRLF)).Returns(peg.Span{})

	Grammar.Define("comment", peg.Seq(peg.Char(';'), many(peg.Alt(rfc5234.WSP, rfc5234.VCHAR)), rfc5234.CRLF)).
		Returns(peg.Span{})

	Grammar.Define("alternation", peg.IndexedSeq([]peg.Route{peg.Field(0), peg.Field(0)},
		peg.First(concatenation),
		many(peg.Seq(peg.Drop(many(cWsp)), peg.Drop(peg.Char('/')), peg.Drop(many(cWsp)), concatenation)),
	)).Returns(AlternationData{})

	Grammar.Define("concatenation", peg.IndexedSeq([]peg.Route{peg.Field(0), peg.Field(0)},
		peg.First(repetition),
		many(peg.Seq(peg.Drop(many1(cWsp)), repetition)),
	)).Returns(ConcatenationData{})

	Grammar.Define("repetition", peg.IndexedSeq([]peg.Route{peg.Field(0), peg.Field(1)},
		peg.Optional(repeat), element,
	)).Returns(RepetitionData{})

	Grammar.Define("repeat", peg.IndexedAlt([]peg.Route{peg.Self, peg.Field(3)},
		peg.IndexedSeq([]peg.Route{peg.Field(0), peg.Field(1), peg.Field(2)}, many(rfc5234.DIGIT), peg.Char('*'), many(rfc5234.DIGIT)),
		many1(rfc5234.DIGIT),
	)).Returns(RepeatData{})

	Grammar.Define("element", peg.IndexedAlt(
		[]peg.Route{peg.Field(0), peg.Field(1), peg.Field(2), peg.Field(3), peg.Field(4), peg.Field(5)},
		rulename, group, option, charVal, numVal, proseVal,
	)).Returns(ElementData{})

	Grammar.Define("group", peg.Seq(
		peg.Drop(peg.Char('(')), peg.Drop(many(cWsp)), alternation, peg.Drop(many(cWsp)), peg.Drop(peg.Char(')')),
	)).Returns(AlternationData{})

	Grammar.Define("option", peg.Seq(
		peg.Drop(peg.Char('[')), peg.Drop(many(cWsp)), alternation, peg.Drop(many(cWsp)), peg.Drop(peg.Char(']')),
	)).Returns(AlternationData{})

	Grammar.Define("char-val", peg.Seq(
		rfc5234.DQUOTE, many(peg.Alt(peg.Range(0x20, 0x21), peg.Range(0x23, 0x7E))), rfc5234.DQUOTE,
	)).Returns(peg.Span{})

	Grammar.Define("num-val", peg.Seq(peg.Drop(peg.Char('%')), peg.Alt(binVal, decVal, hexVal))).
		Returns(NumValData{})

	Grammar.Define("bin-val", baseVal("b", rfc5234.BIT)).Returns(NumValData{})
	Grammar.Define("dec-val", baseVal("d", rfc5234.DIGIT)).Returns(NumValData{})
	Grammar.Define("hex-val", baseVal("x", rfc5234.HEXDIG)).Returns(NumValData{})

	Grammar.Define("prose-val", peg.Seq(
		peg.Char('<'), many(peg.Alt(peg.Range(0x20, 0x3D), peg.Range(0x3F, 0x7E))), peg.Char('>'),
	)).Returns(peg.Span{})
}
