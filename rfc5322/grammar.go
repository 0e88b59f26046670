// Package rfc5322 parses the address syntax of RFC 5322 section 3.4.
//
// The rules capture into flat structs: a mailbox is one MailboxData whatever form it is
// written in, and comments, folding white space, quotes and quoted-pair backslashes never
// appear in captured text. Obsolete syntax (section 4) is not supported.
package rfc5322

import (
	"github.com/ptaahfr/peg"
	"github.com/ptaahfr/peg/rfc5234"
)

// Grammar holds the address rules.
var Grammar = peg.NewGrammar()

// MailboxData is the capture of a mailbox, name-addr, angle-addr or addr-spec.
type MailboxData struct {
	// Words of the display name, empty for a bare addr-spec.
	DisplayName []peg.Span
	LocalPart   peg.Span
	Domain      peg.Span
}

// GroupData is the capture of a group.
type GroupData struct {
	DisplayName []peg.Span
	Mailboxes   []MailboxData
}

// AddressData holds either a mailbox or a group.
type AddressData struct {
	Mailbox *MailboxData
	Group   *GroupData
}

// AddressListData is the capture of an address-list.
type AddressListData struct {
	Addresses []AddressData
}

// text matches exprs in sequence, capturing everything they write as one span.
func text(exprs ...peg.Expr) peg.Expr {
	dropped := make([]peg.Expr, len(exprs))
	for i, e := range exprs {
		dropped[i] = peg.Drop(e)
	}
	return peg.Seq(dropped...)
}

// trimmed matches e between optional CFWS, capturing the value of e only.
func trimmed(e peg.Expr) peg.Expr {
	return peg.Seq(peg.Drop(peg.Optional(cfws)), e, peg.Drop(peg.Optional(cfws)))
}

func many(e peg.Expr) peg.Expr  { return peg.Repeat(0, peg.Unbounded, e) }
func many1(e peg.Expr) peg.Expr { return peg.Repeat(1, peg.Unbounded, e) }

// Lexical tokens, section 3.2.
var (
	// A line break inside FWS is consumed but not kept, which unfolds the text.
	fold = peg.Seq(peg.Drop(peg.Optional(peg.Escaped('\r'))), peg.Drop(peg.Escaped('\n')))

	quotedPair = Grammar.Define("quoted-pair",
		peg.Seq(peg.Drop(peg.Escaped('\\')), peg.Alt(rfc5234.VCHAR, rfc5234.WSP))).Returns(peg.Span{})

	fws = Grammar.Define("FWS",
		text(peg.Optional(text(many(rfc5234.WSP), fold)), many1(rfc5234.WSP))).Returns(peg.Span{})

	ctext    = Grammar.Define("ctext", peg.Alt(peg.Range(33, 39), peg.Range(42, 91), peg.Range(93, 126)))
	ccontent = Grammar.Define("ccontent", peg.Alt(ctext, quotedPair, Grammar.Rule("comment"))).Returns(peg.Span{})

	comment = Grammar.Define("comment",
		text(peg.Char('('), many(text(peg.Optional(fws), ccontent)), peg.Optional(fws), peg.Char(')'))).Returns(peg.Span{})

	cfws = Grammar.Define("CFWS", peg.Alt(
		text(many1(text(peg.Optional(fws), comment)), peg.Optional(fws)),
		fws,
	)).Returns(peg.Span{})
)

// Atoms and quoted strings.
var (
	atext = Grammar.Define("atext", peg.Alt(rfc5234.ALPHA, rfc5234.DIGIT, peg.Set("!#$%&'*+-/=?^_`{|}~")))

	atom        = Grammar.Define("atom", trimmed(many1(atext))).Returns(peg.Span{})
	dotAtomText = Grammar.Define("dot-atom-text", text(many1(atext), many(text(peg.Char('.'), many1(atext)))))
	dotAtom     = Grammar.Define("dot-atom", trimmed(dotAtomText)).Returns(peg.Span{})

	qtext    = Grammar.Define("qtext", peg.Alt(peg.Char(33), peg.Range(35, 91), peg.Range(93, 126)))
	qcontent = Grammar.Define("qcontent", peg.Alt(qtext, quotedPair)).Returns(peg.Span{})

	// quotedString captures the content between the quotes, unescaped.
	quotedString = Grammar.Define("quoted-string", trimmed(peg.Seq(
		peg.Drop(peg.Escaped('"')),
		text(many(text(peg.Optional(fws), qcontent)), peg.Optional(fws)),
		peg.Drop(peg.Escaped('"')),
	))).Returns(peg.Span{})

	word = Grammar.Define("word", peg.Alt(atom, quotedString)).Returns(peg.Span{})

	// displayName captures one span per word.
	displayName = Grammar.Define("display-name", many1(word)).Returns([]peg.Span{})
)

// Addresses, section 3.4.
var (
	localPart = Grammar.Define("local-part", peg.Alt(dotAtom, quotedString)).Returns(peg.Span{})

	dtext = Grammar.Define("dtext", peg.Alt(peg.Range(33, 90), peg.Range(94, 126)))

	// domainLiteral keeps its brackets.
	domainLiteral = Grammar.Define("domain-literal", trimmed(text(
		peg.Char('['), many(text(peg.Optional(fws), dtext)), peg.Optional(fws), peg.Char(']'),
	))).Returns(peg.Span{})

	domain = Grammar.Define("domain", peg.Alt(dotAtom, domainLiteral)).Returns(peg.Span{})

	addrSpec = Grammar.Define("addr-spec",
		peg.IndexedSeq([]peg.Route{peg.Field(1), peg.Discard, peg.Field(2)},
			localPart, peg.Char('@'), domain)).Returns(MailboxData{})

	angleAddr = Grammar.Define("angle-addr",
		peg.IndexedSeq([]peg.Route{peg.Discard, peg.Discard, peg.Self, peg.Discard, peg.Discard},
			peg.Optional(cfws), peg.Char('<'), addrSpec, peg.Char('>'), peg.Optional(cfws))).Returns(MailboxData{})

	nameAddr = Grammar.Define("name-addr",
		peg.IndexedSeq([]peg.Route{peg.Field(0), peg.Self}, peg.Optional(displayName), angleAddr)).Returns(MailboxData{})

	mailbox = Grammar.Define("mailbox", peg.Alt(nameAddr, addrSpec)).Returns(MailboxData{})

	mailboxList = Grammar.Define("mailbox-list",
		peg.IndexedSeq([]peg.Route{peg.Self, peg.Self},
			peg.First(mailbox), many(peg.Seq(peg.Drop(peg.Char(',')), mailbox)))).Returns([]MailboxData{})

	groupList = Grammar.Define("group-list", peg.Alt(mailboxList, peg.Drop(cfws))).Returns([]MailboxData{})

	group = Grammar.Define("group",
		peg.IndexedSeq([]peg.Route{peg.Field(0), peg.Discard, peg.Field(1), peg.Discard, peg.Discard},
			displayName, peg.Char(':'), peg.Optional(groupList), peg.Char(';'), peg.Optional(cfws))).Returns(GroupData{})

	address = Grammar.Define("address",
		peg.IndexedAlt([]peg.Route{peg.Field(0), peg.Field(1)}, mailbox, group)).Returns(AddressData{})

	addressList = Grammar.Define("address-list",
		peg.IndexedSeq([]peg.Route{peg.Field(0), peg.Field(0)},
			peg.First(address), many(peg.Seq(peg.Drop(peg.Char(',')), address)))).Returns(AddressListData{})
)
