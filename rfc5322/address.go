package rfc5322

import (
	"strings"

	"github.com/ptaahfr/peg"
)

// A Mailbox is a single parsed address.
type Mailbox struct {
	// Name is the display name with its words joined by single spaces.
	Name      string
	LocalPart string
	Domain    string
}

// Address returns the addr-spec, local-part@domain.
func (m Mailbox) Address() string {
	return m.LocalPart + "@" + m.Domain
}

func (m Mailbox) String() string {
	local := m.LocalPart
	if !isDotAtom(local) {
		local = quote(local)
	}
	addr := local + "@" + m.Domain
	if m.Name == "" {
		return addr
	}
	return phrase(m.Name) + " <" + addr + ">"
}

// A Group is a named list of mailboxes, possibly empty.
type Group struct {
	Name      string
	Mailboxes []Mailbox
}

func (g Group) String() string {
	out := &strings.Builder{}
	out.WriteString(phrase(g.Name))
	out.WriteString(":")
	for i, m := range g.Mailboxes {
		if i > 0 {
			out.WriteString(",")
		}
		out.WriteString(" " + m.String())
	}
	out.WriteString(";")
	return out.String()
}

// An Address is either a Mailbox or a Group.
type Address struct {
	Mailbox *Mailbox
	Group   *Group
}

func (a Address) String() string {
	if a.Group != nil {
		return a.Group.String()
	}
	return a.Mailbox.String()
}

// AddressList is a parsed address-list.
type AddressList struct {
	Addresses []Address
}

// Mailboxes returns every mailbox of the list, with group members in place of their
// group.
func (l *AddressList) Mailboxes() []Mailbox {
	out := []Mailbox{}
	for _, a := range l.Addresses {
		if a.Group != nil {
			out = append(out, a.Group.Mailboxes...)
		} else {
			out = append(out, *a.Mailbox)
		}
	}
	return out
}

func (l *AddressList) String() string {
	parts := make([]string, len(l.Addresses))
	for i, a := range l.Addresses {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

// ParseAddressList parses a comma separated list of mailboxes and groups, such as the
// value of a To header field.
func ParseAddressList(s string, options ...peg.Option) (*AddressList, error) {
	data := &AddressListData{}
	out, err := peg.ParseString(addressList, s, data, options...)
	if err != nil {
		return nil, err
	}
	return data.Resolve(out), nil
}

// ParseMailbox parses a single mailbox.
func ParseMailbox(s string, options ...peg.Option) (*Mailbox, error) {
	data := &MailboxData{}
	out, err := peg.ParseString(mailbox, s, data, options...)
	if err != nil {
		return nil, err
	}
	m := data.Resolve(out)
	return &m, nil
}

// Resolve materializes the captured text.
func (d *AddressListData) Resolve(out *peg.Output) *AddressList {
	list := &AddressList{}
	for _, a := range d.Addresses {
		switch {
		case a.Mailbox != nil:
			m := a.Mailbox.Resolve(out)
			list.Addresses = append(list.Addresses, Address{Mailbox: &m})
		case a.Group != nil:
			list.Addresses = append(list.Addresses, Address{Group: a.Group.Resolve(out)})
		}
	}
	return list
}

// Resolve materializes the captured text.
func (d *GroupData) Resolve(out *peg.Output) *Group {
	g := &Group{Name: words(out, d.DisplayName), Mailboxes: []Mailbox{}}
	for _, m := range d.Mailboxes {
		g.Mailboxes = append(g.Mailboxes, m.Resolve(out))
	}
	return g
}

// Resolve materializes the captured text.
func (d *MailboxData) Resolve(out *peg.Output) Mailbox {
	return Mailbox{
		Name:      words(out, d.DisplayName),
		LocalPart: out.Text(d.LocalPart),
		Domain:    out.Text(d.Domain),
	}
}

func words(out *peg.Output, spans []peg.Span) string {
	parts := make([]string, len(spans))
	for i, span := range spans {
		parts[i] = out.Text(span)
	}
	return strings.Join(parts, " ")
}

func isAtext(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
		strings.ContainsRune("!#$%&'*+-/=?^_`{|}~", r)
}

func isDotAtom(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" || strings.IndexFunc(part, func(r rune) bool { return !isAtext(r) }) >= 0 {
			return false
		}
	}
	return true
}

// phrase renders a display name, quoted unless every word is an atom.
func phrase(name string) string {
	for _, w := range strings.Split(name, " ") {
		if !isDotAtom(w) || strings.Contains(w, ".") {
			return quote(name)
		}
	}
	return name
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
