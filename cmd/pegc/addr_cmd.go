package main

import (
	"errors"
	"fmt"

	"github.com/alecthomas/repr"

	"github.com/ptaahfr/peg/rfc5322"
)

type addrCmd struct {
	Dump      bool     `help:"Dump the parsed addresses."`
	Addresses []string `arg:"" required:"" help:"Address lists, such as the value of a To header."`
}

func (c *addrCmd) Run(s *streams) error {
	var errs []error
	for _, input := range c.Addresses {
		list, err := rfc5322.ParseAddressList(input)
		if err != nil {
			log.Errorf("%q: %s", input, err)
			errs = append(errs, fmt.Errorf("%q: %w", input, err))
			continue
		}
		if c.Dump {
			fmt.Fprintln(s.Stdout, repr.String(list, repr.Indent("  ")))
			continue
		}
		for _, a := range list.Addresses {
			if a.Group != nil {
				fmt.Fprintf(s.Stdout, "group %q\n", a.Group.Name)
				for _, m := range a.Group.Mailboxes {
					printMailbox(s, "  ", m)
				}
				continue
			}
			printMailbox(s, "", *a.Mailbox)
		}
	}
	return errors.Join(errs...)
}

func printMailbox(s *streams, indent string, m rfc5322.Mailbox) {
	if m.Name == "" {
		fmt.Fprintf(s.Stdout, "%smailbox %s\n", indent, m.Address())
		return
	}
	fmt.Fprintf(s.Stdout, "%smailbox %s name %q\n", indent, m.Address(), m.Name)
}
