package interfacemanager

import (
	"fmt"
	"io"
)

// Printer renders interface addresses, one per line. It writes a single blank
// line before the first IPv6 address it prints; the flag lives in the
// Printer, so a new Printer starts a new report.
type Printer struct {
	w           io.Writer
	ipv6Printed bool
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Print(addr InterfaceAddress) error {
	if addr.Family == IPv6 && !p.ipv6Printed {
		if _, err := fmt.Fprintln(p.w); err != nil {
			return err
		}
		p.ipv6Printed = true
	}

	_, err := fmt.Fprintf(p.w, "Interface: %s\tAddress %s: %s\n", addr.InterfaceName, addr.Family, addr.Address)
	return err
}

func (p *Printer) PrintAll(addrs []InterfaceAddress) error {
	for _, addr := range addrs {
		if err := p.Print(addr); err != nil {
			return err
		}
	}
	return nil
}

// Report lists the addresses from m and prints them to w with a fresh Printer.
func Report(w io.Writer, m InterfaceManager) error {
	addrs, err := m.ListAddresses()
	if err != nil {
		return err
	}
	return NewPrinter(w).PrintAll(addrs)
}
