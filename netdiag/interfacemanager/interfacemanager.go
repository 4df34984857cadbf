package interfacemanager

import (
	"errors"
	"net"
)

// ErrEnumeration is returned when the OS interface list could not be read.
var ErrEnumeration = errors.New("could not enumerate network interfaces")

// Family is the address family of a bound address.
type Family int

const (
	IPv4 Family = iota + 1
	IPv6
)

func (f Family) String() string {
	switch f {
	case IPv4:
		return "IPv4"
	case IPv6:
		return "IPv6"
	default:
		return "unknown"
	}
}

// InterfaceAddress is one address bound to one interface.
type InterfaceAddress struct {
	InterfaceName string
	Family        Family
	Address       string
}

// Interface is a network interface as reported by the OS, with its bound
// addresses in OS order.
type Interface struct {
	Name  string
	Addrs []net.Addr
}

// InterfaceManager lists the addresses bound to local interfaces.
type InterfaceManager interface {
	// ListAddresses reflects live OS state at call time. On failure no
	// addresses are returned.
	ListAddresses() ([]InterfaceAddress, error)
}
