package interfacemanager

import (
	"fmt"
	"net"
	"net/netip"

	multierror "github.com/hashicorp/go-multierror"
)

// Lister returns the interfaces of the machine. SystemInterfaces is the
// production implementation.
type Lister func() ([]Interface, error)

type UnixInterfaceManager struct {
	Lister Lister
}

// SystemInterfaces queries the OS for all interfaces and their addresses.
// If any interface's address list cannot be read the whole call fails.
func SystemInterfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var result *multierror.Error
	interfaces := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("interface %s: %w", iface.Name, err))
			continue
		}
		interfaces = append(interfaces, Interface{Name: iface.Name, Addrs: addrs})
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return interfaces, nil
}

func (m *UnixInterfaceManager) ListAddresses() ([]InterfaceAddress, error) {
	lister := m.Lister
	if lister == nil {
		lister = SystemInterfaces
	}

	interfaces, err := lister()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnumeration, err)
	}

	// IPv4 addresses of every interface come first, then IPv6, each group
	// in enumeration order.
	var v4, v6 []InterfaceAddress
	for _, iface := range interfaces {
		for _, addr := range iface.Addrs {
			family, address, ok := classify(addr)
			if !ok {
				continue
			}

			entry := InterfaceAddress{InterfaceName: iface.Name, Family: family, Address: address}
			if family == IPv4 {
				v4 = append(v4, entry)
			} else {
				v6 = append(v6, entry)
			}
		}
	}

	return append(v4, v6...), nil
}

// classify reports the family and text form of an interface address.
// Anything other than an IPNet or IPAddr counts as no bound address.
//
// An IPNet's family is its mask length: the net package stores IPv4 in
// 16-byte form with a 4-byte mask, and an IPv4-mapped IPv6 address
// (::ffff:a.b.c.d) has a 16-byte mask and stays IPv6.
func classify(addr net.Addr) (Family, string, bool) {
	switch a := addr.(type) {
	case *net.IPNet:
		switch len(a.Mask) {
		case net.IPv4len:
			if ip4 := a.IP.To4(); ip4 != nil {
				return IPv4, ip4.String(), true
			}
			return 0, "", false
		case net.IPv6len:
			return ipv6(a.IP)
		}
		return classifyIP(a.IP)
	case *net.IPAddr:
		return classifyIP(a.IP)
	default:
		return 0, "", false
	}
}

func classifyIP(ip net.IP) (Family, string, bool) {
	if ip4 := ip.To4(); ip4 != nil {
		return IPv4, ip4.String(), true
	}
	return ipv6(ip)
}

func ipv6(ip net.IP) (Family, string, bool) {
	if len(ip) != net.IPv6len {
		return 0, "", false
	}
	// net.IP prints a mapped address as dotted IPv4; netip keeps the prefix.
	addr, _ := netip.AddrFromSlice(ip)
	return IPv6, addr.String(), true
}
