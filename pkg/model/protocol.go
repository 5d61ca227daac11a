// Package model implements the data model a target set reduces to: protocols,
// port-ranges, protocol-or-port atoms, address prefixes, targets, services,
// and service sets, along with the coalesce laws that relate them.
package model

import (
	"strings"

	"github.com/zoneforge/fwctl/pkg/util"
)

// Protocol is a closed enumeration identified by keyword, matching the
// standard IANA protocol registry. Total order is by numeric protocol number.
type Protocol struct {
	name   string
	number int
}

// protocolsByName and protocolsByNumber mirror /etc/protocols for the
// protocols firewalld service definitions actually reference.
var protocolsByName = map[string]Protocol{}
var protocolsByNumber = map[int]Protocol{}

func registerProtocol(name string, number int) Protocol {
	p := Protocol{name: name, number: number}
	protocolsByName[name] = p
	protocolsByNumber[number] = p
	return p
}

var (
	ProtocolICMP       = registerProtocol("icmp", 1)
	ProtocolIGMP       = registerProtocol("igmp", 2)
	ProtocolTCP        = registerProtocol("tcp", 6)
	ProtocolEGP        = registerProtocol("egp", 8)
	ProtocolIGP        = registerProtocol("igp", 9)
	ProtocolUDP        = registerProtocol("udp", 17)
	ProtocolRDP        = registerProtocol("rdp", 27)
	ProtocolIPv6       = registerProtocol("ipv6", 41)
	ProtocolRSVP       = registerProtocol("rsvp", 46)
	ProtocolGRE        = registerProtocol("gre", 47)
	ProtocolESP        = registerProtocol("esp", 50)
	ProtocolAH         = registerProtocol("ah", 51)
	ProtocolICMPv6     = registerProtocol("ipv6-icmp", 58)
	ProtocolOSPF       = registerProtocol("ospf", 89)
	ProtocolIPIP       = registerProtocol("ipip", 94)
	ProtocolPIM        = registerProtocol("pim", 103)
	ProtocolVRRP       = registerProtocol("vrrp", 112)
	ProtocolL2TP       = registerProtocol("l2tp", 115)
	ProtocolSCTP       = registerProtocol("sctp", 132)
	ProtocolUDPLite    = registerProtocol("udplite", 136)
	ProtocolMPLSInIP   = registerProtocol("mpls-in-ip", 137)
)

// ProtocolFromName looks up a protocol by its registry keyword.
func ProtocolFromName(name string) (Protocol, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	p, ok := protocolsByName[name]
	if !ok {
		return Protocol{}, util.NewValidationError("unknown protocol: " + name)
	}
	return p, nil
}

// Name returns the protocol's registry keyword.
func (p Protocol) Name() string { return p.name }

// Number returns the protocol's IANA number.
func (p Protocol) Number() int { return p.number }

// String implements fmt.Stringer.
func (p Protocol) String() string { return p.name }

// Equal reports structural equality.
func (p Protocol) Equal(o Protocol) bool { return p.number == o.number }

// Compare returns -1, 0, or 1 per the numeric protocol-number order.
func (p Protocol) Compare(o Protocol) int {
	switch {
	case p.number < o.number:
		return -1
	case p.number > o.number:
		return 1
	default:
		return 0
	}
}
