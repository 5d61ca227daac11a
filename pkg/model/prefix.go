package model

import (
	"net/netip"

	"github.com/zoneforge/fwctl/pkg/util"
)

// Family distinguishes IPv4 from IPv6 address prefixes.
type Family int

const (
	IPv4 Family = iota
	IPv6
)

func (f Family) String() string {
	if f == IPv6 {
		return "ipv6"
	}
	return "ipv4"
}

// Prefix is a normalized (address, prefix_length) value. Host bits are
// always zeroed; Normalize is idempotent by construction.
type Prefix struct {
	addr   netip.Addr
	length int
}

// UnspecifiedIPv4 and UnspecifiedIPv6 are the top of each family's lattice.
var (
	UnspecifiedIPv4 = MustParsePrefix("0.0.0.0/0")
	UnspecifiedIPv6 = MustParsePrefix("::/0")
)

// ParsePrefix accepts "address", "address/prefix", and the bare-family
// wildcards "0.0.0.0/0" and "::/0".
func ParsePrefix(s string) (Prefix, error) {
	p, err := netip.ParsePrefix(s)
	if err != nil {
		addr, addrErr := netip.ParseAddr(s)
		if addrErr != nil {
			return Prefix{}, util.NewPrefixError(s, "not a valid address or address/prefix")
		}
		bits := 32
		if addr.Is6() {
			bits = 128
		}
		p = netip.PrefixFrom(addr, bits)
	}
	if p.Addr().Is4In6() {
		return Prefix{}, util.NewPrefixError(s, "IPv4-mapped IPv6 addresses are not supported")
	}
	masked := p.Masked()
	return Prefix{addr: masked.Addr(), length: masked.Bits()}, nil
}

// MustParsePrefix panics on parse failure; intended for package-level
// constants only.
func MustParsePrefix(s string) Prefix {
	p, err := ParsePrefix(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Family reports the address family of the prefix.
func (p Prefix) Family() Family {
	if p.addr.Is4() {
		return IPv4
	}
	return IPv6
}

// Length returns the prefix length in bits.
func (p Prefix) Length() int { return p.length }

// Addr returns the normalized base address.
func (p Prefix) Addr() netip.Addr { return p.addr }

// Normalize zeros host bits; idempotent.
func (p Prefix) Normalize() Prefix {
	np := netip.PrefixFrom(p.addr, p.length).Masked()
	return Prefix{addr: np.Addr(), length: np.Bits()}
}

// String renders "address/length".
func (p Prefix) String() string {
	return netip.PrefixFrom(p.addr, p.length).String()
}

// Equal reports structural equality.
func (p Prefix) Equal(o Prefix) bool {
	return p.length == o.length && p.addr == o.addr
}

// Contains reports whether other lies within p: same family,
// other.address & p.mask == p.address, and p.length <= other.length.
func (p Prefix) Contains(o Prefix) bool {
	if p.Family() != o.Family() {
		return false
	}
	if p.length > o.length {
		return false
	}
	truncated := netip.PrefixFrom(o.addr, p.length).Masked().Addr()
	return truncated == p.addr
}

// Coalesce returns the smallest common enclosing prefix iff one contains the
// other, or the two are sibling halves of a common (length-1) parent;
// otherwise returns false.
func (p Prefix) Coalesce(o Prefix) (Prefix, bool) {
	if p.Family() != o.Family() {
		return Prefix{}, false
	}
	if p.Contains(o) {
		return p, true
	}
	if o.Contains(p) {
		return o, true
	}
	if p.length == o.length && p.length > 0 && !p.Equal(o) {
		parentLen := p.length - 1
		pParent := netip.PrefixFrom(p.addr, parentLen).Masked()
		oParent := netip.PrefixFrom(o.addr, parentLen).Masked()
		if pParent.Addr() == oParent.Addr() {
			return Prefix{addr: pParent.Addr(), length: parentLen}, true
		}
	}
	return Prefix{}, false
}

// Compare orders first by family (IPv4 before IPv6), then by numeric
// address, then by prefix length ascending.
func (p Prefix) Compare(o Prefix) int {
	pf, of := p.Family(), o.Family()
	if pf != of {
		if pf == IPv4 {
			return -1
		}
		return 1
	}
	if p.addr != o.addr {
		if p.addr.Less(o.addr) {
			return -1
		}
		return 1
	}
	if p.length != o.length {
		if p.length < o.length {
			return -1
		}
		return 1
	}
	return 0
}

// IsUnspecified reports whether p is 0.0.0.0/0 or ::/0.
func (p Prefix) IsUnspecified() bool {
	if p.Family() == IPv4 {
		return p.Equal(UnspecifiedIPv4)
	}
	return p.Equal(UnspecifiedIPv6)
}
