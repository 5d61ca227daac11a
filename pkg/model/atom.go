package model

// Atom is a tagged union: either a bare Protocol (meaning "all ports of P")
// or a PortRange (carrying its own protocol).
type Atom struct {
	protocol  Protocol
	portRange *PortRange
}

// OfProtocol builds a bare-protocol atom.
func OfProtocol(p Protocol) Atom {
	return Atom{protocol: p}
}

// OfPortRange builds a port-ranged atom.
func OfPortRange(r PortRange) Atom {
	return Atom{protocol: r.protocol, portRange: &r}
}

// IsBare reports whether the atom is a bare protocol (no port-range).
func (a Atom) IsBare() bool { return a.portRange == nil }

// Protocol returns the atom's tagged protocol.
func (a Atom) Protocol() Protocol { return a.protocol }

// PortRange returns the atom's port-range and whether one is present.
func (a Atom) PortRange() (PortRange, bool) {
	if a.portRange == nil {
		return PortRange{}, false
	}
	return *a.portRange, true
}

// String renders the port-range form ("22-23/tcp") or the bare form ("esp").
func (a Atom) String() string {
	if a.portRange != nil {
		return a.portRange.String() + "/" + a.protocol.Name()
	}
	return a.protocol.Name()
}

// Equal reports structural equality.
func (a Atom) Equal(o Atom) bool {
	if a.IsBare() != o.IsBare() {
		return false
	}
	if a.IsBare() {
		return a.protocol.Equal(o.protocol)
	}
	return a.portRange.Equal(*o.portRange)
}

// Compare orders port-ranged atoms strictly before bare-protocol atoms;
// within each variant, by port-range then by protocol.
func (a Atom) Compare(o Atom) int {
	aBare, oBare := a.IsBare(), o.IsBare()
	if aBare != oBare {
		if aBare {
			return 1
		}
		return -1
	}
	if !aBare {
		if c := a.portRange.Compare(*o.portRange); c != 0 {
			return c
		}
	}
	return a.protocol.Compare(o.protocol)
}

// Coalesce implements the atom coalesce rules:
//   - different protocols -> none
//   - same protocol, one side bare -> the bare atom (absorbs everything)
//   - both port-ranged -> coalesce of the ranges
func (a Atom) Coalesce(o Atom) (Atom, bool) {
	if !a.protocol.Equal(o.protocol) {
		return Atom{}, false
	}
	if a.IsBare() || o.IsBare() {
		return OfProtocol(a.protocol), true
	}
	merged, ok := a.portRange.Coalesce(*o.portRange)
	if !ok {
		return Atom{}, false
	}
	return OfPortRange(merged), true
}
