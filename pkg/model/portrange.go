package model

import (
	"fmt"

	"github.com/zoneforge/fwctl/pkg/util"
)

// PortRange is a pair (from, to) with 1 <= from <= to <= 65535, tagged with a
// protocol. A single port is the degenerate case from == to.
type PortRange struct {
	from     int
	to       int
	protocol Protocol
}

// NewPortRange validates bounds and constructs a PortRange.
func NewPortRange(from, to int, protocol Protocol) (PortRange, error) {
	if from < 1 || to > 65535 || from > to {
		return PortRange{}, util.NewRangeError(from, to)
	}
	return PortRange{from: from, to: to, protocol: protocol}, nil
}

// From returns the range's lower bound.
func (r PortRange) From() int { return r.from }

// To returns the range's upper bound.
func (r PortRange) To() int { return r.to }

// Protocol returns the range's tagged protocol.
func (r PortRange) Protocol() Protocol { return r.protocol }

// Single reports whether the range is a single port.
func (r PortRange) Single() bool { return r.from == r.to }

// String renders "N" for single ports, "N-M" otherwise.
func (r PortRange) String() string {
	if r.Single() {
		return fmt.Sprintf("%d", r.from)
	}
	return fmt.Sprintf("%d-%d", r.from, r.to)
}

// Equal reports structural equality.
func (r PortRange) Equal(o PortRange) bool {
	return r.from == o.from && r.to == o.to && r.protocol.Equal(o.protocol)
}

// Compare orders by (from, to), then by protocol, assuming callers have
// already established the ranges share a protocol where that matters.
func (r PortRange) Compare(o PortRange) int {
	if r.from != o.from {
		if r.from < o.from {
			return -1
		}
		return 1
	}
	if r.to != o.to {
		if r.to < o.to {
			return -1
		}
		return 1
	}
	return r.protocol.Compare(o.protocol)
}

// Coalesce returns the union of two port-ranges when their closed intervals
// touch or overlap and they share a protocol; otherwise returns false.
func (r PortRange) Coalesce(o PortRange) (PortRange, bool) {
	if !r.protocol.Equal(o.protocol) {
		return PortRange{}, false
	}
	if r.to+1 < o.from || o.to+1 < r.from {
		return PortRange{}, false
	}
	from := r.from
	if o.from < from {
		from = o.from
	}
	to := r.to
	if o.to > to {
		to = o.to
	}
	return PortRange{from: from, to: to, protocol: r.protocol}, true
}
