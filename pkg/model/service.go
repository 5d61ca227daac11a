package model

import (
	"sort"

	"github.com/zoneforge/fwctl/pkg/util"
)

// UnspecifiedIPv4 and UnspecifiedIPv6 (declared in prefix.go) are the two helper constants
// referenced throughout service construction and optimizer output.

// Service is one daemon-level service record: metadata plus the ports, bare
// protocols, kernel modules, and up to two (one per family) destinations it
// applies to.
type Service struct {
	name        string
	version     string
	shortName   string
	description string

	ports       []PortRange
	protocols   []Protocol
	sourcePorts []PortRange
	modules     []string

	destinationIPv4 *Prefix
	destinationIPv6 *Prefix

	targets []Target
}

// ServiceOptions carries the fields of a Service under construction.
type ServiceOptions struct {
	Name        string
	Version     string
	ShortName   string
	Description string

	Ports       []PortRange
	Protocols   []Protocol
	SourcePorts []PortRange
	Modules     []string

	DestinationIPv4 *Prefix
	DestinationIPv6 *Prefix
}

// NewService validates opts against the service invariants and constructs a
// Service, deriving its target set.
func NewService(opts ServiceOptions) (*Service, error) {
	v := &util.ValidationBuilder{}
	v.Add(opts.Name != "", "service name must not be empty")
	v.Add(len(opts.Ports) > 0 || len(opts.Protocols) > 0 || len(opts.Modules) > 0,
		"at least one of ports, protocols, or modules must be non-empty")
	v.Add(opts.DestinationIPv4 != nil || opts.DestinationIPv6 != nil,
		"at least one destination must be set")
	if opts.DestinationIPv4 != nil {
		v.Add(opts.DestinationIPv4.Family() == IPv4, "destination_ipv4 must be of family IPv4")
	}
	if opts.DestinationIPv6 != nil {
		v.Add(opts.DestinationIPv6.Family() == IPv6, "destination_ipv6 must be of family IPv6")
	}
	if hasDuplicatePortRange(opts.Ports) {
		v.AddError("ports set contains duplicate entries")
	}
	if hasDuplicatePortRange(opts.SourcePorts) {
		v.AddError("source_ports set contains duplicate entries")
	}
	if err := v.Build(); err != nil {
		return nil, err
	}

	s := &Service{
		name:        opts.Name,
		version:     opts.Version,
		shortName:   opts.ShortName,
		description: opts.Description,
		ports:       append([]PortRange(nil), opts.Ports...),
		protocols:   append([]Protocol(nil), opts.Protocols...),
		sourcePorts: append([]PortRange(nil), opts.SourcePorts...),
		modules:     append([]string(nil), opts.Modules...),
	}
	if opts.DestinationIPv4 != nil {
		d := opts.DestinationIPv4.Normalize()
		s.destinationIPv4 = &d
	}
	if opts.DestinationIPv6 != nil {
		d := opts.DestinationIPv6.Normalize()
		s.destinationIPv6 = &d
	}

	s.targets = deriveTargets(s.ports, s.protocols, s.destinationIPv4, s.destinationIPv6)
	if hasDuplicateTarget(s.targets) {
		return nil, util.NewAssertionError("targets contains no duplicates", "constructor produced a duplicate target")
	}

	return s, nil
}

func hasDuplicatePortRange(rs []PortRange) bool {
	for i := range rs {
		for j := i + 1; j < len(rs); j++ {
			if rs[i].Equal(rs[j]) {
				return true
			}
		}
	}
	return false
}

func hasDuplicateTarget(ts []Target) bool {
	for i := range ts {
		for j := i + 1; j < len(ts); j++ {
			if ts[i].Equal(ts[j]) {
				return true
			}
		}
	}
	return false
}

// deriveTargets computes the Cartesian product of each port-range or bare
// protocol atom with each non-null destination, in total order.
func deriveTargets(ports []PortRange, protocols []Protocol, v4, v6 *Prefix) []Target {
	var atoms []Atom
	for _, r := range ports {
		atoms = append(atoms, OfPortRange(r))
	}
	for _, p := range protocols {
		atoms = append(atoms, OfProtocol(p))
	}

	var destinations []Prefix
	if v4 != nil {
		destinations = append(destinations, *v4)
	}
	if v6 != nil {
		destinations = append(destinations, *v6)
	}

	var targets []Target
	for _, a := range atoms {
		for _, d := range destinations {
			targets = append(targets, NewTarget(d, a))
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Compare(targets[j]) < 0 })
	return targets
}

// Name returns the service's name, used as file stem and daemon identifier.
func (s *Service) Name() string { return s.name }

// Version returns the service's version, or "" if absent.
func (s *Service) Version() string { return s.version }

// ShortName returns the service's short name, or "" if absent.
func (s *Service) ShortName() string { return s.shortName }

// Description returns the service's description, or "" if absent.
func (s *Service) Description() string { return s.description }

// Ports returns a copy of the service's port-range set.
func (s *Service) Ports() []PortRange { return append([]PortRange(nil), s.ports...) }

// Protocols returns a copy of the service's bare-protocol set.
func (s *Service) Protocols() []Protocol { return append([]Protocol(nil), s.protocols...) }

// SourcePorts returns a copy of the service's source-port set.
func (s *Service) SourcePorts() []PortRange { return append([]PortRange(nil), s.sourcePorts...) }

// Modules returns a copy of the service's kernel-module name set.
func (s *Service) Modules() []string { return append([]string(nil), s.modules...) }

// DestinationIPv4 returns the service's IPv4 destination, or nil if absent.
func (s *Service) DestinationIPv4() *Prefix {
	if s.destinationIPv4 == nil {
		return nil
	}
	d := *s.destinationIPv4
	return &d
}

// DestinationIPv6 returns the service's IPv6 destination, or nil if absent.
func (s *Service) DestinationIPv6() *Prefix {
	if s.destinationIPv6 == nil {
		return nil
	}
	d := *s.destinationIPv6
	return &d
}

// Targets returns the derived target set in total order.
func (s *Service) Targets() []Target { return append([]Target(nil), s.targets...) }

// Equal reports structural equality across every field; ordered sets
// (ports, protocols, source_ports, modules) compare by membership.
func (s *Service) Equal(o *Service) bool {
	if o == nil {
		return false
	}
	if s.name != o.name || s.version != o.version || s.shortName != o.shortName || s.description != o.description {
		return false
	}
	if !portRangeSetsEqual(s.ports, o.ports) {
		return false
	}
	if !protocolSetsEqual(s.protocols, o.protocols) {
		return false
	}
	if !portRangeSetsEqual(s.sourcePorts, o.sourcePorts) {
		return false
	}
	if !stringSetsEqual(s.modules, o.modules) {
		return false
	}
	if !prefixPtrsEqual(s.destinationIPv4, o.destinationIPv4) {
		return false
	}
	if !prefixPtrsEqual(s.destinationIPv6, o.destinationIPv6) {
		return false
	}
	return true
}

func portRangeSetsEqual(a, b []PortRange) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, x := range a {
		found := false
		for i, y := range b {
			if !used[i] && x.Equal(y) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func protocolSetsEqual(a, b []Protocol) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, x := range a {
		found := false
		for i, y := range b {
			if !used[i] && x.Equal(y) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func stringSetsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, x := range a {
		found := false
		for i, y := range b {
			if !used[i] && x == y {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func prefixPtrsEqual(a, b *Prefix) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
