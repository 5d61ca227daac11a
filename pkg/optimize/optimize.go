// Package optimize reduces an arbitrary multiset of targets against a
// template service into a minimal family of single-destination services,
// following the four-phase algorithm: coalesce atoms by destination,
// coalesce destinations by atom-set, split by address family, emit services.
package optimize

import (
	"sort"
	"strconv"
	"strings"

	"github.com/zoneforge/fwctl/pkg/model"
	"github.com/zoneforge/fwctl/pkg/util"
)

// Optimize reduces targets against template into a minimal ServiceSet whose
// services admit exactly the same traffic as targets.
func Optimize(template *model.Service, targets []model.Target) (*model.ServiceSet, error) {
	if template == nil {
		return nil, util.NewValidationError("template must not be nil")
	}
	if len(targets) == 0 {
		return model.NewServiceSet(template, nil), nil
	}

	destAtoms := coalesceAtomsByDestination(targets)
	groups := coalesceDestinationsByAtomSet(destAtoms)

	services, err := emitServices(template, groups)
	if err != nil {
		return nil, err
	}
	return model.NewServiceSet(template, services), nil
}

// Reoptimize re-runs Optimize over an already-produced service set's own
// targets. When the result is unchanged it returns the same instance,
// satisfying the optimizer's idempotence guarantee.
func Reoptimize(ss *model.ServiceSet) (*model.ServiceSet, error) {
	result, err := Optimize(ss.Template(), ss.Targets())
	if err != nil {
		return nil, err
	}
	if result.Equal(ss) {
		return ss, nil
	}
	return result, nil
}

// coalesceAtomsByDestination implements phase 1: for every destination,
// reduce its atom set to one that is pairwise non-coalescible.
func coalesceAtomsByDestination(targets []model.Target) map[model.Prefix][]model.Atom {
	sets := make(map[model.Prefix][]model.Atom)
	queue := append([]model.Target(nil), targets...)

	for len(queue) > 0 {
		idx := minTargetIndex(queue)
		t := queue[idx]
		queue = append(queue[:idx], queue[idx+1:]...)

		d, a := t.Destination(), t.Atom()
		s := sets[d]

		matched := false
		for i := 0; i < len(s); {
			merged, ok := s[i].Coalesce(a)
			if !ok {
				i++
				continue
			}
			s = append(s[:i], s[i+1:]...)
			queue = append(queue, model.NewTarget(d, merged))
			matched = true
		}
		if matched {
			sets[d] = s
		} else {
			sets[d] = append(s, a)
		}
	}
	return sets
}

func minTargetIndex(targets []model.Target) int {
	min := 0
	for i := 1; i < len(targets); i++ {
		if targets[i].Compare(targets[min]) < 0 {
			min = i
		}
	}
	return min
}

// atomGroup holds one outer-map entry after phase 2: an atom-set and the
// destinations that share it.
type atomGroup struct {
	key          string
	atoms        []model.Atom
	destinations []model.Prefix
}

// coalesceDestinationsByAtomSet implements phase 2: group destinations by
// their (sorted) atom-set, coalescing at most one destination per popped
// entry before re-enqueuing.
func coalesceDestinationsByAtomSet(destAtoms map[model.Prefix][]model.Atom) []*atomGroup {
	var destinations []model.Prefix
	for d := range destAtoms {
		destinations = append(destinations, d)
	}
	sort.Slice(destinations, func(i, j int) bool { return destinations[i].Compare(destinations[j]) < 0 })

	type queueEntry struct {
		atoms []model.Atom
		key   string
		dest  model.Prefix
	}

	var queue []queueEntry
	for _, d := range destinations {
		sorted := sortedAtoms(destAtoms[d])
		queue = append(queue, queueEntry{atoms: sorted, key: atomSetKey(sorted), dest: d})
	}

	byKey := make(map[string]*atomGroup)
	var order []string

	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]

		g, ok := byKey[e.key]
		if !ok {
			g = &atomGroup{key: e.key, atoms: e.atoms, destinations: []model.Prefix{e.dest}}
			byKey[e.key] = g
			order = append(order, e.key)
			continue
		}

		merged := false
		for i, existing := range g.destinations {
			if mergedDest, ok := e.dest.Coalesce(existing); ok {
				g.destinations = append(g.destinations[:i], g.destinations[i+1:]...)
				queue = append(queue, queueEntry{atoms: e.atoms, key: e.key, dest: mergedDest})
				merged = true
				break
			}
		}
		if !merged {
			g.destinations = append(g.destinations, e.dest)
		}
	}

	groups := make([]*atomGroup, len(order))
	for i, k := range order {
		groups[i] = byKey[k]
	}
	sort.Slice(groups, func(i, j int) bool {
		return compareAtomSets(groups[i].atoms, groups[j].atoms) < 0
	})
	return groups
}

func sortedAtoms(atoms []model.Atom) []model.Atom {
	out := append([]model.Atom(nil), atoms...)
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

// atomSetKey canonicalizes an atom set into a stable map key. Not observable
// by callers.
func atomSetKey(sorted []model.Atom) string {
	parts := make([]string, len(sorted))
	for i, a := range sorted {
		parts[i] = a.String()
	}
	return strings.Join(parts, "\x00")
}

// compareAtomSets orders atom-sets by pairwise comparison of their sorted
// atoms; the first unequal pair decides, and a sequence that is a prefix of
// the other sorts first.
func compareAtomSets(a, b []model.Atom) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := a[i].Compare(b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// emitServices implements phases 3 and 4: split each group's destinations
// by address family, zip the IPv4/IPv6 lists pairwise, and build one
// service per pair, inheriting template metadata.
func emitServices(template *model.Service, groups []*atomGroup) ([]*model.Service, error) {
	var services []*model.Service
	k := 0

	for _, g := range groups {
		var ports []model.PortRange
		var protocols []model.Protocol
		for _, a := range g.atoms {
			if r, ok := a.PortRange(); ok {
				ports = append(ports, r)
			} else {
				protocols = append(protocols, a.Protocol())
			}
		}

		var v4s, v6s []model.Prefix
		for _, d := range g.destinations {
			if d.Family() == model.IPv4 {
				v4s = append(v4s, d)
			} else {
				v6s = append(v6s, d)
			}
		}
		sort.Slice(v4s, func(i, j int) bool { return v4s[i].Compare(v4s[j]) < 0 })
		sort.Slice(v6s, func(i, j int) bool { return v6s[i].Compare(v6s[j]) < 0 })

		n := len(v4s)
		if len(v6s) > n {
			n = len(v6s)
		}

		for i := 0; i < n; i++ {
			k++
			opts := model.ServiceOptions{
				Name:        model.ServiceName(template.Name(), k),
				Version:     template.Version(),
				Description: template.Description(),
				Ports:       ports,
				Protocols:   protocols,
				SourcePorts: template.SourcePorts(),
				Modules:     template.Modules(),
			}
			if template.ShortName() != "" {
				if k == 1 {
					opts.ShortName = template.ShortName()
				} else {
					opts.ShortName = template.ShortName() + " #" + strconv.Itoa(k)
				}
			}
			if i < len(v4s) {
				d := v4s[i]
				opts.DestinationIPv4 = &d
			}
			if i < len(v6s) {
				d := v6s[i]
				opts.DestinationIPv6 = &d
			}

			svc, err := model.NewService(opts)
			if err != nil {
				return nil, err
			}
			services = append(services, svc)
		}
	}

	return services, nil
}
