package model

import (
	"sort"
	"strconv"
)

// ServiceSet is a tuple (template, services, targets). template's name,
// version, short_name, description, source_ports, and modules are carried
// into every emitted service; template.ports, template.protocols, and
// destinations are not reused. services is an ordered set: the first entry
// bears the template's name, the k-th (k >= 2) bears name + "-" + k.
type ServiceSet struct {
	template *Service
	services []*Service
	targets  []Target
}

// NewServiceSet builds a ServiceSet from a template and its emitted services,
// deriving the target union.
func NewServiceSet(template *Service, services []*Service) *ServiceSet {
	var targets []Target
	for _, svc := range services {
		targets = append(targets, svc.Targets()...)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Compare(targets[j]) < 0 })

	return &ServiceSet{
		template: template,
		services: append([]*Service(nil), services...),
		targets:  targets,
	}
}

// Template returns the template service.
func (ss *ServiceSet) Template() *Service { return ss.template }

// Services returns the ordered service list.
func (ss *ServiceSet) Services() []*Service { return append([]*Service(nil), ss.services...) }

// Targets returns the union of every service's targets.
func (ss *ServiceSet) Targets() []Target { return append([]Target(nil), ss.targets...) }

// Empty reports whether the set contains no services.
func (ss *ServiceSet) Empty() bool { return len(ss.services) == 0 }

// Equal reports whether two service sets have equal services sets; the
// template is excluded from the comparison.
func (ss *ServiceSet) Equal(o *ServiceSet) bool {
	if o == nil {
		return false
	}
	if len(ss.services) != len(o.services) {
		return false
	}
	used := make([]bool, len(o.services))
	for _, a := range ss.services {
		found := false
		for i, b := range o.services {
			if !used[i] && a.Equal(b) {
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

// ServiceName returns the name the k-th (1-based) emitted service should
// bear: the template's own name for k == 1, and name + "-" + k otherwise.
func ServiceName(templateName string, k int) string {
	if k <= 1 {
		return templateName
	}
	return templateName + "-" + strconv.Itoa(k)
}
