// Package targetfile loads a YAML document listing (destination, protocol,
// port-range) triples into the optimizer's Target iterable, the CLI's way of
// feeding `fwctl optimize` from a file instead of constructing targets in
// code.
package targetfile

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/zoneforge/fwctl/pkg/model"
	"github.com/zoneforge/fwctl/pkg/util"
)

// entry is one line of a targets.yaml document.
type entry struct {
	Destination string `yaml:"destination"`
	Protocol    string `yaml:"protocol"`
	// Port and PortEnd together describe a range; Port alone describes a
	// single port. Both absent means the protocol itself is the atom (no
	// port component, e.g. "esp").
	Port    int `yaml:"port,omitempty"`
	PortEnd int `yaml:"port_end,omitempty"`
}

// document is the top-level targets.yaml shape:
//
//	targets:
//	  - destination: 10.0.0.0/24
//	    protocol: tcp
//	    port: 22
//	  - destination: 0.0.0.0/0
//	    protocol: esp
type document struct {
	Targets []entry `yaml:"targets"`
}

// Load reads and parses a targets.yaml file at path into a flat list of
// Targets suitable for Optimize.
func Load(path string) ([]model.Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses targets.yaml document bytes into Targets.
func Parse(data []byte) ([]model.Target, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, util.NewFormatError("targets.yaml", err)
	}

	targets := make([]model.Target, 0, len(doc.Targets))
	for i, e := range doc.Targets {
		t, err := e.toTarget()
		if err != nil {
			return nil, &entryError{index: i, cause: err}
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// entryError attributes a validation failure to its entry index while
// preserving the underlying error for errors.Is/errors.As.
type entryError struct {
	index int
	cause error
}

func (e *entryError) Error() string {
	return "entry " + strconv.Itoa(e.index) + ": " + e.cause.Error()
}

func (e *entryError) Unwrap() error { return e.cause }

func (e entry) toTarget() (model.Target, error) {
	if e.Destination == "" {
		return model.Target{}, util.NewValidationError("destination is required")
	}
	if e.Protocol == "" {
		return model.Target{}, util.NewValidationError("protocol is required")
	}

	dest, err := model.ParsePrefix(e.Destination)
	if err != nil {
		return model.Target{}, err
	}

	proto, err := model.ProtocolFromName(e.Protocol)
	if err != nil {
		return model.Target{}, err
	}

	if e.Port == 0 && e.PortEnd == 0 {
		return model.NewTarget(dest, model.OfProtocol(proto)), nil
	}

	to := e.PortEnd
	if to == 0 {
		to = e.Port
	}
	r, err := model.NewPortRange(e.Port, to, proto)
	if err != nil {
		return model.Target{}, err
	}
	return model.NewTarget(dest, model.OfPortRange(r)), nil
}
