// Package svcfile parses and emits firewalld's on-disk <service> XML
// documents and layers a file-identity-keyed cache over repeated parses.
package svcfile

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zoneforge/fwctl/pkg/model"
	"github.com/zoneforge/fwctl/pkg/util"
)

// xmlService mirrors the <service> document shape for encoding/xml.
type xmlService struct {
	XMLName     xml.Name      `xml:"service"`
	Version     string        `xml:"version,attr,omitempty"`
	Short       string        `xml:"short,omitempty"`
	Description string        `xml:"description,omitempty"`
	Ports       []xmlPort     `xml:"port"`
	Protocols   []xmlProtocol `xml:"protocol"`
	SourcePorts []xmlPort     `xml:"source-port"`
	Modules     []xmlModule   `xml:"module"`
	Destination *xmlDest      `xml:"destination"`
}

type xmlPort struct {
	Port     string `xml:"port,attr"`
	Protocol string `xml:"protocol,attr"`
}

type xmlProtocol struct {
	Value string `xml:"value,attr"`
}

type xmlModule struct {
	Name string `xml:"name,attr"`
}

type xmlDest struct {
	IPv4 string `xml:"ipv4,attr,omitempty"`
	IPv6 string `xml:"ipv6,attr,omitempty"`
}

// Load parses an on-disk service document into a Service named name.
func Load(name string, r io.Reader) (*model.Service, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, util.NewFormatError(name, err)
	}

	var doc xmlService
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, util.NewFormatError(name, err)
	}
	if doc.XMLName.Local != "service" {
		return nil, util.NewFormatError(name, fmt.Errorf("unexpected root element %q", doc.XMLName.Local))
	}

	opts := model.ServiceOptions{
		Name:        name,
		Version:     normalizeOptional(doc.Version),
		ShortName:   normalizeOptional(doc.Short),
		Description: normalizeOptional(doc.Description),
	}

	ports, err := parsePorts(name, doc.Ports)
	if err != nil {
		return nil, err
	}
	opts.Ports = ports

	opts.Protocols, err = parseProtocols(name, doc.Protocols)
	if err != nil {
		return nil, err
	}

	opts.SourcePorts, err = parsePorts(name, doc.SourcePorts)
	if err != nil {
		return nil, err
	}

	opts.Modules, err = parseModules(name, doc.Modules)
	if err != nil {
		return nil, err
	}

	v4, v6, err := parseDestination(name, doc.Destination)
	if err != nil {
		return nil, err
	}
	opts.DestinationIPv4 = v4
	opts.DestinationIPv6 = v6

	// A modules-only document may have no ports/protocols at all; that is
	// valid per the invariant, provided modules is non-empty.
	svc, err := model.NewService(opts)
	if err != nil {
		return nil, util.NewFormatError(name, err)
	}
	return svc, nil
}

func normalizeOptional(s string) string {
	return strings.TrimSpace(s)
}

func parsePorts(name string, ports []xmlPort) ([]model.PortRange, error) {
	var ranges []model.PortRange
	seen := make(map[string]bool)
	for _, p := range ports {
		proto, err := model.ProtocolFromName(p.Protocol)
		if err != nil {
			return nil, util.NewFormatError(name, err)
		}
		from, to, err := parsePortSpec(p.Port)
		if err != nil {
			return nil, util.NewFormatError(name, err)
		}
		r, err := model.NewPortRange(from, to, proto)
		if err != nil {
			return nil, util.NewFormatError(name, err)
		}
		key := proto.Name() + ":" + r.String()
		if seen[key] {
			return nil, util.NewFormatError(name, fmt.Errorf("duplicate <port> entry %s/%s", r.String(), proto.Name()))
		}
		seen[key] = true
		ranges = append(ranges, r)
	}
	return ranges, nil
}

func parsePortSpec(spec string) (int, int, error) {
	spec = strings.TrimSpace(spec)
	if dash := strings.IndexByte(spec, '-'); dash >= 0 {
		from, err1 := strconv.Atoi(spec[:dash])
		to, err2 := strconv.Atoi(spec[dash+1:])
		if err1 != nil || err2 != nil {
			return 0, 0, fmt.Errorf("unparseable port range %q", spec)
		}
		return from, to, nil
	}
	v, err := strconv.Atoi(spec)
	if err != nil {
		return 0, 0, fmt.Errorf("unparseable port %q", spec)
	}
	return v, v, nil
}

func parseProtocols(name string, protocols []xmlProtocol) ([]model.Protocol, error) {
	var result []model.Protocol
	seen := make(map[string]bool)
	for _, p := range protocols {
		proto, err := model.ProtocolFromName(p.Value)
		if err != nil {
			return nil, util.NewFormatError(name, err)
		}
		if seen[proto.Name()] {
			return nil, util.NewFormatError(name, fmt.Errorf("duplicate <protocol> entry %s", proto.Name()))
		}
		seen[proto.Name()] = true
		result = append(result, proto)
	}
	return result, nil
}

func parseModules(name string, modules []xmlModule) ([]string, error) {
	var result []string
	seen := make(map[string]bool)
	for _, m := range modules {
		if seen[m.Name] {
			return nil, util.NewFormatError(name, fmt.Errorf("duplicate <module> entry %s", m.Name))
		}
		seen[m.Name] = true
		result = append(result, m.Name)
	}
	return result, nil
}

func parseDestination(name string, d *xmlDest) (*model.Prefix, *model.Prefix, error) {
	if d == nil {
		v4 := model.UnspecifiedIPv4
		v6 := model.UnspecifiedIPv6
		return &v4, &v6, nil
	}
	if d.IPv4 == "" && d.IPv6 == "" {
		return nil, nil, util.NewFormatError(name, fmt.Errorf("<destination> must carry an ipv4 or ipv6 attribute"))
	}
	var v4, v6 *model.Prefix
	if d.IPv4 != "" {
		p, err := model.ParsePrefix(d.IPv4)
		if err != nil {
			return nil, nil, util.NewFormatError(name, err)
		}
		if p.Family() != model.IPv4 {
			return nil, nil, util.NewFormatError(name, fmt.Errorf("destination ipv4 attribute %q is not IPv4", d.IPv4))
		}
		v4 = &p
	}
	if d.IPv6 != "" {
		p, err := model.ParsePrefix(d.IPv6)
		if err != nil {
			return nil, nil, util.NewFormatError(name, err)
		}
		if p.Family() != model.IPv6 {
			return nil, nil, util.NewFormatError(name, fmt.Errorf("destination ipv6 attribute %q is not IPv6", d.IPv6))
		}
		v6 = &p
	}
	return v4, v6, nil
}

// Emit serializes svc as a <service> XML document, two-space indented,
// UTF-8 encoded. The <destination> element is omitted when both
// destinations equal their family's wildcard, since a missing
// <destination> always reloads as both families unspecified; it is also
// omitted when both are absent, which NewService never allows. Any other
// combination — including a single wildcarded family with the other
// absent — is emitted explicitly.
func Emit(svc *model.Service, w io.Writer) error {
	doc := xmlService{
		XMLName: xml.Name{Local: "service"},
		Version: svc.Version(),
		Short:   svc.ShortName(),
	}
	if desc := svc.Description(); desc != "" {
		doc.Description = desc
	}
	for _, r := range svc.Ports() {
		doc.Ports = append(doc.Ports, xmlPort{Port: r.String(), Protocol: r.Protocol().Name()})
	}
	for _, p := range svc.Protocols() {
		doc.Protocols = append(doc.Protocols, xmlProtocol{Value: p.Name()})
	}
	for _, r := range svc.SourcePorts() {
		doc.SourcePorts = append(doc.SourcePorts, xmlPort{Port: r.String(), Protocol: r.Protocol().Name()})
	}
	for _, m := range svc.Modules() {
		doc.Modules = append(doc.Modules, xmlModule{Name: m})
	}

	v4, v6 := svc.DestinationIPv4(), svc.DestinationIPv6()
	bothAbsent := v4 == nil && v6 == nil
	bothWildcard := v4 != nil && v4.Equal(model.UnspecifiedIPv4) && v6 != nil && v6.Equal(model.UnspecifiedIPv6)
	omit := bothAbsent || bothWildcard
	if !omit {
		dest := &xmlDest{}
		if v4 != nil {
			dest.IPv4 = v4.String()
		}
		if v6 != nil {
			dest.IPv6 = v6.String()
		}
		doc.Destination = dest
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
