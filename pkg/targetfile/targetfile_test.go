package targetfile

import (
	"errors"
	"testing"

	"github.com/zoneforge/fwctl/pkg/util"
)

func TestParse_PortRange(t *testing.T) {
	doc := `
targets:
  - destination: 10.0.0.0/24
    protocol: tcp
    port: 22
  - destination: 10.0.0.0/24
    protocol: tcp
    port: 8000
    port_end: 8010
`
	targets, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("len(targets) = %d, want 2", len(targets))
	}
	if targets[0].Destination().String() != "10.0.0.0/24" {
		t.Errorf("Destination() = %v, want 10.0.0.0/24", targets[0].Destination())
	}
}

func TestParse_BareProtocol(t *testing.T) {
	doc := `
targets:
  - destination: 0.0.0.0/0
    protocol: esp
`
	targets, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(targets) != 1 {
		t.Fatalf("len(targets) = %d, want 1", len(targets))
	}
	if !targets[0].Atom().IsBare() {
		t.Error("expected a bare-protocol atom for esp with no port")
	}
}

func TestParse_MissingDestination(t *testing.T) {
	doc := `
targets:
  - protocol: tcp
    port: 22
`
	_, err := Parse([]byte(doc))
	if !errors.Is(err, util.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for missing destination, got %v", err)
	}
}

func TestParse_UnknownProtocol(t *testing.T) {
	doc := `
targets:
  - destination: 10.0.0.0/24
    protocol: not-a-protocol
    port: 22
`
	_, err := Parse([]byte(doc))
	if !errors.Is(err, util.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for unknown protocol, got %v", err)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("not: valid: yaml: ["))
	if !errors.Is(err, util.ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat for malformed YAML, got %v", err)
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	targets, err := Parse([]byte(``))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(targets) != 0 {
		t.Errorf("expected no targets for an empty document, got %d", len(targets))
	}
}
