package model

import (
	"errors"
	"testing"

	"github.com/zoneforge/fwctl/pkg/util"
)

func sshOptions(t *testing.T) ServiceOptions {
	t.Helper()
	v4 := UnspecifiedIPv4
	v6 := UnspecifiedIPv6
	return ServiceOptions{
		Name:            "ssh",
		Ports:           []PortRange{mustPortRange(t, 22, 22, ProtocolTCP)},
		DestinationIPv4: &v4,
		DestinationIPv6: &v6,
	}
}

func TestNewService_Valid(t *testing.T) {
	svc, err := NewService(sshOptions(t))
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	if svc.Name() != "ssh" {
		t.Errorf("Name() = %q, want %q", svc.Name(), "ssh")
	}
	if len(svc.Targets()) != 2 {
		t.Errorf("expected 2 derived targets (one per destination family), got %d", len(svc.Targets()))
	}
}

func TestNewService_RequiresPortsProtocolsOrModules(t *testing.T) {
	v4 := UnspecifiedIPv4
	_, err := NewService(ServiceOptions{Name: "empty", DestinationIPv4: &v4})
	if !errors.Is(err, util.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestNewService_RequiresADestination(t *testing.T) {
	_, err := NewService(ServiceOptions{
		Name:  "no-dest",
		Ports: []PortRange{mustPortRange(t, 22, 22, ProtocolTCP)},
	})
	if !errors.Is(err, util.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestNewService_RejectsMismatchedFamily(t *testing.T) {
	v6 := UnspecifiedIPv6
	_, err := NewService(ServiceOptions{
		Name:            "bad-family",
		Ports:           []PortRange{mustPortRange(t, 22, 22, ProtocolTCP)},
		DestinationIPv4: &v6,
	})
	if !errors.Is(err, util.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for mismatched family, got %v", err)
	}
}

func TestNewService_RejectsDuplicatePorts(t *testing.T) {
	v4 := UnspecifiedIPv4
	dup := mustPortRange(t, 22, 22, ProtocolTCP)
	_, err := NewService(ServiceOptions{
		Name:            "dup",
		Ports:           []PortRange{dup, dup},
		DestinationIPv4: &v4,
	})
	if !errors.Is(err, util.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for duplicate ports, got %v", err)
	}
}

func TestService_ModulesOnlyHasEmptyTargets(t *testing.T) {
	v4 := UnspecifiedIPv4
	svc, err := NewService(ServiceOptions{
		Name:            "ftp",
		Modules:         []string{"nf_conntrack_ftp"},
		DestinationIPv4: &v4,
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	if len(svc.Targets()) != 0 {
		t.Errorf("modules-only service should produce empty targets, got %d", len(svc.Targets()))
	}
}

func TestService_EqualIgnoresOrder(t *testing.T) {
	v4 := UnspecifiedIPv4
	tcp2223 := mustPortRange(t, 22, 23, ProtocolTCP)
	tcp8080 := mustPortRange(t, 8080, 8080, ProtocolTCP)

	a, err := NewService(ServiceOptions{
		Name:            "svc",
		Ports:           []PortRange{tcp2223, tcp8080},
		DestinationIPv4: &v4,
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	b, err := NewService(ServiceOptions{
		Name:            "svc",
		Ports:           []PortRange{tcp8080, tcp2223},
		DestinationIPv4: &v4,
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	if !a.Equal(b) {
		t.Error("services with the same port set in different order should be equal")
	}
}
