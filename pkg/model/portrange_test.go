package model

import (
	"errors"
	"testing"

	"github.com/zoneforge/fwctl/pkg/util"
)

func TestNewPortRange_Invalid(t *testing.T) {
	tests := []struct {
		name string
		from int
		to   int
	}{
		{"from below 1", 0, 10},
		{"to above 65535", 1, 65536},
		{"from greater than to", 10, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPortRange(tt.from, tt.to, ProtocolTCP)
			if !errors.Is(err, util.ErrInvalidRange) {
				t.Errorf("NewPortRange(%d, %d) should fail with ErrInvalidRange, got %v", tt.from, tt.to, err)
			}
		})
	}
}

func TestPortRange_String(t *testing.T) {
	single, _ := NewPortRange(22, 22, ProtocolTCP)
	if single.String() != "22" {
		t.Errorf("single port String() = %q, want %q", single.String(), "22")
	}

	ranged, _ := NewPortRange(22, 23, ProtocolTCP)
	if ranged.String() != "22-23" {
		t.Errorf("ranged String() = %q, want %q", ranged.String(), "22-23")
	}
}

func TestPortRange_Coalesce(t *testing.T) {
	tests := []struct {
		name     string
		a, b     [2]int
		protoA   Protocol
		protoB   Protocol
		wantOK   bool
		wantFrom int
		wantTo   int
	}{
		{"touching", [2]int{1, 5}, [2]int{6, 10}, ProtocolTCP, ProtocolTCP, true, 1, 10},
		{"overlapping", [2]int{1, 10}, [2]int{5, 15}, ProtocolTCP, ProtocolTCP, true, 1, 15},
		{"disjoint", [2]int{1, 5}, [2]int{10, 15}, ProtocolTCP, ProtocolTCP, false, 0, 0},
		{"different protocols", [2]int{1, 5}, [2]int{6, 10}, ProtocolTCP, ProtocolUDP, false, 0, 0},
		{"identical", [2]int{22, 22}, [2]int{22, 22}, ProtocolTCP, ProtocolTCP, true, 22, 22},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := NewPortRange(tt.a[0], tt.a[1], tt.protoA)
			b, _ := NewPortRange(tt.b[0], tt.b[1], tt.protoB)

			got, ok := a.Coalesce(b)
			if ok != tt.wantOK {
				t.Fatalf("Coalesce() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && (got.From() != tt.wantFrom || got.To() != tt.wantTo) {
				t.Errorf("Coalesce() = [%d,%d], want [%d,%d]", got.From(), got.To(), tt.wantFrom, tt.wantTo)
			}

			// symmetry
			got2, ok2 := b.Coalesce(a)
			if ok2 != ok || (ok && !got.Equal(got2)) {
				t.Errorf("Coalesce() is not symmetric for %v, %v", a, b)
			}
		})
	}
}

func TestPortRange_CoalesceReflexive(t *testing.T) {
	r, _ := NewPortRange(10, 20, ProtocolUDP)
	got, ok := r.Coalesce(r)
	if !ok || !got.Equal(r) {
		t.Errorf("Coalesce(r, r) should equal r")
	}
}
