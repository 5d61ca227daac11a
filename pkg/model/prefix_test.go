package model

import "testing"

func TestParsePrefix(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"bare address", "10.0.0.1", false},
		{"cidr", "10.0.0.0/24", false},
		{"ipv4 wildcard", "0.0.0.0/0", false},
		{"ipv6", "1:2:3:4:5:6:7:8/128", false},
		{"ipv6 wildcard", "::/0", false},
		{"garbage", "not-an-address", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePrefix(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParsePrefix(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestPrefix_NormalizeIdempotent(t *testing.T) {
	p, _ := ParsePrefix("10.0.0.5/24")
	n1 := p.Normalize()
	n2 := n1.Normalize()
	if !n1.Equal(n2) {
		t.Error("Normalize should be idempotent")
	}
	if n1.String() != "10.0.0.0/24" {
		t.Errorf("Normalize should zero host bits: got %q", n1.String())
	}
}

func TestPrefix_Contains(t *testing.T) {
	parent, _ := ParsePrefix("10.0.0.0/16")
	child, _ := ParsePrefix("10.0.1.0/24")
	sibling, _ := ParsePrefix("10.1.0.0/24")

	if !parent.Contains(child) {
		t.Error("parent should contain child")
	}
	if parent.Contains(sibling) {
		t.Error("parent should not contain an address outside its range")
	}
	if child.Contains(parent) {
		t.Error("a more specific prefix should not contain a less specific one")
	}
}

func TestPrefix_CoalesceSiblingHalves(t *testing.T) {
	a, _ := ParsePrefix("1.2.3.4/32")
	b, _ := ParsePrefix("1.2.3.5/32")

	got, ok := a.Coalesce(b)
	if !ok {
		t.Fatal("sibling halves should coalesce")
	}
	if got.String() != "1.2.3.4/31" {
		t.Errorf("got %q, want 1.2.3.4/31", got.String())
	}
}

func TestPrefix_CoalesceContainment(t *testing.T) {
	wide, _ := ParsePrefix("10.0.0.0/8")
	narrow, _ := ParsePrefix("10.1.2.0/24")

	got, ok := wide.Coalesce(narrow)
	if !ok || !got.Equal(wide) {
		t.Errorf("coalesce of a containing prefix should return the wider one: got %v, ok %v", got, ok)
	}
}

func TestPrefix_CoalesceNone(t *testing.T) {
	a, _ := ParsePrefix("10.0.0.0/24")
	b, _ := ParsePrefix("192.168.0.0/24")

	if _, ok := a.Coalesce(b); ok {
		t.Error("disjoint non-sibling prefixes should not coalesce")
	}
}

func TestPrefix_CoalesceDifferentFamilies(t *testing.T) {
	v4, _ := ParsePrefix("10.0.0.0/24")
	v6, _ := ParsePrefix("::/0")

	if _, ok := v4.Coalesce(v6); ok {
		t.Error("prefixes of different families should never coalesce")
	}
}

func TestPrefix_Ordering(t *testing.T) {
	v4, _ := ParsePrefix("10.0.0.0/24")
	v6, _ := ParsePrefix("1:2:3:4::/64")

	if v4.Compare(v6) >= 0 {
		t.Error("IPv4 prefixes should sort before IPv6")
	}
	if !UnspecifiedIPv4.Equal(UnspecifiedIPv4.Normalize()) {
		t.Error("unspecified IPv4 should be stable under normalization")
	}
	if UnspecifiedIPv4.Compare(v4) >= 0 {
		t.Error("the unspecified prefix should sort first within its family")
	}
}

func TestPrefix_CoalesceReflexive(t *testing.T) {
	p, _ := ParsePrefix("10.0.0.0/24")
	got, ok := p.Coalesce(p)
	if !ok || !got.Equal(p) {
		t.Error("coalesce(p, p) should equal p")
	}
}
