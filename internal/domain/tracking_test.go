package domain

import (
	"strings"
	"testing"
)

func TestNewTrackingCodeShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code := NewTrackingCode()
		if len(code) != TrackingCodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), TrackingCodeLength)
		}
		for _, r := range code {
			if !strings.ContainsRune(trackingCodeAlphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
		seen[code] = true
	}
	if len(seen) < 45 {
		t.Fatalf("50 generated codes produced only %d distinct values", len(seen))
	}
}

func TestTrackingCodeAlphabetExcludesAmbiguousGlyphs(t *testing.T) {
	for _, r := range "0O1Il" {
		if strings.ContainsRune(trackingCodeAlphabet, r) {
			t.Fatalf("alphabet must not contain ambiguous glyph %q", r)
		}
	}
	if len(trackingCodeAlphabet) != 32 {
		t.Fatalf("alphabet length = %d, want 32", len(trackingCodeAlphabet))
	}
}

func TestNormalizeClientIP(t *testing.T) {
	cases := []struct {
		name         string
		forwardedFor string
		remoteAddr   string
		want         string
	}{
		{"remote addr with port", "", "203.0.113.7:51423", "203.0.113.7"},
		{"forwarded-for wins", "198.51.100.1, 10.0.0.1", "203.0.113.7:51423", "198.51.100.1"},
		{"forwarded-for single hop", "198.51.100.2", "", "198.51.100.2"},
		{"ipv6 mapped v4 unwrapped", "", "::ffff:203.0.113.9", "203.0.113.9"},
		{"bracketed ipv6 with port", "", "[2001:db8::1]:443", "2001:db8::1"},
		{"garbage passes through", "", "not-an-ip", "not-an-ip"},
		{"empty everything", "", "", ""},
	}
	for _, tc := range cases {
		if got := NormalizeClientIP(tc.forwardedFor, tc.remoteAddr); got != tc.want {
			t.Fatalf("%s: NormalizeClientIP(%q, %q) = %q, want %q", tc.name, tc.forwardedFor, tc.remoteAddr, got, tc.want)
		}
	}
}

func TestEventTypeClassification(t *testing.T) {
	for _, et := range []string{EventTypeSale, EventTypeLead, EventTypeClick, EventTypeSignup, EventTypeInstall, EventTypeCustom} {
		if !IsValidEventType(et) {
			t.Fatalf("%q should be a valid event type", et)
		}
	}
	if IsValidEventType("purchase") || IsValidEventType("") {
		t.Fatal("unknown event types must be invalid")
	}

	for _, et := range []string{EventTypeLead, EventTypeSignup, EventTypeInstall} {
		if !IsFixedCommissionEventType(et) {
			t.Fatalf("%q should use fixed commission", et)
		}
	}
	if IsFixedCommissionEventType(EventTypeSale) || IsFixedCommissionEventType(EventTypeCustom) {
		t.Fatal("sale and custom must not be fixed-commission types")
	}
}
