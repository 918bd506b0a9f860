package domain

import (
	"strings"
	"testing"
)

func TestSignPostbackRoundTrip(t *testing.T) {
	sig := SignPostback("ABCD2345", "sale", 49.99, 1700000000000, "secret-1")
	if !ValidatePostbackSignature("ABCD2345", "sale", 49.99, 1700000000000, sig, "secret-1") {
		t.Fatal("signature should validate against the same inputs")
	}
	if ValidatePostbackSignature("ABCD2345", "sale", 49.99, 1700000000000, sig, "other-secret") {
		t.Fatal("signature must not validate with a different secret")
	}
	if ValidatePostbackSignature("ABCD2345", "sale", 50.00, 1700000000000, sig, "secret-1") {
		t.Fatal("signature must not validate with a different amount")
	}
}

func TestValidatePostbackSignatureCaseAndWhitespace(t *testing.T) {
	sig := SignPostback("ABCD2345", "lead", 0, 1700000000000, "secret-1")
	wrapped := "  " + strings.ToUpper(sig) + " "
	if !ValidatePostbackSignature("ABCD2345", "lead", 0, 1700000000000, wrapped, "secret-1") {
		t.Fatal("hex case and surrounding whitespace should not break validation")
	}
}

func TestCanonicalSignaturePayloadFormat(t *testing.T) {
	got := CanonicalSignaturePayload("XYZW2345", "sale", 12.5, 1700000000000)
	want := "XYZW2345|sale|12.50|1700000000000"
	if got != want {
		t.Fatalf("payload = %q, want %q", got, want)
	}
	if got := CanonicalSignaturePayload("XYZW2345", "lead", 0, 1); got != "XYZW2345|lead|0.00|1" {
		t.Fatalf("zero amount must render as 0.00, got %q", got)
	}
}

func TestIsTimestampFreshWindowEdges(t *testing.T) {
	now := int64(1700000000000)
	window := int64(300_000)

	if !IsTimestampFresh(now-window, now, window) {
		t.Fatal("timestamp exactly at the stale edge should be fresh")
	}
	if IsTimestampFresh(now-window-1, now, window) {
		t.Fatal("timestamp one millisecond past the window should be stale")
	}
	if !IsTimestampFresh(now+window, now, window) {
		t.Fatal("future timestamp at the edge should be fresh")
	}
	if IsTimestampFresh(now+window+1, now, window) {
		t.Fatal("future timestamp past the window should be rejected")
	}
}

func TestIsTimestampFreshDefaultsWindow(t *testing.T) {
	now := int64(1700000000000)
	if !IsTimestampFresh(now-DefaultReplayWindowMillis, now, 0) {
		t.Fatal("zero window should fall back to the default replay window")
	}
	if IsTimestampFresh(now-DefaultReplayWindowMillis-1, now, 0) {
		t.Fatal("default window must still reject stale timestamps")
	}
}

func TestSHA256HexStable(t *testing.T) {
	a := SHA256Hex("vfk_test")
	b := SHA256Hex("vfk_test")
	if a != b {
		t.Fatal("digest must be deterministic")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}
