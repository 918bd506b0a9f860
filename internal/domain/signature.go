package domain

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// DefaultReplayWindowMillis bounds how far a postback timestamp may drift from
// server time, in either direction, before the signature is refused.
const DefaultReplayWindowMillis = 300_000

// SignPostback computes the postback signature: HMAC-SHA256, hex encoded, over
// the canonical payload
//
//	trackingCode|eventType|saleAmount|timestampMillis
//
// with saleAmount rendered to exactly two decimals ("0.00" when absent).
// Client integrations must build the identical string; the field order and
// the pipe delimiter are part of the wire contract.
func SignPostback(trackingCode, eventType string, saleAmount float64, timestampMillis int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(CanonicalSignaturePayload(trackingCode, eventType, saleAmount, timestampMillis)))
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidatePostbackSignature recomputes and compares in constant time.
func ValidatePostbackSignature(trackingCode, eventType string, saleAmount float64, timestampMillis int64, signature, secret string) bool {
	expected := SignPostback(trackingCode, eventType, saleAmount, timestampMillis, secret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

// IsTimestampFresh accepts timestamps within a symmetric window around now,
// rejecting both stale and future-dated postbacks.
func IsTimestampFresh(timestampMillis, nowMillis, windowMillis int64) bool {
	if windowMillis <= 0 {
		windowMillis = DefaultReplayWindowMillis
	}
	delta := nowMillis - timestampMillis
	if delta < 0 {
		delta = -delta
	}
	return delta <= windowMillis
}

func CanonicalSignaturePayload(trackingCode, eventType string, saleAmount float64, timestampMillis int64) string {
	return strings.Join([]string{
		trackingCode,
		eventType,
		strconv.FormatFloat(saleAmount, 'f', 2, 64),
		strconv.FormatInt(timestampMillis, 10),
	}, "|")
}

// SHA256Hex is the digest used to index API keys at rest. Keys are looked up
// by value, which rules out salted hashes.
func SHA256Hex(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}
