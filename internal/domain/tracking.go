package domain

import (
	"crypto/rand"
	"net"
	"strings"
	"time"
)

const (
	RelationshipStatusPending   = "pending"
	RelationshipStatusApproved  = "approved"
	RelationshipStatusActive    = "active"
	RelationshipStatusPaused    = "paused"
	RelationshipStatusCompleted = "completed"
	RelationshipStatusRejected  = "rejected"
)

const (
	EventTypeSale    = "sale"
	EventTypeLead    = "lead"
	EventTypeClick   = "click"
	EventTypeSignup  = "signup"
	EventTypeInstall = "install"
	EventTypeCustom  = "custom"
)

const (
	ConversionSourcePostback = "postback"
	ConversionSourcePixel    = "pixel"
	ConversionSourceSnippet  = "snippet"
)

const (
	CommissionTypePercentage = "percentage"
	CommissionTypeFixed      = "fixed"
)

type Relationship struct {
	RelationshipID string    `json:"relationship_id"`
	CreatorID      string    `json:"creator_id"`
	OfferID        string    `json:"offer_id"`
	CompanyID      string    `json:"company_id"`
	TrackingCode   string    `json:"tracking_code"`
	DestinationURL string    `json:"destination_url"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

type ClickEvent struct {
	ClickID        string    `json:"click_id"`
	RelationshipID string    `json:"relationship_id"`
	ClientIP       string    `json:"client_ip"`
	UserAgent      string    `json:"user_agent"`
	Referrer       string    `json:"referrer"`
	UTMSource      string    `json:"utm_source,omitempty"`
	UTMMedium      string    `json:"utm_medium,omitempty"`
	UTMCampaign    string    `json:"utm_campaign,omitempty"`
	UTMTerm        string    `json:"utm_term,omitempty"`
	UTMContent     string    `json:"utm_content,omitempty"`
	FraudScore     int       `json:"fraud_score"`
	FraudFlags     []string  `json:"fraud_flags,omitempty"`
	Excluded       bool      `json:"excluded"`
	ClickedAt      time.Time `json:"clicked_at"`
}

type ConversionEvent struct {
	ConversionID    string    `json:"conversion_id"`
	RelationshipID  string    `json:"relationship_id"`
	EventType       string    `json:"event_type"`
	SaleAmount      float64   `json:"sale_amount,omitempty"`
	Currency        string    `json:"currency"`
	ExternalOrderID string    `json:"external_order_id,omitempty"`
	Source          string    `json:"source"`
	ReceivedAt      time.Time `json:"received_at"`
}

type FeeQuote struct {
	GrossAmount             float64 `json:"gross_amount"`
	PlatformFeePercentage   float64 `json:"platform_fee_percentage"`
	PlatformFeeAmount       float64 `json:"platform_fee_amount"`
	ProcessingFeePercentage float64 `json:"processing_fee_percentage"`
	ProcessingFeeAmount     float64 `json:"processing_fee_amount"`
	NetAmount               float64 `json:"net_amount"`
	IsCustomFee             bool    `json:"is_custom_fee"`
}

type CompanyCredential struct {
	CompanyID    string    `json:"company_id"`
	APIKeyDigest string    `json:"api_key_digest"`
	SharedSecret string    `json:"shared_secret,omitempty"`
	RotatedAt    time.Time `json:"rotated_at"`
	CreatedAt    time.Time `json:"created_at"`
}

type Offer struct {
	OfferID               string  `json:"offer_id"`
	CommissionType        string  `json:"commission_type"`
	FixedCommissionAmount float64 `json:"fixed_commission_amount,omitempty"`
}

type GlobalFeeSettings struct {
	PlatformFeePercentage   float64 `json:"platform_fee_percentage"`
	ProcessingFeePercentage float64 `json:"processing_fee_percentage"`
}

// trackingCodeAlphabet omits 0/O and 1/I so codes survive being read aloud or
// retyped from a screenshot. Exactly 32 symbols, so reducing a random byte
// modulo the alphabet stays unbiased. 32^8 keeps collisions rare; the
// relationship store's unique constraint catches the rest and the caller
// regenerates.
const trackingCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const TrackingCodeLength = 8

func NewTrackingCode() string {
	buf := make([]byte, TrackingCodeLength)
	_, _ = rand.Read(buf)
	out := make([]byte, TrackingCodeLength)
	for i, b := range buf {
		out[i] = trackingCodeAlphabet[int(b)%len(trackingCodeAlphabet)]
	}
	return string(out)
}

func IsValidEventType(eventType string) bool {
	switch eventType {
	case EventTypeSale, EventTypeLead, EventTypeClick, EventTypeSignup, EventTypeInstall, EventTypeCustom:
		return true
	default:
		return false
	}
}

// IsFixedCommissionEventType reports whether the reported sale amount is
// ignored in favor of the offer's configured fixed amount.
func IsFixedCommissionEventType(eventType string) bool {
	switch eventType {
	case EventTypeLead, EventTypeSignup, EventTypeInstall:
		return true
	default:
		return false
	}
}

func IsValidConversionSource(source string) bool {
	switch source {
	case ConversionSourcePostback, ConversionSourcePixel, ConversionSourceSnippet:
		return true
	default:
		return false
	}
}

// NormalizeClientIP reduces a proxied remote address to the originating host:
// first X-Forwarded-For hop wins, ports are stripped, and IPv6-mapped IPv4
// addresses are unwrapped to their dotted-quad form.
func NormalizeClientIP(forwardedFor, remoteAddr string) string {
	candidate := strings.TrimSpace(remoteAddr)
	if raw := strings.TrimSpace(forwardedFor); raw != "" {
		parts := strings.Split(raw, ",")
		candidate = strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(candidate); err == nil && host != "" {
		candidate = host
	}
	candidate = strings.Trim(candidate, "[]")
	ip := net.ParseIP(candidate)
	if ip == nil {
		return candidate
	}
	if v4 := ip.To4(); v4 != nil {
		return v4.String()
	}
	return ip.String()
}
