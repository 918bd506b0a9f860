package contracts

import (
	"encoding/json"
	"time"
)

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	EventClass       string          `json:"event_class,omitempty"`
	OccurredAt       time.Time       `json:"occurred_at"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    string          `json:"schema_version"`
	Data             json.RawMessage `json:"data"`
}

type DLQRecord struct {
	OriginalEvent EventEnvelope `json:"original_event"`
	ErrorSummary  string        `json:"error_summary"`
	RetryCount    int           `json:"retry_count"`
	FirstSeenAt   time.Time     `json:"first_seen_at"`
	LastErrorAt   time.Time     `json:"last_error_at"`
	SourceTopic   string        `json:"source_topic,omitempty"`
	DLQTopic      string        `json:"dlq_topic,omitempty"`
	TraceID       string        `json:"trace_id,omitempty"`
}

type ClickRecordedPayload struct {
	RelationshipID string   `json:"relationship_id"`
	ClickID        string   `json:"click_id"`
	FraudScore     int      `json:"fraud_score"`
	FraudFlags     []string `json:"fraud_flags,omitempty"`
	Excluded       bool     `json:"excluded"`
	RecordedAt     string   `json:"recorded_at"`
}

type ConversionRecordedPayload struct {
	RelationshipID  string  `json:"relationship_id"`
	ConversionID    string  `json:"conversion_id"`
	EventType       string  `json:"event_type"`
	GrossAmount     float64 `json:"gross_amount"`
	Currency        string  `json:"currency"`
	Source          string  `json:"source"`
	ExternalOrderID string  `json:"external_order_id,omitempty"`
	RecordedAt      string  `json:"recorded_at"`
}

type PaymentPendingPayload struct {
	RelationshipID    string  `json:"relationship_id"`
	ConversionID      string  `json:"conversion_id"`
	PaymentID         string  `json:"payment_id"`
	GrossAmount       float64 `json:"gross_amount"`
	PlatformFeeAmount float64 `json:"platform_fee_amount"`
	NetAmount         float64 `json:"net_amount"`
	IsCustomFee       bool    `json:"is_custom_fee"`
	RecordedAt        string  `json:"recorded_at"`
}
