package domain

const (
	CanonicalEventClassDomain        = "domain"
	CanonicalEventClassAnalyticsOnly = "analytics_only"
	CanonicalEventClassOps           = "ops"
)

const (
	EventTrackingClickRecorded      = "tracking.click.recorded"
	EventTrackingConversionRecorded = "tracking.conversion.recorded"
	EventTrackingPaymentPending     = "tracking.payment.pending"
)

func IsCanonicalEmittedEvent(eventType string) bool {
	switch eventType {
	case EventTrackingClickRecorded, EventTrackingConversionRecorded, EventTrackingPaymentPending:
		return true
	default:
		return false
	}
}

func CanonicalEventClass(eventType string) string {
	switch eventType {
	case EventTrackingClickRecorded:
		return CanonicalEventClassAnalyticsOnly
	case EventTrackingConversionRecorded, EventTrackingPaymentPending:
		return CanonicalEventClassDomain
	default:
		return ""
	}
}

func CanonicalPartitionKeyPath(eventType string) string {
	if IsCanonicalEmittedEvent(eventType) {
		return "data.relationship_id"
	}
	return ""
}
