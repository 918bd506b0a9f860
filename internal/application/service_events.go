package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/contracts"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/ports"
)

func (s *Service) FlushOutbox(ctx context.Context) error {
	if s.outbox == nil {
		return nil
	}
	pending, err := s.outbox.ListPending(ctx, s.cfg.OutboxFlushBatchSize)
	if err != nil {
		return err
	}
	for _, rec := range pending {
		now := s.nowFn()
		switch rec.EventClass {
		case domain.CanonicalEventClassDomain:
			if s.domainEvents != nil {
				if err := s.domainEvents.PublishDomain(ctx, rec.Envelope); err != nil {
					if s.dlq != nil {
						n := s.nowFn()
						_ = s.dlq.PublishDLQ(ctx, contracts.DLQRecord{OriginalEvent: rec.Envelope, ErrorSummary: err.Error(), RetryCount: 1, FirstSeenAt: n, LastErrorAt: n, SourceTopic: rec.Envelope.EventType, DLQTopic: "tracking-attribution-service.dlq", TraceID: rec.Envelope.TraceID})
					}
					return err
				}
			}
		case domain.CanonicalEventClassAnalyticsOnly:
			if s.analytics != nil {
				_ = s.analytics.PublishAnalytics(ctx, rec.Envelope)
			}
		default:
			return fmt.Errorf("%w: %s", domain.ErrUnsupportedEventClass, rec.EventClass)
		}
		if err := s.outbox.MarkSent(ctx, rec.RecordID, now); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) enqueueEvent(ctx context.Context, eventType, traceID string, data any, relationshipID string, now time.Time) error {
	if s.outbox == nil {
		return nil
	}
	if !domain.IsCanonicalEmittedEvent(eventType) {
		return domain.ErrUnsupportedEventType
	}
	b, err := json.Marshal(data)
	if err != nil {
		return domain.ErrInvalidInput
	}
	if strings.TrimSpace(traceID) == "" {
		traceID = uuid.NewString()
	}
	env := contracts.EventEnvelope{EventID: uuid.NewString(), EventType: eventType, EventClass: domain.CanonicalEventClass(eventType), OccurredAt: now, PartitionKeyPath: domain.CanonicalPartitionKeyPath(eventType), PartitionKey: relationshipID, SourceService: s.cfg.ServiceName, TraceID: traceID, SchemaVersion: "v1", Data: b}
	return s.outbox.Enqueue(ctx, ports.OutboxRecord{RecordID: uuid.NewString(), EventClass: env.EventClass, Envelope: env, CreatedAt: now})
}

func (s *Service) enqueueClickRecorded(ctx context.Context, click domain.ClickEvent, traceID string, now time.Time) error {
	return s.enqueueEvent(ctx, domain.EventTrackingClickRecorded, traceID, contracts.ClickRecordedPayload{
		RelationshipID: click.RelationshipID,
		ClickID:        click.ClickID,
		FraudScore:     click.FraudScore,
		FraudFlags:     click.FraudFlags,
		Excluded:       click.Excluded,
		RecordedAt:     click.ClickedAt.UTC().Format(time.RFC3339),
	}, click.RelationshipID, now)
}

func (s *Service) enqueueConversionRecorded(ctx context.Context, row domain.ConversionEvent, traceID string, now time.Time) error {
	return s.enqueueEvent(ctx, domain.EventTrackingConversionRecorded, traceID, contracts.ConversionRecordedPayload{
		RelationshipID:  row.RelationshipID,
		ConversionID:    row.ConversionID,
		EventType:       row.EventType,
		GrossAmount:     row.SaleAmount,
		Currency:        row.Currency,
		Source:          row.Source,
		ExternalOrderID: row.ExternalOrderID,
		RecordedAt:      row.ReceivedAt.UTC().Format(time.RFC3339),
	}, row.RelationshipID, now)
}

func (s *Service) enqueuePaymentPending(ctx context.Context, row domain.ConversionEvent, quote domain.FeeQuote, paymentID, traceID string, now time.Time) error {
	return s.enqueueEvent(ctx, domain.EventTrackingPaymentPending, traceID, contracts.PaymentPendingPayload{
		RelationshipID:    row.RelationshipID,
		ConversionID:      row.ConversionID,
		PaymentID:         paymentID,
		GrossAmount:       quote.GrossAmount,
		PlatformFeeAmount: quote.PlatformFeeAmount,
		NetAmount:         quote.NetAmount,
		IsCustomFee:       quote.IsCustomFee,
		RecordedAt:        row.ReceivedAt.UTC().Format(time.RFC3339),
	}, row.RelationshipID, now)
}
