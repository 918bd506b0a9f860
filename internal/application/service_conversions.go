package application

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/domain"
)

// RecordPostbackConversion handles the server-to-server channel: the only one
// with message-authenticity guarantees. The API key identifies the company;
// when that company has a shared secret configured, a fresh timestamp and a
// valid signature are mandatory.
func (s *Service) RecordPostbackConversion(ctx context.Context, in PostbackInput) (ConversionAck, error) {
	apiKey := strings.TrimSpace(in.APIKey)
	if apiKey == "" {
		return ConversionAck{}, domain.ErrAuthenticationFailed
	}
	cred, err := s.credentials.GetByAPIKeyDigest(ctx, domain.SHA256Hex(apiKey))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ConversionAck{}, domain.ErrAuthenticationFailed
		}
		return ConversionAck{}, domain.ErrDownstreamUnavailable
	}

	if cred.SharedSecret != "" {
		if in.TimestampMillis <= 0 || !domain.IsTimestampFresh(in.TimestampMillis, s.nowFn().UnixMilli(), s.cfg.ReplayWindow.Milliseconds()) {
			return ConversionAck{}, domain.ErrTimestampExpired
		}
		signedAmount := 0.0
		if in.SaleAmount != nil {
			signedAmount = *in.SaleAmount
		}
		if strings.TrimSpace(in.Signature) == "" ||
			!domain.ValidatePostbackSignature(strings.TrimSpace(in.TrackingCode), strings.TrimSpace(in.EventType), signedAmount, in.TimestampMillis, in.Signature, cred.SharedSecret) {
			return ConversionAck{}, domain.ErrSignatureInvalid
		}
	}

	rel, err := s.ResolveTrackingCode(ctx, in.TrackingCode)
	if err != nil {
		return ConversionAck{}, err
	}
	// A key only reports against its own company's relationships.
	if rel.CompanyID != cred.CompanyID {
		return ConversionAck{}, domain.ErrForbidden
	}
	return s.recordConversion(ctx, rel, in.EventType, in.SaleAmount, in.Currency, in.OrderID, domain.ConversionSourcePostback)
}

// RecordPixelConversion is the unauthenticated image channel. Callers return
// the transparent pixel no matter what happens here; errors are for logs only.
func (s *Service) RecordPixelConversion(ctx context.Context, in PixelInput) (ConversionAck, error) {
	return s.recordBrowserConversion(ctx, in, domain.ConversionSourcePixel)
}

// RecordSnippetConversion is the JS beacon channel; identical to the pixel
// from this side of the wire.
func (s *Service) RecordSnippetConversion(ctx context.Context, in PixelInput) (ConversionAck, error) {
	return s.recordBrowserConversion(ctx, in, domain.ConversionSourceSnippet)
}

func (s *Service) recordBrowserConversion(ctx context.Context, in PixelInput, source string) (ConversionAck, error) {
	rel, err := s.ResolveTrackingCode(ctx, in.TrackingCode)
	if err != nil {
		return ConversionAck{}, err
	}
	eventType := in.EventType
	if strings.TrimSpace(eventType) == "" {
		eventType = domain.EventTypeSale
	}
	return s.recordConversion(ctx, rel, eventType, in.SaleAmount, "", in.OrderID, source)
}

// recordConversion is the single internal handler all three ingestion shapes
// converge on.
func (s *Service) recordConversion(ctx context.Context, rel domain.Relationship, eventType string, saleAmount *float64, currency, orderID, source string) (ConversionAck, error) {
	eventType = strings.ToLower(strings.TrimSpace(eventType))
	if !domain.IsValidEventType(eventType) {
		return ConversionAck{}, domain.ErrInvalidEventType
	}
	if eventType == domain.EventTypeClick {
		return ConversionAck{}, domain.ErrClickNotReportable
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}
	if len(currency) != 3 {
		return ConversionAck{}, domain.ErrValidationFailed
	}
	if saleAmount != nil && (*saleAmount < 0 || math.IsNaN(*saleAmount) || math.IsInf(*saleAmount, 0)) {
		return ConversionAck{}, domain.ErrValidationFailed
	}

	gross, err := s.effectiveSaleAmount(ctx, rel.OfferID, eventType, saleAmount)
	if err != nil {
		return ConversionAck{}, err
	}

	quote, err := s.ComputeFees(ctx, gross, rel.CompanyID)
	if err != nil {
		return ConversionAck{}, err
	}

	now := s.nowFn()
	conversionID := "conv_" + uuid.NewString()

	row := domain.ConversionEvent{
		ConversionID:    conversionID,
		RelationshipID:  rel.RelationshipID,
		EventType:       eventType,
		SaleAmount:      gross,
		Currency:        currency,
		ExternalOrderID: strings.TrimSpace(orderID),
		Source:          source,
		ReceivedAt:      now,
	}
	// The conversion row is stored before the payment call: a pending payment
	// must never exist for a conversion that was not recorded.
	if err := s.conversions.Create(ctx, row); err != nil {
		return ConversionAck{}, err
	}

	traceID := uuid.NewString()
	if err := s.enqueueConversionRecorded(ctx, row, traceID, now); err != nil {
		slog.WarnContext(ctx, "conversion event not enqueued",
			"module", "application",
			"operation", "enqueue_conversion_recorded",
			"outcome", "failure",
			"conversion_id", conversionID,
			"error", err,
		)
	}

	paymentCtx, cancel := context.WithTimeout(ctx, s.cfg.DownstreamTimeout)
	paymentID, err := s.payments.CreatePendingPayment(paymentCtx, rel.RelationshipID, quote, conversionID)
	cancel()
	if err != nil {
		slog.WarnContext(ctx, "pending payment not created for stored conversion",
			"module", "application",
			"operation", "create_pending_payment",
			"outcome", "failure",
			"conversion_id", conversionID,
			"relationship_id", rel.RelationshipID,
			"error", err,
		)
		return ConversionAck{}, domain.ErrDownstreamUnavailable
	}
	if err := s.enqueuePaymentPending(ctx, row, quote, paymentID, traceID, now); err != nil {
		slog.WarnContext(ctx, "payment event not enqueued",
			"module", "application",
			"operation", "enqueue_payment_pending",
			"outcome", "failure",
			"conversion_id", conversionID,
			"payment_id", paymentID,
			"error", err,
		)
	}

	return ConversionAck{
		ConversionID: conversionID,
		EventType:    eventType,
		TrackingCode: rel.TrackingCode,
		OrderID:      row.ExternalOrderID,
	}, nil
}

// effectiveSaleAmount picks the amount commission math runs on: fixed-payout
// event types take the offer's configured amount and ignore whatever the
// reporter sent; everything else takes the reported amount.
func (s *Service) effectiveSaleAmount(ctx context.Context, offerID, eventType string, reported *float64) (float64, error) {
	if domain.IsFixedCommissionEventType(eventType) {
		if s.offers == nil {
			return 0, domain.ErrDownstreamUnavailable
		}
		offerCtx, cancel := context.WithTimeout(ctx, s.cfg.DownstreamTimeout)
		offer, err := s.offers.GetOffer(offerCtx, offerID)
		cancel()
		if err != nil {
			return 0, domain.ErrDownstreamUnavailable
		}
		return offer.FixedCommissionAmount, nil
	}
	if reported == nil {
		return 0, nil
	}
	return *reported, nil
}
