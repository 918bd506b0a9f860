package ports

import (
	"context"
	"time"

	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/contracts"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/domain"
)

type RelationshipRepository interface {
	Create(ctx context.Context, row domain.Relationship) error
	GetByID(ctx context.Context, relationshipID string) (domain.Relationship, error)
	GetByTrackingCode(ctx context.Context, code string) (domain.Relationship, error)
	UpdateStatus(ctx context.Context, relationshipID, status string, at time.Time) error
}

type ClickEventRepository interface {
	Append(ctx context.Context, row domain.ClickEvent) error
	ListByRelationshipID(ctx context.Context, relationshipID string, limit int) ([]domain.ClickEvent, error)
	// CountRecentByIPAndRelationship backs the velocity heuristic when no
	// shared counter store is configured.
	CountRecentByIPAndRelationship(ctx context.Context, clientIP, relationshipID string, since time.Time) (int, error)
}

type ConversionEventRepository interface {
	Create(ctx context.Context, row domain.ConversionEvent) error
	GetByID(ctx context.Context, conversionID string) (domain.ConversionEvent, error)
	ListByRelationshipID(ctx context.Context, relationshipID string, limit int) ([]domain.ConversionEvent, error)
	// ListByExternalOrderID exists for downstream reconciliation; duplicate
	// order IDs are allowed and each still creates a pending payment.
	ListByExternalOrderID(ctx context.Context, externalOrderID string) ([]domain.ConversionEvent, error)
}

type CompanyCredentialRepository interface {
	Upsert(ctx context.Context, row domain.CompanyCredential) error
	GetByCompanyID(ctx context.Context, companyID string) (domain.CompanyCredential, error)
	GetByAPIKeyDigest(ctx context.Context, digest string) (domain.CompanyCredential, error)
}

type OutboxRecord struct {
	RecordID   string
	EventClass string
	Envelope   contracts.EventEnvelope
	CreatedAt  time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, record OutboxRecord) error
	ListPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkSent(ctx context.Context, recordID string, at time.Time) error
}
