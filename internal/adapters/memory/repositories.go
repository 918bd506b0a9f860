// Package memory provides mutex-guarded in-process implementations of the
// service's repository ports. They back unit tests and local runs where no
// Postgres instance is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/ports"
)

type Repositories struct {
	Relationships *RelationshipRepository
	Clicks        *ClickEventRepository
	Conversions   *ConversionEventRepository
	Credentials   *CompanyCredentialRepository
	Outbox        *OutboxRepository
}

func NewRepositories() Repositories {
	return Repositories{
		Relationships: NewRelationshipRepository(),
		Clicks:        NewClickEventRepository(),
		Conversions:   NewConversionEventRepository(),
		Credentials:   NewCompanyCredentialRepository(),
		Outbox:        NewOutboxRepository(),
	}
}

type RelationshipRepository struct {
	mu     sync.RWMutex
	byID   map[string]domain.Relationship
	byCode map[string]string
}

func NewRelationshipRepository() *RelationshipRepository {
	return &RelationshipRepository{
		byID:   make(map[string]domain.Relationship),
		byCode: make(map[string]string),
	}
}

func (r *RelationshipRepository) Create(_ context.Context, row domain.Relationship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[row.RelationshipID]; exists {
		return domain.ErrConflict
	}
	if _, exists := r.byCode[row.TrackingCode]; exists {
		return domain.ErrConflict
	}
	r.byID[row.RelationshipID] = row
	r.byCode[row.TrackingCode] = row.RelationshipID
	return nil
}

func (r *RelationshipRepository) GetByID(_ context.Context, relationshipID string) (domain.Relationship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.byID[relationshipID]
	if !ok {
		return domain.Relationship{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *RelationshipRepository) GetByTrackingCode(_ context.Context, code string) (domain.Relationship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byCode[code]
	if !ok {
		return domain.Relationship{}, domain.ErrTrackingCodeNotFound
	}
	return r.byID[id], nil
}

func (r *RelationshipRepository) UpdateStatus(_ context.Context, relationshipID, status string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.byID[relationshipID]
	if !ok {
		return domain.ErrNotFound
	}
	row.Status = status
	r.byID[relationshipID] = row
	return nil
}

type ClickEventRepository struct {
	mu   sync.RWMutex
	rows []domain.ClickEvent
}

func NewClickEventRepository() *ClickEventRepository {
	return &ClickEventRepository{}
}

func (r *ClickEventRepository) Append(_ context.Context, row domain.ClickEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, row)
	return nil
}

func (r *ClickEventRepository) ListByRelationshipID(_ context.Context, relationshipID string, limit int) ([]domain.ClickEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.ClickEvent
	for _, row := range r.rows {
		if row.RelationshipID == relationshipID {
			result = append(result, row)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ClickedAt.After(result[j].ClickedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *ClickEventRepository) CountRecentByIPAndRelationship(_ context.Context, clientIP, relationshipID string, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, row := range r.rows {
		if row.ClientIP == clientIP && row.RelationshipID == relationshipID && !row.ClickedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

type ConversionEventRepository struct {
	mu   sync.RWMutex
	byID map[string]domain.ConversionEvent
	rows []domain.ConversionEvent
}

func NewConversionEventRepository() *ConversionEventRepository {
	return &ConversionEventRepository{byID: make(map[string]domain.ConversionEvent)}
}

func (r *ConversionEventRepository) Create(_ context.Context, row domain.ConversionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[row.ConversionID]; exists {
		return domain.ErrConflict
	}
	r.byID[row.ConversionID] = row
	r.rows = append(r.rows, row)
	return nil
}

func (r *ConversionEventRepository) GetByID(_ context.Context, conversionID string) (domain.ConversionEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.byID[conversionID]
	if !ok {
		return domain.ConversionEvent{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *ConversionEventRepository) ListByRelationshipID(_ context.Context, relationshipID string, limit int) ([]domain.ConversionEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.ConversionEvent
	for _, row := range r.rows {
		if row.RelationshipID == relationshipID {
			result = append(result, row)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ReceivedAt.After(result[j].ReceivedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *ConversionEventRepository) ListByExternalOrderID(_ context.Context, externalOrderID string) ([]domain.ConversionEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.ConversionEvent
	for _, row := range r.rows {
		if row.ExternalOrderID == externalOrderID {
			result = append(result, row)
		}
	}
	return result, nil
}

type CompanyCredentialRepository struct {
	mu       sync.RWMutex
	byID     map[string]domain.CompanyCredential
	byDigest map[string]string
}

func NewCompanyCredentialRepository() *CompanyCredentialRepository {
	return &CompanyCredentialRepository{
		byID:     make(map[string]domain.CompanyCredential),
		byDigest: make(map[string]string),
	}
}

func (r *CompanyCredentialRepository) Upsert(_ context.Context, row domain.CompanyCredential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byID[row.CompanyID]; ok && prev.APIKeyDigest != "" {
		delete(r.byDigest, prev.APIKeyDigest)
	}
	r.byID[row.CompanyID] = row
	if row.APIKeyDigest != "" {
		r.byDigest[row.APIKeyDigest] = row.CompanyID
	}
	return nil
}

func (r *CompanyCredentialRepository) GetByCompanyID(_ context.Context, companyID string) (domain.CompanyCredential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.byID[companyID]
	if !ok {
		return domain.CompanyCredential{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *CompanyCredentialRepository) GetByAPIKeyDigest(_ context.Context, digest string) (domain.CompanyCredential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	companyID, ok := r.byDigest[digest]
	if !ok {
		return domain.CompanyCredential{}, domain.ErrNotFound
	}
	return r.byID[companyID], nil
}

type OutboxRepository struct {
	mu   sync.Mutex
	rows []outboxRow
}

type outboxRow struct {
	record ports.OutboxRecord
	sentAt *time.Time
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

func (r *OutboxRepository) Enqueue(_ context.Context, record ports.OutboxRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, outboxRow{record: record})
	return nil
}

func (r *OutboxRepository) ListPending(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []ports.OutboxRecord
	for _, row := range r.rows {
		if row.sentAt != nil {
			continue
		}
		result = append(result, row.record)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (r *OutboxRepository) MarkSent(_ context.Context, recordID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].record.RecordID == recordID {
			r.rows[i].sentAt = &at
			return nil
		}
	}
	return domain.ErrNotFound
}
