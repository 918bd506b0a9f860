package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/contracts"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/ports"
)

type Repositories struct {
	Relationships ports.RelationshipRepository
	Clicks        ports.ClickEventRepository
	Conversions   ports.ConversionEventRepository
	Credentials   ports.CompanyCredentialRepository
	Outbox        ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Relationships: &relationshipRepository{db: db},
		Clicks:        &clickEventRepository{db: db},
		Conversions:   &conversionEventRepository{db: db},
		Credentials:   &companyCredentialRepository{db: db},
		Outbox:        &outboxRepository{db: db},
	}
}

type relationshipRepository struct {
	db *gorm.DB
}

func (r *relationshipRepository) Create(ctx context.Context, row domain.Relationship) error {
	rec := relationshipModel{
		RelationshipID: row.RelationshipID,
		CreatorID:      row.CreatorID,
		OfferID:        row.OfferID,
		CompanyID:      row.CompanyID,
		TrackingCode:   row.TrackingCode,
		DestinationURL: row.DestinationURL,
		Status:         row.Status,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *relationshipRepository) GetByID(ctx context.Context, relationshipID string) (domain.Relationship, error) {
	var rec relationshipModel
	if err := r.db.WithContext(ctx).Where("relationship_id = ?", relationshipID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Relationship{}, domain.ErrNotFound
		}
		return domain.Relationship{}, err
	}
	return toDomainRelationship(rec), nil
}

func (r *relationshipRepository) GetByTrackingCode(ctx context.Context, code string) (domain.Relationship, error) {
	var rec relationshipModel
	if err := r.db.WithContext(ctx).Where("tracking_code = ?", code).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Relationship{}, domain.ErrTrackingCodeNotFound
		}
		return domain.Relationship{}, err
	}
	return toDomainRelationship(rec), nil
}

func (r *relationshipRepository) UpdateStatus(ctx context.Context, relationshipID, status string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&relationshipModel{}).
		Where("relationship_id = ?", relationshipID).
		Updates(map[string]any{
			"status":     status,
			"updated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type clickEventRepository struct {
	db *gorm.DB
}

func (r *clickEventRepository) Append(ctx context.Context, row domain.ClickEvent) error {
	flags := "[]"
	if len(row.FraudFlags) > 0 {
		if b, err := json.Marshal(row.FraudFlags); err == nil {
			flags = string(b)
		}
	}
	rec := clickEventModel{
		ClickID:        row.ClickID,
		RelationshipID: row.RelationshipID,
		ClientIP:       row.ClientIP,
		UserAgent:      row.UserAgent,
		Referrer:       row.Referrer,
		UTMSource:      row.UTMSource,
		UTMMedium:      row.UTMMedium,
		UTMCampaign:    row.UTMCampaign,
		UTMTerm:        row.UTMTerm,
		UTMContent:     row.UTMContent,
		FraudScore:     row.FraudScore,
		FraudFlags:     flags,
		Excluded:       row.Excluded,
		ClickedAt:      row.ClickedAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *clickEventRepository) ListByRelationshipID(ctx context.Context, relationshipID string, limit int) ([]domain.ClickEvent, error) {
	var rows []clickEventModel
	if err := r.db.WithContext(ctx).
		Where("relationship_id = ?", relationshipID).
		Order("clicked_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.ClickEvent, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainClickEvent(row))
	}
	return result, nil
}

func (r *clickEventRepository) CountRecentByIPAndRelationship(ctx context.Context, clientIP, relationshipID string, since time.Time) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&clickEventModel{}).
		Where("client_ip = ?", clientIP).
		Where("relationship_id = ?", relationshipID).
		Where("clicked_at >= ?", since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

type conversionEventRepository struct {
	db *gorm.DB
}

func (r *conversionEventRepository) Create(ctx context.Context, row domain.ConversionEvent) error {
	rec := conversionEventModel{
		ConversionID:    row.ConversionID,
		RelationshipID:  row.RelationshipID,
		EventType:       row.EventType,
		SaleAmount:      row.SaleAmount,
		Currency:        row.Currency,
		ExternalOrderID: row.ExternalOrderID,
		Source:          row.Source,
		ReceivedAt:      row.ReceivedAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *conversionEventRepository) GetByID(ctx context.Context, conversionID string) (domain.ConversionEvent, error) {
	var rec conversionEventModel
	if err := r.db.WithContext(ctx).Where("conversion_id = ?", conversionID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ConversionEvent{}, domain.ErrNotFound
		}
		return domain.ConversionEvent{}, err
	}
	return toDomainConversionEvent(rec), nil
}

func (r *conversionEventRepository) ListByRelationshipID(ctx context.Context, relationshipID string, limit int) ([]domain.ConversionEvent, error) {
	var rows []conversionEventModel
	if err := r.db.WithContext(ctx).
		Where("relationship_id = ?", relationshipID).
		Order("received_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.ConversionEvent, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainConversionEvent(row))
	}
	return result, nil
}

func (r *conversionEventRepository) ListByExternalOrderID(ctx context.Context, externalOrderID string) ([]domain.ConversionEvent, error) {
	var rows []conversionEventModel
	if err := r.db.WithContext(ctx).
		Where("external_order_id = ?", externalOrderID).
		Order("received_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.ConversionEvent, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainConversionEvent(row))
	}
	return result, nil
}

type companyCredentialRepository struct {
	db *gorm.DB
}

func (r *companyCredentialRepository) Upsert(ctx context.Context, row domain.CompanyCredential) error {
	rec := companyCredentialModel{
		CompanyID:    row.CompanyID,
		APIKeyDigest: row.APIKeyDigest,
		SharedSecret: row.SharedSecret,
		RotatedAt:    row.RotatedAt,
		CreatedAt:    row.CreatedAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "company_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"api_key_digest": rec.APIKeyDigest,
			"shared_secret":  rec.SharedSecret,
			"rotated_at":     rec.RotatedAt,
		}),
	}).Create(&rec).Error
}

func (r *companyCredentialRepository) GetByCompanyID(ctx context.Context, companyID string) (domain.CompanyCredential, error) {
	var rec companyCredentialModel
	if err := r.db.WithContext(ctx).Where("company_id = ?", companyID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CompanyCredential{}, domain.ErrNotFound
		}
		return domain.CompanyCredential{}, err
	}
	return toDomainCredential(rec), nil
}

func (r *companyCredentialRepository) GetByAPIKeyDigest(ctx context.Context, digest string) (domain.CompanyCredential, error) {
	var rec companyCredentialModel
	if err := r.db.WithContext(ctx).Where("api_key_digest = ?", digest).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CompanyCredential{}, domain.ErrNotFound
		}
		return domain.CompanyCredential{}, err
	}
	return toDomainCredential(rec), nil
}

type outboxRepository struct {
	db *gorm.DB
}

func (r *outboxRepository) Enqueue(ctx context.Context, record ports.OutboxRecord) error {
	payload, err := json.Marshal(record.Envelope)
	if err != nil {
		return err
	}
	rec := trackingOutboxModel{
		RecordID:   record.RecordID,
		EventClass: record.EventClass,
		Envelope:   string(payload),
		CreatedAt:  record.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]ports.OutboxRecord, error) {
	var rows []trackingOutboxModel
	if err := r.db.WithContext(ctx).
		Where("sent_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]ports.OutboxRecord, 0, len(rows))
	for _, row := range rows {
		var env contracts.EventEnvelope
		if err := json.Unmarshal([]byte(row.Envelope), &env); err != nil {
			return nil, err
		}
		result = append(result, ports.OutboxRecord{
			RecordID:   row.RecordID,
			EventClass: row.EventClass,
			Envelope:   env,
			CreatedAt:  row.CreatedAt,
		})
	}
	return result, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, recordID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&trackingOutboxModel{}).
		Where("record_id = ?", recordID).
		Update("sent_at", at).Error
}

func toDomainRelationship(row relationshipModel) domain.Relationship {
	return domain.Relationship{
		RelationshipID: row.RelationshipID,
		CreatorID:      row.CreatorID,
		OfferID:        row.OfferID,
		CompanyID:      row.CompanyID,
		TrackingCode:   row.TrackingCode,
		DestinationURL: row.DestinationURL,
		Status:         row.Status,
		CreatedAt:      row.CreatedAt,
	}
}

func toDomainClickEvent(row clickEventModel) domain.ClickEvent {
	var flags []string
	if row.FraudFlags != "" {
		_ = json.Unmarshal([]byte(row.FraudFlags), &flags)
	}
	return domain.ClickEvent{
		ClickID:        row.ClickID,
		RelationshipID: row.RelationshipID,
		ClientIP:       row.ClientIP,
		UserAgent:      row.UserAgent,
		Referrer:       row.Referrer,
		UTMSource:      row.UTMSource,
		UTMMedium:      row.UTMMedium,
		UTMCampaign:    row.UTMCampaign,
		UTMTerm:        row.UTMTerm,
		UTMContent:     row.UTMContent,
		FraudScore:     row.FraudScore,
		FraudFlags:     flags,
		Excluded:       row.Excluded,
		ClickedAt:      row.ClickedAt,
	}
}

func toDomainConversionEvent(row conversionEventModel) domain.ConversionEvent {
	return domain.ConversionEvent{
		ConversionID:    row.ConversionID,
		RelationshipID:  row.RelationshipID,
		EventType:       row.EventType,
		SaleAmount:      row.SaleAmount,
		Currency:        row.Currency,
		ExternalOrderID: row.ExternalOrderID,
		Source:          row.Source,
		ReceivedAt:      row.ReceivedAt,
	}
}

func toDomainCredential(row companyCredentialModel) domain.CompanyCredential {
	return domain.CompanyCredential{
		CompanyID:    row.CompanyID,
		APIKeyDigest: row.APIKeyDigest,
		SharedSecret: row.SharedSecret,
		RotatedAt:    row.RotatedAt,
		CreatedAt:    row.CreatedAt,
	}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
