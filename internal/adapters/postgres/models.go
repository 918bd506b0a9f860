package postgres

import "time"

type relationshipModel struct {
	RelationshipID string    `gorm:"column:relationship_id;primaryKey"`
	CreatorID      string    `gorm:"column:creator_id"`
	OfferID        string    `gorm:"column:offer_id"`
	CompanyID      string    `gorm:"column:company_id"`
	TrackingCode   string    `gorm:"column:tracking_code;uniqueIndex"`
	DestinationURL string    `gorm:"column:destination_url"`
	Status         string    `gorm:"column:status"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (relationshipModel) TableName() string { return "tracking_relationships" }

type clickEventModel struct {
	ClickID        string    `gorm:"column:click_id;primaryKey"`
	RelationshipID string    `gorm:"column:relationship_id;index"`
	ClientIP       string    `gorm:"column:client_ip"`
	UserAgent      string    `gorm:"column:user_agent"`
	Referrer       string    `gorm:"column:referrer"`
	UTMSource      string    `gorm:"column:utm_source"`
	UTMMedium      string    `gorm:"column:utm_medium"`
	UTMCampaign    string    `gorm:"column:utm_campaign"`
	UTMTerm        string    `gorm:"column:utm_term"`
	UTMContent     string    `gorm:"column:utm_content"`
	FraudScore     int       `gorm:"column:fraud_score"`
	FraudFlags     string    `gorm:"column:fraud_flags;type:jsonb"`
	Excluded       bool      `gorm:"column:excluded"`
	ClickedAt      time.Time `gorm:"column:clicked_at"`
}

func (clickEventModel) TableName() string { return "click_events" }

type conversionEventModel struct {
	ConversionID    string    `gorm:"column:conversion_id;primaryKey"`
	RelationshipID  string    `gorm:"column:relationship_id;index"`
	EventType       string    `gorm:"column:event_type"`
	SaleAmount      float64   `gorm:"column:sale_amount"`
	Currency        string    `gorm:"column:currency"`
	ExternalOrderID string    `gorm:"column:external_order_id;index"`
	Source          string    `gorm:"column:source"`
	ReceivedAt      time.Time `gorm:"column:received_at"`
}

func (conversionEventModel) TableName() string { return "conversion_events" }

type companyCredentialModel struct {
	CompanyID    string    `gorm:"column:company_id;primaryKey"`
	APIKeyDigest string    `gorm:"column:api_key_digest;index"`
	SharedSecret string    `gorm:"column:shared_secret"`
	RotatedAt    time.Time `gorm:"column:rotated_at"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (companyCredentialModel) TableName() string { return "company_credentials" }

type trackingOutboxModel struct {
	RecordID   string     `gorm:"column:record_id;primaryKey"`
	EventClass string     `gorm:"column:event_class"`
	Envelope   string     `gorm:"column:envelope;type:jsonb"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	SentAt     *time.Time `gorm:"column:sent_at"`
}

func (trackingOutboxModel) TableName() string { return "tracking_outbox" }
