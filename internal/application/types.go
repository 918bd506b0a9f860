package application

import (
	"time"

	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/ports"
)

type Config struct {
	ServiceName             string
	PublicBaseURL           string
	DefaultPlatformFeePct   float64
	DefaultProcessingFeePct float64
	FeeCacheTTL             time.Duration
	ReplayWindow            time.Duration
	VelocityWindow          time.Duration
	DownstreamTimeout       time.Duration
	Fraud                   domain.FraudWeights
	OutboxFlushBatchSize    int
	CodeIssueAttempts       int
}

type Actor struct {
	SubjectID string
	Role      string
	RequestID string
}

type HandleClickInput struct {
	TrackingCode string
	ForwardedFor string
	RemoteAddr   string
	UserAgent    string
	Referrer     string
	UTMSource    string
	UTMMedium    string
	UTMCampaign  string
	UTMTerm      string
	UTMContent   string
}

type HandleClickResult struct {
	RedirectURL string
	Click       domain.ClickEvent
}

type ApproveRelationshipInput struct {
	CreatorID      string
	OfferID        string
	CompanyID      string
	DestinationURL string
}

type PostbackInput struct {
	APIKey          string
	TrackingCode    string
	EventType       string
	SaleAmount      *float64
	Currency        string
	OrderID         string
	TimestampMillis int64
	Signature       string
}

type PixelInput struct {
	TrackingCode string
	EventType    string
	SaleAmount   *float64
	OrderID      string
}

type ConversionAck struct {
	ConversionID string
	EventType    string
	TrackingCode string
	OrderID      string
}

type TestSignatureInput struct {
	CompanyID       string
	TrackingCode    string
	EventType       string
	SaleAmount      *float64
	TimestampMillis int64
}

type TestSignatureResult struct {
	SaleAmount      string
	TimestampMillis int64
	Payload         string
	Signature       string
}

type Service struct {
	cfg Config

	relationships ports.RelationshipRepository
	clicks        ports.ClickEventRepository
	conversions   ports.ConversionEventRepository
	credentials   ports.CompanyCredentialRepository
	outbox        ports.OutboxRepository

	velocity  ports.ClickVelocityStore
	clickSink ports.ClickSink

	offers          ports.OfferReader
	settings        ports.SettingsReader
	companies       ports.CompanyReader
	payments        ports.PaymentRecorder
	creatorProfiles ports.CreatorProfileReader

	domainEvents ports.DomainPublisher
	analytics    ports.AnalyticsPublisher
	dlq          ports.DLQPublisher

	feeCache *feeOverrideCache
	nowFn    func() time.Time
}

type Dependencies struct {
	Config Config

	Relationships ports.RelationshipRepository
	Clicks        ports.ClickEventRepository
	Conversions   ports.ConversionEventRepository
	Credentials   ports.CompanyCredentialRepository
	Outbox        ports.OutboxRepository

	Velocity  ports.ClickVelocityStore
	ClickSink ports.ClickSink

	Offers          ports.OfferReader
	Settings        ports.SettingsReader
	Companies       ports.CompanyReader
	Payments        ports.PaymentRecorder
	CreatorProfiles ports.CreatorProfileReader

	DomainEvents ports.DomainPublisher
	Analytics    ports.AnalyticsPublisher
	DLQ          ports.DLQPublisher
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "M88-Tracking-Attribution-Service"
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "https://platform.com"
	}
	if cfg.DefaultPlatformFeePct <= 0 {
		cfg.DefaultPlatformFeePct = 0.04
	}
	if cfg.DefaultProcessingFeePct <= 0 {
		cfg.DefaultProcessingFeePct = 0.03
	}
	if cfg.FeeCacheTTL <= 0 {
		cfg.FeeCacheTTL = 5 * time.Minute
	}
	if cfg.ReplayWindow <= 0 {
		cfg.ReplayWindow = domain.DefaultReplayWindowMillis * time.Millisecond
	}
	if cfg.VelocityWindow <= 0 {
		cfg.VelocityWindow = time.Minute
	}
	if cfg.DownstreamTimeout <= 0 {
		cfg.DownstreamTimeout = 3 * time.Second
	}
	if cfg.Fraud == (domain.FraudWeights{}) {
		cfg.Fraud = domain.DefaultFraudWeights()
	}
	if cfg.OutboxFlushBatchSize <= 0 {
		cfg.OutboxFlushBatchSize = 100
	}
	if cfg.CodeIssueAttempts <= 0 {
		cfg.CodeIssueAttempts = 5
	}
	return &Service{
		cfg:             cfg,
		relationships:   deps.Relationships,
		clicks:          deps.Clicks,
		conversions:     deps.Conversions,
		credentials:     deps.Credentials,
		outbox:          deps.Outbox,
		velocity:        deps.Velocity,
		clickSink:       deps.ClickSink,
		offers:          deps.Offers,
		settings:        deps.Settings,
		companies:       deps.Companies,
		payments:        deps.Payments,
		creatorProfiles: deps.CreatorProfiles,
		domainEvents:    deps.DomainEvents,
		analytics:       deps.Analytics,
		dlq:             deps.DLQ,
		feeCache:        newFeeOverrideCache(cfg.FeeCacheTTL),
		nowFn:           func() time.Time { return time.Now().UTC() },
	}
}
