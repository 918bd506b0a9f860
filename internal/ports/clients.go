package ports

import (
	"context"

	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/domain"
)

// OfferReader resolves commission configuration owned by the offer service.
type OfferReader interface {
	GetOffer(ctx context.Context, offerID string) (domain.Offer, error)
}

// SettingsReader exposes platform-wide fee settings owned by the config
// service. Change notifications arrive out of band and land on the service's
// fee-cache invalidation hook.
type SettingsReader interface {
	GetGlobalFeeSettings(ctx context.Context) (domain.GlobalFeeSettings, error)
}

// CompanyReader resolves the optional per-company platform-fee override from
// the company profile service. A nil result means no override is configured.
type CompanyReader interface {
	GetCompanyFeeOverride(ctx context.Context, companyID string) (*float64, error)
}

// PaymentRecorder is this service's sole write into the money-movement
// subsystem. It creates pending payments only; completion belongs elsewhere.
type PaymentRecorder interface {
	CreatePendingPayment(ctx context.Context, relationshipID string, quote domain.FeeQuote, conversionID string) (string, error)
}

// CreatorProfileReader supplies the creator's known addresses for the
// self-click heuristic. Implementations may legitimately return nothing.
type CreatorProfileReader interface {
	GetKnownIPs(ctx context.Context, creatorID string) ([]string, error)
}
