package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/domain"
)

// RotateAPIKey mints a fresh postback API key for a company. The plaintext is
// returned exactly once; only the digest is stored, so a later read cannot
// recover it. Rotation invalidates the previous key immediately.
func (s *Service) RotateAPIKey(ctx context.Context, actor Actor, companyID string) (string, domain.CompanyCredential, error) {
	if err := s.authorizeCompany(actor, companyID); err != nil {
		return "", domain.CompanyCredential{}, err
	}
	companyID = strings.TrimSpace(companyID)

	key := "vfk_" + randomToken()
	now := s.nowFn()
	cred := domain.CompanyCredential{
		CompanyID:    companyID,
		APIKeyDigest: domain.SHA256Hex(key),
		RotatedAt:    now,
		CreatedAt:    now,
	}
	if existing, err := s.credentials.GetByCompanyID(ctx, companyID); err == nil {
		cred.SharedSecret = existing.SharedSecret
		cred.CreatedAt = existing.CreatedAt
	}
	if err := s.credentials.Upsert(ctx, cred); err != nil {
		return "", domain.CompanyCredential{}, err
	}
	return key, cred, nil
}

// RotateSharedSecret mints the per-company HMAC secret used to sign postbacks.
// Companies without a secret still authenticate by API key alone; setting one
// upgrades the channel to signed postbacks.
func (s *Service) RotateSharedSecret(ctx context.Context, actor Actor, companyID string) (string, domain.CompanyCredential, error) {
	if err := s.authorizeCompany(actor, companyID); err != nil {
		return "", domain.CompanyCredential{}, err
	}
	companyID = strings.TrimSpace(companyID)

	secret := "vfs_" + randomToken()
	now := s.nowFn()
	cred := domain.CompanyCredential{
		CompanyID:    companyID,
		SharedSecret: secret,
		RotatedAt:    now,
		CreatedAt:    now,
	}
	if existing, err := s.credentials.GetByCompanyID(ctx, companyID); err == nil {
		cred.APIKeyDigest = existing.APIKeyDigest
		cred.CreatedAt = existing.CreatedAt
	}
	if err := s.credentials.Upsert(ctx, cred); err != nil {
		return "", domain.CompanyCredential{}, err
	}
	return secret, cred, nil
}

// IntegrationSnippet renders the embeddable JS a merchant drops on their
// purchase-confirmation page. It reports through the beacon/pixel channel, so
// it carries no secrets.
func (s *Service) IntegrationSnippet(actor Actor, companyID string) (string, string, error) {
	if err := s.authorizeCompany(actor, companyID); err != nil {
		return "", "", err
	}
	pixelURL := s.cfg.PublicBaseURL + "/tracking/pixel/"
	snippet := fmt.Sprintf(`<script>
(function(){
  window.vfTrack = function(code, event, amount, orderId) {
    var img = new Image(1, 1);
    var src = %q + encodeURIComponent(code) + "?event=" + encodeURIComponent(event || "sale");
    if (amount != null) src += "&amount=" + encodeURIComponent(amount);
    if (orderId) src += "&order_id=" + encodeURIComponent(orderId);
    img.src = src;
  };
})();
</script>`, pixelURL)
	return pixelURL, snippet, nil
}

// GenerateTestSignature computes the signature a correctly implemented client
// would send for the given payload, so merchants can diff against their own
// implementation before going live.
func (s *Service) GenerateTestSignature(ctx context.Context, actor Actor, in TestSignatureInput) (TestSignatureResult, error) {
	if err := s.authorizeCompany(actor, in.CompanyID); err != nil {
		return TestSignatureResult{}, err
	}
	cred, err := s.credentials.GetByCompanyID(ctx, strings.TrimSpace(in.CompanyID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return TestSignatureResult{}, domain.ErrNotFound
		}
		return TestSignatureResult{}, domain.ErrDownstreamUnavailable
	}
	if cred.SharedSecret == "" {
		return TestSignatureResult{}, domain.ErrValidationFailed
	}

	code := strings.TrimSpace(in.TrackingCode)
	eventType := strings.ToLower(strings.TrimSpace(in.EventType))
	if code == "" || !domain.IsValidEventType(eventType) {
		return TestSignatureResult{}, domain.ErrInvalidEventType
	}
	amount := 0.0
	if in.SaleAmount != nil {
		amount = *in.SaleAmount
	}
	ts := in.TimestampMillis
	if ts <= 0 {
		ts = s.nowFn().UnixMilli()
	}
	payload := domain.CanonicalSignaturePayload(code, eventType, amount, ts)
	return TestSignatureResult{
		SaleAmount:      strconv.FormatFloat(amount, 'f', 2, 64),
		TimestampMillis: ts,
		Payload:         payload,
		Signature:       domain.SignPostback(code, eventType, amount, ts, cred.SharedSecret),
	}, nil
}

func (s *Service) authorizeCompany(actor Actor, companyID string) error {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.ErrUnauthorized
	}
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return domain.ErrInvalidInput
	}
	if isAdmin(actor) {
		return nil
	}
	if normalizeRole(actor.Role) != "company" || actor.SubjectID != companyID {
		return domain.ErrForbidden
	}
	return nil
}

func randomToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
