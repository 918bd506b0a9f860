// Package grpc holds the internal mesh surface. Outbound clients resolve the
// collaborating services by endpoint; contract-level stubs stand in until the
// shared protobuf definitions for these services land.
package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/ports"
)

type offerClient struct{ endpoint string }

func NewOfferClient(endpoint string) ports.OfferReader {
	return &offerClient{endpoint: endpoint}
}

func (c *offerClient) GetOffer(_ context.Context, offerID string) (domain.Offer, error) {
	if strings.Contains(strings.ToLower(c.endpoint), "fail") {
		return domain.Offer{}, errors.New("offer upstream unavailable")
	}
	return domain.Offer{OfferID: offerID, CommissionType: domain.CommissionTypePercentage}, nil
}

type settingsClient struct{ endpoint string }

func NewSettingsClient(endpoint string) ports.SettingsReader {
	return &settingsClient{endpoint: endpoint}
}

func (c *settingsClient) GetGlobalFeeSettings(_ context.Context) (domain.GlobalFeeSettings, error) {
	if strings.Contains(strings.ToLower(c.endpoint), "fail") {
		return domain.GlobalFeeSettings{}, errors.New("settings upstream unavailable")
	}
	return domain.GlobalFeeSettings{PlatformFeePercentage: 0.04, ProcessingFeePercentage: 0.03}, nil
}

type companyClient struct{ endpoint string }

func NewCompanyClient(endpoint string) ports.CompanyReader {
	return &companyClient{endpoint: endpoint}
}

func (c *companyClient) GetCompanyFeeOverride(_ context.Context, _ string) (*float64, error) {
	if strings.Contains(strings.ToLower(c.endpoint), "fail") {
		return nil, errors.New("company upstream unavailable")
	}
	return nil, nil
}

type paymentClient struct{ endpoint string }

func NewPaymentClient(endpoint string) ports.PaymentRecorder {
	return &paymentClient{endpoint: endpoint}
}

func (c *paymentClient) CreatePendingPayment(_ context.Context, _ string, _ domain.FeeQuote, _ string) (string, error) {
	if strings.Contains(strings.ToLower(c.endpoint), "fail") {
		return "", errors.New("payment upstream unavailable")
	}
	return "pay_" + uuid.NewString(), nil
}

type creatorProfileClient struct{ endpoint string }

func NewCreatorProfileClient(endpoint string) ports.CreatorProfileReader {
	return &creatorProfileClient{endpoint: endpoint}
}

func (c *creatorProfileClient) GetKnownIPs(_ context.Context, _ string) ([]string, error) {
	if strings.Contains(strings.ToLower(c.endpoint), "fail") {
		return nil, errors.New("profile upstream unavailable")
	}
	return nil, nil
}
