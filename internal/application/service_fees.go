package application

import (
	"context"
	"sync"
	"time"

	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/domain"
)

// feeOverrideCache memoizes per-company fee overrides with a short TTL.
// Negative results are cached too, so companies without an override do not
// hit the profile service on every conversion. The cache is owned by the
// service instance; invalidation is an explicit hook fired on settings
// changes, not a shared global.
type feeOverrideCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]feeCacheEntry
}

type feeCacheEntry struct {
	pct       *float64
	expiresAt time.Time
}

func newFeeOverrideCache(ttl time.Duration) *feeOverrideCache {
	return &feeOverrideCache{ttl: ttl, entries: map[string]feeCacheEntry{}}
}

func (c *feeOverrideCache) get(companyID string, now time.Time) (*float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[companyID]
	if !ok || now.After(entry.expiresAt) {
		return nil, false
	}
	return entry.pct, true
}

func (c *feeOverrideCache) set(companyID string, pct *float64, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[companyID] = feeCacheEntry{pct: pct, expiresAt: now.Add(c.ttl)}
}

func (c *feeOverrideCache) invalidate(companyID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, companyID)
}

func (c *feeOverrideCache) invalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]feeCacheEntry{}
}

// ComputeFees produces the gross/platform-fee/processing-fee/net split a
// pending payment is created from. A valid per-company override replaces the
// platform percentage; the processing percentage always comes from global
// settings.
func (s *Service) ComputeFees(ctx context.Context, grossAmount float64, companyID string) (domain.FeeQuote, error) {
	settings := domain.GlobalFeeSettings{
		PlatformFeePercentage:   s.cfg.DefaultPlatformFeePct,
		ProcessingFeePercentage: s.cfg.DefaultProcessingFeePct,
	}
	if s.settings != nil {
		settingsCtx, cancel := context.WithTimeout(ctx, s.cfg.DownstreamTimeout)
		fetched, err := s.settings.GetGlobalFeeSettings(settingsCtx)
		cancel()
		if err != nil {
			return domain.FeeQuote{}, domain.ErrDownstreamUnavailable
		}
		settings = fetched
	}

	platformPct := settings.PlatformFeePercentage
	isCustom := false
	if override := s.lookupFeeOverride(ctx, companyID); override != nil && domain.IsValidFeeOverride(*override) {
		platformPct = *override
		isCustom = true
	}

	return domain.ComputeFeeQuote(grossAmount, platformPct, settings.ProcessingFeePercentage, isCustom), nil
}

func (s *Service) lookupFeeOverride(ctx context.Context, companyID string) *float64 {
	if companyID == "" || s.companies == nil {
		return nil
	}
	now := s.nowFn()
	if pct, ok := s.feeCache.get(companyID, now); ok {
		return pct
	}
	lookupCtx, cancel := context.WithTimeout(ctx, s.cfg.DownstreamTimeout)
	pct, err := s.companies.GetCompanyFeeOverride(lookupCtx, companyID)
	cancel()
	if err != nil {
		// Degrade to the global default rather than fail the conversion;
		// staleness is bounded by the TTL on the next successful lookup.
		return nil
	}
	s.feeCache.set(companyID, pct, now)
	return pct
}

// InvalidateFeeCache is the change-notification hook for admin fee updates.
// An empty companyID drops every cached override.
func (s *Service) InvalidateFeeCache(companyID string) {
	if companyID == "" {
		s.feeCache.invalidateAll()
		return
	}
	s.feeCache.invalidate(companyID)
}
