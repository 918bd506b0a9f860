package application

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/domain"
)

// HandleClick resolves a tracking code, scores the click and hands the click
// record to the asynchronous sink. The redirect is issued regardless of the
// fraud score: a high score only marks the click excluded from analytics and
// commission eligibility, never from navigation.
func (s *Service) HandleClick(ctx context.Context, in HandleClickInput) (HandleClickResult, error) {
	code := strings.TrimSpace(in.TrackingCode)
	if code == "" {
		return HandleClickResult{}, domain.ErrTrackingCodeNotFound
	}
	rel, err := s.relationships.GetByTrackingCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return HandleClickResult{}, domain.ErrTrackingCodeNotFound
		}
		return HandleClickResult{}, domain.ErrDownstreamUnavailable
	}

	clientIP := domain.NormalizeClientIP(in.ForwardedFor, in.RemoteAddr)

	recentClicks := 1
	velocityUnavailable := false
	if s.velocity != nil {
		n, verr := s.velocity.IncrementAndCount(ctx, clientIP, rel.RelationshipID, s.cfg.VelocityWindow)
		if verr != nil {
			velocityUnavailable = true
		} else {
			recentClicks = n
		}
	}

	var creatorIPs []string
	if s.creatorProfiles != nil {
		lookupCtx, cancel := context.WithTimeout(ctx, s.cfg.DownstreamTimeout)
		ips, perr := s.creatorProfiles.GetKnownIPs(lookupCtx, rel.CreatorID)
		cancel()
		if perr == nil {
			creatorIPs = ips
		}
	}

	score, flags := domain.ScoreClick(domain.ClickScoreInput{
		ClientIP:     clientIP,
		UserAgent:    in.UserAgent,
		Referrer:     in.Referrer,
		RecentClicks: recentClicks,
		CreatorIPs:   creatorIPs,
	}, s.cfg.Fraud)
	if velocityUnavailable {
		flags = append(flags, domain.FlagVelocityUnavailable)
	}

	now := s.nowFn()
	click := domain.ClickEvent{
		ClickID:        "clk_" + uuid.NewString(),
		RelationshipID: rel.RelationshipID,
		ClientIP:       clientIP,
		UserAgent:      strings.TrimSpace(in.UserAgent),
		Referrer:       strings.TrimSpace(in.Referrer),
		UTMSource:      strings.TrimSpace(in.UTMSource),
		UTMMedium:      strings.TrimSpace(in.UTMMedium),
		UTMCampaign:    strings.TrimSpace(in.UTMCampaign),
		UTMTerm:        strings.TrimSpace(in.UTMTerm),
		UTMContent:     strings.TrimSpace(in.UTMContent),
		FraudScore:     score,
		FraudFlags:     flags,
		Excluded:       score >= s.cfg.Fraud.ExclusionThreshold,
		ClickedAt:      now,
	}

	// Persistence is decoupled from the redirect; the sink logs failures on
	// its own error channel.
	if s.clickSink != nil {
		s.clickSink.Submit(click)
	} else if s.clicks != nil {
		_ = s.clicks.Append(ctx, click)
	}
	if err := s.enqueueClickRecorded(ctx, click, uuid.NewString(), now); err != nil {
		slog.WarnContext(ctx, "click event not enqueued",
			"module", "application",
			"operation", "enqueue_click_recorded",
			"outcome", "failure",
			"click_id", click.ClickID,
			"error", err,
		)
	}

	return HandleClickResult{RedirectURL: rel.DestinationURL, Click: click}, nil
}

// ResolveTrackingCode is the read-only lookup behind the redirect handler and
// the pixel/beacon channels.
func (s *Service) ResolveTrackingCode(ctx context.Context, code string) (domain.Relationship, error) {
	rel, err := s.relationships.GetByTrackingCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Relationship{}, domain.ErrTrackingCodeNotFound
		}
		return domain.Relationship{}, domain.ErrDownstreamUnavailable
	}
	return rel, nil
}

// ApproveRelationship issues the tracking code for a newly approved
// creator-offer pairing. Codes are immutable once issued; a store-level unique
// conflict triggers regeneration.
func (s *Service) ApproveRelationship(ctx context.Context, actor Actor, in ApproveRelationshipInput) (domain.Relationship, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.Relationship{}, domain.ErrUnauthorized
	}
	if !isAdmin(actor) && normalizeRole(actor.Role) != "company" {
		return domain.Relationship{}, domain.ErrForbidden
	}
	in.CreatorID = strings.TrimSpace(in.CreatorID)
	in.OfferID = strings.TrimSpace(in.OfferID)
	in.CompanyID = strings.TrimSpace(in.CompanyID)
	in.DestinationURL = strings.TrimSpace(in.DestinationURL)
	if in.CreatorID == "" || in.OfferID == "" || in.CompanyID == "" || in.DestinationURL == "" {
		return domain.Relationship{}, domain.ErrInvalidInput
	}
	if _, err := url.ParseRequestURI(in.DestinationURL); err != nil {
		return domain.Relationship{}, domain.ErrInvalidInput
	}
	if !isAdmin(actor) && actor.SubjectID != in.CompanyID {
		return domain.Relationship{}, domain.ErrForbidden
	}

	now := s.nowFn()
	row := domain.Relationship{
		RelationshipID: "rel_" + uuid.NewString(),
		CreatorID:      in.CreatorID,
		OfferID:        in.OfferID,
		CompanyID:      in.CompanyID,
		DestinationURL: in.DestinationURL,
		Status:         domain.RelationshipStatusApproved,
		CreatedAt:      now,
	}
	var err error
	for attempt := 0; attempt < s.cfg.CodeIssueAttempts; attempt++ {
		row.TrackingCode = domain.NewTrackingCode()
		err = s.relationships.Create(ctx, row)
		if err == nil {
			return row, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return domain.Relationship{}, err
		}
	}
	return domain.Relationship{}, err
}

func isAdmin(actor Actor) bool { return normalizeRole(actor.Role) == "admin" }

func normalizeRole(role string) string { return strings.ToLower(strings.TrimSpace(role)) }
