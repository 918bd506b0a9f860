package domain

import (
	"net"
	"strings"
)

// FraudWeights are tunable heuristic constants. Defaults are deliberately
// conservative; calibrate against observed traffic, not from first principles.
type FraudWeights struct {
	MissingUserAgent   int
	BotUserAgent       int
	VelocityBase       int
	VelocityPerClick   int
	VelocityMax        int
	MissingReferrer    int
	SelfClick          int
	MissingClientIP    int
	VelocityThreshold  int
	ExclusionThreshold int
}

func DefaultFraudWeights() FraudWeights {
	return FraudWeights{
		MissingUserAgent:   40,
		BotUserAgent:       35,
		VelocityBase:       25,
		VelocityPerClick:   5,
		VelocityMax:        50,
		MissingReferrer:    10,
		SelfClick:          40,
		MissingClientIP:    10,
		VelocityThreshold:  10,
		ExclusionThreshold: 50,
	}
}

const (
	FlagMissingUserAgent = "missing_user_agent"
	FlagBotUserAgent     = "bot_user_agent"
	FlagClickVelocity    = "click_velocity"
	FlagMissingReferrer  = "missing_referrer"
	FlagSelfClick        = "self_click"
	FlagMissingClientIP  = "missing_client_ip"
	// FlagVelocityUnavailable marks clicks scored without a working velocity
	// window; the velocity heuristic contributed nothing for them.
	FlagVelocityUnavailable = "velocity_unavailable"
)

var botUserAgentMarkers = []string{
	"bot", "crawler", "spider", "headless", "curl", "wget", "python-requests", "go-http-client", "phantomjs",
}

type ClickScoreInput struct {
	ClientIP  string
	UserAgent string
	Referrer  string
	// RecentClicks counts clicks from the same IP against the same
	// relationship inside the rolling velocity window, this click included.
	RecentClicks int
	// CreatorIPs carries the creator's known addresses when the caller has
	// them; empty means the self-click heuristic is skipped.
	CreatorIPs []string
}

// ScoreClick combines independent heuristics into an advisory 0-100 score plus
// reason flags. It never fails: malformed or missing inputs contribute a
// partial score and a flag noting the gap. Identical inputs always produce
// identical output.
func ScoreClick(in ClickScoreInput, w FraudWeights) (int, []string) {
	score := 0
	flags := make([]string, 0, 4)

	ua := strings.ToLower(strings.TrimSpace(in.UserAgent))
	if ua == "" {
		score += w.MissingUserAgent
		flags = append(flags, FlagMissingUserAgent)
	} else {
		for _, marker := range botUserAgentMarkers {
			if strings.Contains(ua, marker) {
				score += w.BotUserAgent
				flags = append(flags, FlagBotUserAgent)
				break
			}
		}
	}

	if in.RecentClicks > w.VelocityThreshold {
		over := in.RecentClicks - w.VelocityThreshold
		bump := w.VelocityBase + over*w.VelocityPerClick
		if bump > w.VelocityMax {
			bump = w.VelocityMax
		}
		score += bump
		flags = append(flags, FlagClickVelocity)
	}

	if strings.TrimSpace(in.Referrer) == "" {
		score += w.MissingReferrer
		flags = append(flags, FlagMissingReferrer)
	}

	ip := net.ParseIP(strings.TrimSpace(in.ClientIP))
	if ip == nil {
		score += w.MissingClientIP
		flags = append(flags, FlagMissingClientIP)
	} else {
		for _, known := range in.CreatorIPs {
			if knownIP := net.ParseIP(strings.TrimSpace(known)); knownIP != nil && knownIP.Equal(ip) {
				score += w.SelfClick
				flags = append(flags, FlagSelfClick)
				break
			}
		}
	}

	return ClampClickScore(score), flags
}

func ClampClickScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
