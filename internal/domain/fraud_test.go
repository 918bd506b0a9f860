package domain

import "testing"

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

func TestScoreClickCleanTraffic(t *testing.T) {
	score, flags := ScoreClick(ClickScoreInput{
		ClientIP:     "203.0.113.7",
		UserAgent:    "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
		Referrer:     "https://instagram.com/post/123",
		RecentClicks: 1,
	}, DefaultFraudWeights())
	if score != 0 {
		t.Fatalf("clean click should score 0, got %d", score)
	}
	if len(flags) != 0 {
		t.Fatalf("clean click should carry no flags, got %v", flags)
	}
}

func TestScoreClickMissingUserAgentAndReferrer(t *testing.T) {
	w := DefaultFraudWeights()
	score, flags := ScoreClick(ClickScoreInput{
		ClientIP:     "203.0.113.7",
		RecentClicks: 1,
	}, w)
	if want := w.MissingUserAgent + w.MissingReferrer; score != want {
		t.Fatalf("expected score %d, got %d", want, score)
	}
	if !hasFlag(flags, FlagMissingUserAgent) || !hasFlag(flags, FlagMissingReferrer) {
		t.Fatalf("expected missing_user_agent and missing_referrer flags, got %v", flags)
	}
}

func TestScoreClickBotUserAgent(t *testing.T) {
	w := DefaultFraudWeights()
	score, flags := ScoreClick(ClickScoreInput{
		ClientIP:     "203.0.113.7",
		UserAgent:    "curl/8.4.0",
		Referrer:     "https://example.com",
		RecentClicks: 1,
	}, w)
	if score != w.BotUserAgent {
		t.Fatalf("expected bot score %d, got %d", w.BotUserAgent, score)
	}
	if !hasFlag(flags, FlagBotUserAgent) {
		t.Fatalf("expected bot_user_agent flag, got %v", flags)
	}
}

func TestScoreClickVelocityCapped(t *testing.T) {
	w := DefaultFraudWeights()
	score, flags := ScoreClick(ClickScoreInput{
		ClientIP:     "203.0.113.7",
		UserAgent:    "Mozilla/5.0",
		Referrer:     "https://example.com",
		RecentClicks: 100,
	}, w)
	if score != w.VelocityMax {
		t.Fatalf("velocity bump should cap at %d, got %d", w.VelocityMax, score)
	}
	if !hasFlag(flags, FlagClickVelocity) {
		t.Fatalf("expected click_velocity flag, got %v", flags)
	}
}

func TestScoreClickVelocityJustOverThreshold(t *testing.T) {
	w := DefaultFraudWeights()
	score, _ := ScoreClick(ClickScoreInput{
		ClientIP:     "203.0.113.7",
		UserAgent:    "Mozilla/5.0",
		Referrer:     "https://example.com",
		RecentClicks: w.VelocityThreshold + 1,
	}, w)
	if want := w.VelocityBase + w.VelocityPerClick; score != want {
		t.Fatalf("expected score %d one click over threshold, got %d", want, score)
	}
}

func TestScoreClickSelfClick(t *testing.T) {
	w := DefaultFraudWeights()
	score, flags := ScoreClick(ClickScoreInput{
		ClientIP:     "198.51.100.9",
		UserAgent:    "Mozilla/5.0",
		Referrer:     "https://example.com",
		RecentClicks: 1,
		CreatorIPs:   []string{"203.0.113.1", "198.51.100.9"},
	}, w)
	if score != w.SelfClick {
		t.Fatalf("expected self-click score %d, got %d", w.SelfClick, score)
	}
	if !hasFlag(flags, FlagSelfClick) {
		t.Fatalf("expected self_click flag, got %v", flags)
	}
}

func TestScoreClickClampsAtHundred(t *testing.T) {
	w := DefaultFraudWeights()
	score, _ := ScoreClick(ClickScoreInput{
		UserAgent:    "",
		Referrer:     "",
		ClientIP:     "",
		RecentClicks: 100,
	}, w)
	if score > 100 {
		t.Fatalf("score must clamp at 100, got %d", score)
	}
	if score != ClampClickScore(w.MissingUserAgent+w.VelocityMax+w.MissingReferrer+w.MissingClientIP) {
		t.Fatalf("unexpected stacked score %d", score)
	}
}

func TestScoreClickDeterministic(t *testing.T) {
	in := ClickScoreInput{
		ClientIP:     "203.0.113.7",
		UserAgent:    "HeadlessChrome/120",
		RecentClicks: 12,
	}
	w := DefaultFraudWeights()
	s1, f1 := ScoreClick(in, w)
	s2, f2 := ScoreClick(in, w)
	if s1 != s2 || len(f1) != len(f2) {
		t.Fatalf("identical inputs must score identically: %d/%v vs %d/%v", s1, f1, s2, f2)
	}
}
