package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/viralforge/mesh/services/integrations/M88-tracking-attribution-service/internal/domain"
)

// Config is the resolved runtime configuration for M88.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID     string
	PublicBaseURL string

	HTTPPort int
	GRPCPort int

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string
	DLQTopic     string

	OfferServiceEndpoint    string
	SettingsServiceEndpoint string
	CompanyServiceEndpoint  string
	PaymentServiceEndpoint  string
	ProfileServiceEndpoint  string

	DefaultPlatformFeePct   float64
	DefaultProcessingFeePct float64
	Fraud                   domain.FraudWeights
	FeeCacheTTL             time.Duration
	ReplayWindow            time.Duration
	VelocityWindow          time.Duration
	DownstreamTimeout       time.Duration
	CodeIssueAttempts       int

	ClickBufferSize    int
	MaxDBConns         int32
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID            string `yaml:"id"`
		PublicBaseURL string `yaml:"public_base_url"`
		HTTPPort      int    `yaml:"http_port"`
		GRPCPort      int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
	} `yaml:"dependencies"`
	Upstreams struct {
		OfferService    string `yaml:"offer_service"`
		SettingsService string `yaml:"settings_service"`
		CompanyService  string `yaml:"company_service"`
		PaymentService  string `yaml:"payment_service"`
		ProfileService  string `yaml:"profile_service"`
	} `yaml:"upstreams"`
	Fees struct {
		PlatformPct   float64 `yaml:"platform_pct"`
		ProcessingPct float64 `yaml:"processing_pct"`
	} `yaml:"fees"`
	Fraud struct {
		MissingUserAgent   int `yaml:"missing_user_agent"`
		BotUserAgent       int `yaml:"bot_user_agent"`
		VelocityBase       int `yaml:"velocity_base"`
		VelocityPerClick   int `yaml:"velocity_per_click"`
		VelocityMax        int `yaml:"velocity_max"`
		MissingReferrer    int `yaml:"missing_referrer"`
		SelfClick          int `yaml:"self_click"`
		MissingClientIP    int `yaml:"missing_client_ip"`
		VelocityThreshold  int `yaml:"velocity_threshold"`
		ExclusionThreshold int `yaml:"exclusion_threshold"`
	} `yaml:"fraud"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:               "M88-Tracking-Attribution-Service",
		PublicBaseURL:           "https://platform.com",
		HTTPPort:                8088,
		GRPCPort:                9088,
		DLQTopic:                "tracking-attribution-service.dlq",
		DefaultPlatformFeePct:   0.04,
		DefaultProcessingFeePct: 0.03,
		Fraud:                   domain.DefaultFraudWeights(),
		FeeCacheTTL:             5 * time.Minute,
		ReplayWindow:            5 * time.Minute,
		VelocityWindow:          time.Minute,
		DownstreamTimeout:       3 * time.Second,
		CodeIssueAttempts:       5,
		ClickBufferSize:         1024,
		MaxDBConns:              20,
		OutboxPollInterval:      2 * time.Second,
		OutboxBatchSize:         100,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.PublicBaseURL != "" {
			cfg.PublicBaseURL = f.Service.PublicBaseURL
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
		}
		if f.Upstreams.OfferService != "" {
			cfg.OfferServiceEndpoint = f.Upstreams.OfferService
		}
		if f.Upstreams.SettingsService != "" {
			cfg.SettingsServiceEndpoint = f.Upstreams.SettingsService
		}
		if f.Upstreams.CompanyService != "" {
			cfg.CompanyServiceEndpoint = f.Upstreams.CompanyService
		}
		if f.Upstreams.PaymentService != "" {
			cfg.PaymentServiceEndpoint = f.Upstreams.PaymentService
		}
		if f.Upstreams.ProfileService != "" {
			cfg.ProfileServiceEndpoint = f.Upstreams.ProfileService
		}
		if f.Fees.PlatformPct > 0 {
			cfg.DefaultPlatformFeePct = f.Fees.PlatformPct
		}
		if f.Fees.ProcessingPct > 0 {
			cfg.DefaultProcessingFeePct = f.Fees.ProcessingPct
		}
		if f.Fraud.MissingUserAgent > 0 {
			cfg.Fraud.MissingUserAgent = f.Fraud.MissingUserAgent
		}
		if f.Fraud.BotUserAgent > 0 {
			cfg.Fraud.BotUserAgent = f.Fraud.BotUserAgent
		}
		if f.Fraud.VelocityBase > 0 {
			cfg.Fraud.VelocityBase = f.Fraud.VelocityBase
		}
		if f.Fraud.VelocityPerClick > 0 {
			cfg.Fraud.VelocityPerClick = f.Fraud.VelocityPerClick
		}
		if f.Fraud.VelocityMax > 0 {
			cfg.Fraud.VelocityMax = f.Fraud.VelocityMax
		}
		if f.Fraud.MissingReferrer > 0 {
			cfg.Fraud.MissingReferrer = f.Fraud.MissingReferrer
		}
		if f.Fraud.SelfClick > 0 {
			cfg.Fraud.SelfClick = f.Fraud.SelfClick
		}
		if f.Fraud.MissingClientIP > 0 {
			cfg.Fraud.MissingClientIP = f.Fraud.MissingClientIP
		}
		if f.Fraud.VelocityThreshold > 0 {
			cfg.Fraud.VelocityThreshold = f.Fraud.VelocityThreshold
		}
		if f.Fraud.ExclusionThreshold > 0 {
			cfg.Fraud.ExclusionThreshold = f.Fraud.ExclusionThreshold
		}
	}

	cfg.PublicBaseURL = strings.TrimRight(envOrDefault("PUBLIC_BASE_URL", cfg.PublicBaseURL), "/")
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.DLQTopic = envOrDefault("DLQ_TOPIC", cfg.DLQTopic)

	cfg.OfferServiceEndpoint = envOrDefault("OFFER_SERVICE_ENDPOINT", cfg.OfferServiceEndpoint)
	cfg.SettingsServiceEndpoint = envOrDefault("SETTINGS_SERVICE_ENDPOINT", cfg.SettingsServiceEndpoint)
	cfg.CompanyServiceEndpoint = envOrDefault("COMPANY_SERVICE_ENDPOINT", cfg.CompanyServiceEndpoint)
	cfg.PaymentServiceEndpoint = envOrDefault("PAYMENT_SERVICE_ENDPOINT", cfg.PaymentServiceEndpoint)
	cfg.ProfileServiceEndpoint = envOrDefault("PROFILE_SERVICE_ENDPOINT", cfg.ProfileServiceEndpoint)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.ClickBufferSize = envInt("CLICK_BUFFER_SIZE", cfg.ClickBufferSize)
	cfg.CodeIssueAttempts = envInt("CODE_ISSUE_ATTEMPTS", cfg.CodeIssueAttempts)

	cfg.DefaultPlatformFeePct = envFloat("PLATFORM_FEE_PCT", cfg.DefaultPlatformFeePct)
	cfg.DefaultProcessingFeePct = envFloat("PROCESSING_FEE_PCT", cfg.DefaultProcessingFeePct)
	cfg.Fraud.VelocityThreshold = envInt("FRAUD_VELOCITY_THRESHOLD", cfg.Fraud.VelocityThreshold)
	cfg.Fraud.ExclusionThreshold = envInt("FRAUD_EXCLUSION_THRESHOLD", cfg.Fraud.ExclusionThreshold)

	cfg.FeeCacheTTL = time.Duration(envInt("FEE_CACHE_TTL_SECONDS", int(cfg.FeeCacheTTL.Seconds()))) * time.Second
	cfg.ReplayWindow = time.Duration(envInt("REPLAY_WINDOW_SECONDS", int(cfg.ReplayWindow.Seconds()))) * time.Second
	cfg.VelocityWindow = time.Duration(envInt("VELOCITY_WINDOW_SECONDS", int(cfg.VelocityWindow.Seconds()))) * time.Second
	cfg.DownstreamTimeout = time.Duration(envInt("DOWNSTREAM_TIMEOUT_SECONDS", int(cfg.DownstreamTimeout.Seconds()))) * time.Second
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envFloat parses float env vars with safe fallback on empty/invalid values.
func envFloat(name string, fallback float64) float64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
