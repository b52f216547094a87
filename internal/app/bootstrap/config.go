package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the settlement service.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string

	Currency           string
	DecayRatio         float64
	SignalPool         int64
	PartnerPool        int64
	MinWithdrawal      int64
	OTPTTL             time.Duration
	CodeDispatchLimit  int
	CodeDispatchWindow time.Duration
	IdempotencyTTL     time.Duration

	NotificationTarget string

	MaxDBConns         int32
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimTTL     time.Duration
	OutboxMaxRetries   int
	SweepInterval      time.Duration
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL        string   `yaml:"postgres_url"`
		RedisURL           string   `yaml:"redis_url"`
		KafkaBrokers       []string `yaml:"kafka_brokers"`
		NotificationTarget string   `yaml:"notification_target"`
	} `yaml:"dependencies"`
	Settlement struct {
		Currency      string  `yaml:"currency"`
		DecayRatio    float64 `yaml:"decay_ratio"`
		SignalPool    int64   `yaml:"signal_pool"`
		PartnerPool   int64   `yaml:"partner_pool"`
		MinWithdrawal int64   `yaml:"min_withdrawal"`
	} `yaml:"settlement"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:          "Settlement-Service",
		HTTPPort:           8080,
		GRPCPort:           9090,
		Currency:           "THB",
		DecayRatio:         0.8,
		SignalPool:         300,
		PartnerPool:        500,
		MinWithdrawal:      350,
		OTPTTL:             5 * time.Minute,
		CodeDispatchLimit:  5,
		CodeDispatchWindow: time.Hour,
		IdempotencyTTL:     24 * time.Hour,
		MaxDBConns:         20,
		OutboxPollInterval: 2 * time.Second,
		OutboxBatchSize:    100,
		OutboxClaimTTL:     30 * time.Second,
		OutboxMaxRetries:   5,
		SweepInterval:      time.Minute,
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
		if f.Dependencies.NotificationTarget != "" {
			cfg.NotificationTarget = f.Dependencies.NotificationTarget
		}
		if f.Settlement.Currency != "" {
			cfg.Currency = f.Settlement.Currency
		}
		if f.Settlement.DecayRatio > 0 && f.Settlement.DecayRatio < 1 {
			cfg.DecayRatio = f.Settlement.DecayRatio
		}
		if f.Settlement.SignalPool > 0 {
			cfg.SignalPool = f.Settlement.SignalPool
		}
		if f.Settlement.PartnerPool > 0 {
			cfg.PartnerPool = f.Settlement.PartnerPool
		}
		if f.Settlement.MinWithdrawal > 0 {
			cfg.MinWithdrawal = f.Settlement.MinWithdrawal
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.NotificationTarget = envOrDefault("NOTIFICATION_GRPC_TARGET", cfg.NotificationTarget)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.Currency = envOrDefault("SETTLEMENT_CURRENCY", cfg.Currency)
	cfg.SignalPool = int64(envInt("SIGNAL_COMMISSION_POOL", int(cfg.SignalPool)))
	cfg.PartnerPool = int64(envInt("PARTNER_COMMISSION_POOL", int(cfg.PartnerPool)))
	cfg.MinWithdrawal = int64(envInt("MIN_WITHDRAWAL", int(cfg.MinWithdrawal)))
	cfg.OTPTTL = time.Duration(envInt("WITHDRAWAL_CODE_TTL_SECONDS", int(cfg.OTPTTL.Seconds()))) * time.Second
	cfg.CodeDispatchLimit = envInt("WITHDRAWAL_CODE_SEND_LIMIT", cfg.CodeDispatchLimit)
	cfg.CodeDispatchWindow = time.Duration(envInt("WITHDRAWAL_CODE_SEND_WINDOW_SECONDS", int(cfg.CodeDispatchWindow.Seconds()))) * time.Second
	cfg.IdempotencyTTL = time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", int(cfg.IdempotencyTTL.Hours()))) * time.Hour

	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxClaimTTL = time.Duration(envInt("OUTBOX_CLAIM_TTL_SECONDS", int(cfg.OutboxClaimTTL.Seconds()))) * time.Second
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)
	cfg.SweepInterval = time.Duration(envInt("WITHDRAWAL_SWEEP_SECONDS", int(cfg.SweepInterval.Seconds()))) * time.Second

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}

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
