package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string

	MaxDBConns         int32
	KafkaConsumerGroup string

	OutboxPollInterval   time.Duration
	OutboxBatchSize      int
	ConsumerPollInterval time.Duration

	DefaultModel           string
	ModelOverrides         map[string]string
	AttributionWindowDays  int
	ApyWindowDays          int
	PoolCacheTTL           time.Duration
	IdempotencyTTL         time.Duration
	EventDedupTTL          time.Duration
	EnableAutoDistribution bool
}

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
		KafkaConsumerGroup string   `yaml:"kafka_consumer_group"`
	} `yaml:"dependencies"`
	Attribution struct {
		DefaultModel   string            `yaml:"default_model"`
		WindowDays     int               `yaml:"window_days"`
		ModelOverrides map[string]string `yaml:"model_overrides"`
	} `yaml:"attribution"`
	Staking struct {
		ApyWindowDays          int   `yaml:"apy_window_days"`
		PoolCacheSeconds       int   `yaml:"pool_cache_seconds"`
		EnableAutoDistribution *bool `yaml:"enable_auto_distribution"`
	} `yaml:"staking"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:              "influencer-staking",
		HTTPPort:               8080,
		GRPCPort:               9090,
		MaxDBConns:             20,
		KafkaConsumerGroup:     "influencer-staking",
		OutboxPollInterval:     2 * time.Second,
		OutboxBatchSize:        100,
		ConsumerPollInterval:   2 * time.Second,
		DefaultModel:           "LAST_CLICK",
		AttributionWindowDays:  30,
		ApyWindowDays:          30,
		PoolCacheTTL:           30 * time.Second,
		IdempotencyTTL:         7 * 24 * time.Hour,
		EventDedupTTL:          7 * 24 * time.Hour,
		EnableAutoDistribution: true,
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
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Dependencies.KafkaConsumerGroup != "" {
			cfg.KafkaConsumerGroup = f.Dependencies.KafkaConsumerGroup
		}
		if f.Attribution.DefaultModel != "" {
			cfg.DefaultModel = f.Attribution.DefaultModel
		}
		if f.Attribution.WindowDays > 0 {
			cfg.AttributionWindowDays = f.Attribution.WindowDays
		}
		if len(f.Attribution.ModelOverrides) > 0 {
			cfg.ModelOverrides = f.Attribution.ModelOverrides
		}
		if f.Staking.ApyWindowDays > 0 {
			cfg.ApyWindowDays = f.Staking.ApyWindowDays
		}
		if f.Staking.PoolCacheSeconds > 0 {
			cfg.PoolCacheTTL = time.Duration(f.Staking.PoolCacheSeconds) * time.Second
		}
		if f.Staking.EnableAutoDistribution != nil {
			cfg.EnableAutoDistribution = *f.Staking.EnableAutoDistribution
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaConsumerGroup = envOrDefault("KAFKA_CONSUMER_GROUP", cfg.KafkaConsumerGroup)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.ConsumerPollInterval = time.Duration(envInt("CONSUMER_POLL_SECONDS", int(cfg.ConsumerPollInterval.Seconds()))) * time.Second
	cfg.DefaultModel = envOrDefault("ATTRIBUTION_DEFAULT_MODEL", cfg.DefaultModel)
	cfg.AttributionWindowDays = envInt("ATTRIBUTION_WINDOW_DAYS", cfg.AttributionWindowDays)
	cfg.ApyWindowDays = envInt("APY_WINDOW_DAYS", cfg.ApyWindowDays)
	cfg.PoolCacheTTL = time.Duration(envInt("POOL_CACHE_SECONDS", int(cfg.PoolCacheTTL.Seconds()))) * time.Second
	cfg.IdempotencyTTL = time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", int(cfg.IdempotencyTTL.Hours()))) * time.Hour
	cfg.EventDedupTTL = time.Duration(envInt("EVENT_DEDUP_TTL_HOURS", int(cfg.EventDedupTTL.Hours()))) * time.Hour
	cfg.EnableAutoDistribution = envBool("ENABLE_AUTO_DISTRIBUTION", cfg.EnableAutoDistribution)

	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

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

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return trimNonEmpty(strings.Split(raw, ","))
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
