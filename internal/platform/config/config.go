package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "clubreg/pkg/platform/strings"
)

// Config captures everything cmd/server needs to wire the service.
type Config struct {
	Addr     string
	LogLevel string

	// DatabaseURL selects the Postgres-backed registration store. When
	// empty the in-memory store is used (development and tests).
	DatabaseURL string

	// RedisURL selects the Redis-backed projection store. When empty the
	// projection lives in process memory.
	RedisURL string

	// KafkaBrokers enables the lifecycle-event publisher when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// AdminToken protects the decision and delete endpoints.
	AdminToken string

	PaymentBaseURL string
	PaymentAPIKey  string
	PaymentTimeout time.Duration

	MemberServiceURL     string
	MemberServiceTimeout time.Duration

	// WriteTimeout bounds each individual fallback-chain strategy attempt.
	WriteTimeout time.Duration

	// ReconcileInterval drives the background sweep for locally-ahead
	// records. Zero disables the worker.
	ReconcileInterval time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:                 envOr("CLUBREG_ADDR", ":8080"),
		LogLevel:             envOr("CLUBREG_LOG_LEVEL", "info"),
		DatabaseURL:          os.Getenv("CLUBREG_DATABASE_URL"),
		RedisURL:             os.Getenv("CLUBREG_REDIS_URL"),
		KafkaTopic:           envOr("CLUBREG_KAFKA_TOPIC", "clubreg.registration-events"),
		AdminToken:           os.Getenv("CLUBREG_ADMIN_TOKEN"),
		PaymentBaseURL:       envOr("CLUBREG_PAYMENT_URL", "http://localhost:9210"),
		PaymentAPIKey:        os.Getenv("CLUBREG_PAYMENT_API_KEY"),
		PaymentTimeout:       envDuration("CLUBREG_PAYMENT_TIMEOUT", 10*time.Second),
		MemberServiceURL:     envOr("CLUBREG_MEMBER_SERVICE_URL", "http://localhost:9220"),
		MemberServiceTimeout: envDuration("CLUBREG_MEMBER_SERVICE_TIMEOUT", 10*time.Second),
		WriteTimeout:         envDuration("CLUBREG_WRITE_TIMEOUT", 5*time.Second),
		ReconcileInterval:    envDuration("CLUBREG_RECONCILE_INTERVAL", time.Minute),
	}
	if brokers := os.Getenv("CLUBREG_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitComma(brokers)
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func splitComma(s string) []string {
	return platformstrings.DedupeAndTrim(strings.Split(s, ","))
}
