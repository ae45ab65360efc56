package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout)
	assert.Equal(t, time.Minute, cfg.ReconcileInterval)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CLUBREG_ADDR", ":9999")
	t.Setenv("CLUBREG_WRITE_TIMEOUT", "250ms")
	t.Setenv("CLUBREG_RECONCILE_INTERVAL", "30")
	t.Setenv("CLUBREG_KAFKA_BROKERS", "one:9092, two:9092 ,one:9092")

	cfg := FromEnv()

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.WriteTimeout)
	assert.Equal(t, 30*time.Second, cfg.ReconcileInterval, "bare integers are seconds")
	assert.Equal(t, []string{"one:9092", "two:9092"}, cfg.KafkaBrokers)
}

func TestEnvDurationFallsBackOnGarbage(t *testing.T) {
	t.Setenv("CLUBREG_WRITE_TIMEOUT", "soon")

	cfg := FromEnv()
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout)
}
