package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderdomain "github.com/dmehra2102/agro-marketplace/internal/order/domain"
)

func fromMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(fromMap(map[string]string{"JWT_SECRET": "s"}))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "order.events", cfg.OrderTopic)
	assert.Equal(t, "moderation.events", cfg.ModerationTopic)
	assert.Equal(t, 10*time.Minute, cfg.IdempotencyTTL)
	assert.Empty(t, cfg.CancelBlockedFrom)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := load(fromMap(map[string]string{
		"JWT_SECRET":          "s",
		"STORE":               "memory",
		"KAFKA_ADDR":          "k1:9092,k2:9092",
		"IDEMPOTENCY_TTL":     "90s",
		"CANCEL_BLOCKED_FROM": "en_camino",
	}))
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 90*time.Second, cfg.IdempotencyTTL)
	assert.Equal(t, orderdomain.StatusInTransit, cfg.CancelBlockedFrom)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"bad store", map[string]string{"JWT_SECRET": "s", "STORE": "sqlite"}},
		{"bad ttl", map[string]string{"JWT_SECRET": "s", "IDEMPOTENCY_TTL": "soon"}},
		{"negative ttl", map[string]string{"JWT_SECRET": "s", "IDEMPOTENCY_TTL": "-1s"}},
		{"unknown state", map[string]string{"JWT_SECRET": "s", "CANCEL_BLOCKED_FROM": "perdido"}},
		{"terminal state", map[string]string{"JWT_SECRET": "s", "CANCEL_BLOCKED_FROM": "entregado"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(fromMap(tt.env))
			assert.Error(t, err)
		})
	}
}
