package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "minishop", cfg.ServiceName)
	assert.Equal(t, ReplayStoreMemory, cfg.ReplayStore)
	assert.Equal(t, 24*time.Hour, cfg.ReplayTTL)
	assert.Equal(t, 100000, cfg.ReplayMaxEntries)
	assert.Equal(t, 5, cfg.LowStockThreshold)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.OTLPEndpoint)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "s3cret")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("REPLAY_STORE", "redis")
	t.Setenv("REPLAY_TTL", "90m")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, ReplayStoreRedis, cfg.ReplayStore)
	assert.Equal(t, 90*time.Minute, cfg.ReplayTTL)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestValidateRejectsUnknownReplayStore(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "s3cret")
	t.Setenv("REPLAY_STORE", "memcached")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPLAY_STORE")
}
