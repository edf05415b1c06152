package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "/data/inventory.db", cfg.DBPath)
	assert.Empty(t, cfg.RemoteURL)
	assert.Empty(t, cfg.RemoteAPIKey)
	assert.Equal(t, "Workshop", cfg.DefaultLocation)
	assert.Equal(t, 30*time.Second, cfg.SyncInterval)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("REMOTE_URL", "https://example.test/rest/v1")
	t.Setenv("REMOTE_API_KEY", "secret")
	t.Setenv("DEFAULT_LOCATION", "Garage")
	t.Setenv("SYNC_INTERVAL", "5m")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "https://example.test/rest/v1", cfg.RemoteURL)
	assert.Equal(t, "secret", cfg.RemoteAPIKey)
	assert.Equal(t, "Garage", cfg.DefaultLocation)
	assert.Equal(t, 5*time.Minute, cfg.SyncInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadBadIntervalFallsBack(t *testing.T) {
	t.Setenv("SYNC_INTERVAL", "often")

	cfg := Load()
	assert.Equal(t, 30*time.Second, cfg.SyncInterval)
}
