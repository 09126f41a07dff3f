package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.State.Backend)
	assert.Equal(t, 14*24*time.Hour, cfg.Cache.ContactTTL)
	assert.Equal(t, 2, cfg.Preload.Radius)
	assert.False(t, cfg.Database.Postgres.Enabled())
	assert.Equal(t, 10, cfg.Server.RateLimit.Burst)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: 9090
state:
  backend: redis
cache:
  banner_ttl: 1m
admin:
  user_ids: ["a", "b"]
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("UPSTREAM_BASE_URL", "https://api.example.test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.State.Backend)
	assert.Equal(t, time.Minute, cfg.Cache.BannerTTL)
	assert.Equal(t, []string{"a", "b"}, cfg.Admin.UserIDs)
	assert.Equal(t, "https://api.example.test", cfg.Upstream.BaseURL)
}
