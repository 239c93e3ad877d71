package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DASHBOARD_PLATFORMS", "X, LinkedIn")
	t.Setenv("CACHE_STALE_TIME", "45s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Address())
	assert.True(t, cfg.Server.Loopback())
	assert.Empty(t, cfg.Server.APIToken)
	assert.Equal(t, "http://localhost:3000/api", cfg.Backend.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 45*time.Second, cfg.Cache.StaleTime)
	assert.Equal(t, 168*time.Hour, cfg.Dashboard.UpcomingWindow)
	assert.Equal(t, 5, cfg.Dashboard.UpcomingLimit)
	assert.Len(t, cfg.Dashboard.Platforms, 2)
	assert.Empty(t, cfg.Database.PostgresDSN)
	assert.False(t, cfg.Refresher.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  host: 0.0.0.0
  port: "9090"
  api_token: s3cret
backend:
  base_url: https://api.example.com
refresher:
  enabled: true
  interval: 2m
log:
  level: debug
`), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Address())
	assert.False(t, cfg.Server.Loopback())
	assert.Equal(t, "s3cret", cfg.Server.APIToken)
	assert.Equal(t, "https://api.example.com", cfg.Backend.BaseURL)
	assert.True(t, cfg.Refresher.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Refresher.Interval)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
}

func TestLog_SlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, Log{Level: "verbose"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, Log{Level: "WARN"}.SlogLevel())
	assert.Equal(t, slog.LevelError, Log{Level: "error"}.SlogLevel())
}

func TestServer_Loopback(t *testing.T) {
	for host, want := range map[string]bool{
		"127.0.0.1": true,
		"::1":       true,
		"localhost": true,
		"0.0.0.0":   false,
		"":          false,
		"10.0.0.4":  false,
	} {
		assert.Equal(t, want, Server{Host: host}.Loopback(), host)
	}
}
