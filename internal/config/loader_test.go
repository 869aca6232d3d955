package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(&logger, path)
	require.NoError(t, err)

	assert.Equal(t, path, resolved)
	assert.Equal(t, Default(), cfg)
	assert.FileExists(t, path)
}

func TestLoadReadsFileAndEnvOverrides(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`addr: ":9000"
send_timeout: 2s
fanout_concurrency: 8
cors_origins:
  - http://localhost:4200
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CHATRELAY_FANOUT_CONCURRENCY", "16")
	t.Setenv("CHATRELAY_LOG_LEVEL", "debug")

	cfg, _, err := Load(&logger, path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 2*time.Second, cfg.SendTimeout)
	assert.Equal(t, 16, cfg.FanoutConcurrency)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"http://localhost:4200"}, cfg.CORSOrigins)
	assert.Equal(t, Default().MaxMessageBytes, cfg.MaxMessageBytes)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: [unterminated"), 0o600))

	_, _, err := Load(&logger, path)
	assert.Error(t, err)
}

func TestUpdateFromKeepsZeroValues(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":1234", LogLevel: "warn"})

	assert.Equal(t, ":1234", cfg.Addr)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, Default().SendTimeout, cfg.SendTimeout)
	assert.Equal(t, Default().CORSOrigins, cfg.CORSOrigins)
}

func TestDefaultLeavesRateLimitOff(t *testing.T) {
	cfg := Default()

	assert.Zero(t, cfg.RateLimitPerSecond)
}
