package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "general", cfg.DefaultRoom)
	assert.Equal(t, 100, cfg.HistoryLimit)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, 10*time.Second, cfg.RateInterval)
	assert.Equal(t, "kick", cfg.Backpressure)
	assert.Zero(t, cfg.RoomIdleTTL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
}

func TestLoadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode: test
port: 8080
default_room: lobby
backpressure: drop
room_idle_ttl: 15m
allowed_origins:
  - https://chat.example.com
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "lobby", cfg.DefaultRoom)
	assert.Equal(t, "drop", cfg.Backpressure)
	assert.Equal(t, 15*time.Minute, cfg.RoomIdleTTL)
	assert.Equal(t, []string{"https://chat.example.com"}, cfg.AllowedOrigins)
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CLIENT_URL", "https://a.example.com,https://b.example.com")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

func TestLoadFile_Invalid(t *testing.T) {
	t.Setenv("BACKPRESSURE", "ignore")

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "invalid config")
}
