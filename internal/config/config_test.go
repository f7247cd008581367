package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "fintrack.db", c.DatabaseDSN)
	assert.Equal(t, 30*time.Second, c.SyncInterval)
	assert.Equal(t, 5*time.Minute, c.SafetyBuffer)
	assert.Equal(t, 2*time.Minute, c.SyncTimeout)
}

func TestLoadConfig_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("FINTRACK_REMOTE_ENDPOINT", "https://api.example.com")
	t.Setenv("FINTRACK_API_KEY", "k1")
	t.Setenv("FINTRACK_SYNC_INTERVAL", "45s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.RemoteEndpoint)
	assert.Equal(t, "k1", cfg.APIKey)
	assert.Equal(t, 45*time.Second, cfg.SyncInterval)
	// untouched by env
	assert.Equal(t, 5*time.Minute, cfg.SafetyBuffer)
}

func TestLoadConfig_InvalidEnvDuration(t *testing.T) {
	t.Setenv("FINTRACK_SYNC_INTERVAL", "soon")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfig_JsonThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"remote_endpoint": "https://json.example.com",
		"database_dsn": "replica.db",
		"sync_interval": "10s",
		"safety_buffer": 60000000000
	}`), 0o600))

	t.Setenv("FINTRACK_CONFIG", path)
	t.Setenv("FINTRACK_REMOTE_ENDPOINT", "https://env.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	// env wins over json
	assert.Equal(t, "https://env.example.com", cfg.RemoteEndpoint)
	// json wins over defaults
	assert.Equal(t, "replica.db", cfg.DatabaseDSN)
	assert.Equal(t, 10*time.Second, cfg.SyncInterval)
	// integer nanoseconds accepted
	assert.Equal(t, time.Minute, cfg.SafetyBuffer)
}

func TestLoadConfig_BadJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sync_interval": "soon"}`), 0o600))
	t.Setenv("FINTRACK_CONFIG", path)

	_, err := LoadConfig()
	require.Error(t, err)
}
