package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsFromEnv(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "sqlite:///tmp/openact.db")
	t.Setenv(EnvEncKey, "base64keymaterial")
	t.Setenv(EnvSecretsFile, "/etc/openact/secrets.json")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite:///tmp/openact.db", cfg.DatabaseURL)
	assert.Equal(t, "base64keymaterial", cfg.EncKeyBase64)
	assert.Equal(t, "/etc/openact/secrets.json", cfg.SecretsFile)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestLoad_RedisURLDefaultsEmpty(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_DefaultDatabase(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, defaultDatabase, cfg.DatabaseURL)
}
