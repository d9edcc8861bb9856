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
	t.Setenv(ConfigPathEnvVar, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.ServerPort)
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 3, cfg.TxMaxAttempts)
	assert.Equal(t, 10, cfg.ItemsPerPage)
	assert.Equal(t, "noreply@streamvault.com", cfg.MailDefaultSender)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("PORT", "8080")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("TX_MAX_ATTEMPTS", "5")
	t.Setenv("MAIL_PORT", "465")
	t.Setenv("MAIL_USE_TLS", "false")
	t.Setenv("MAIL_USE_SSL", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.False(t, cfg.CacheEnabled)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 5, cfg.TxMaxAttempts)
	assert.Equal(t, 465, cfg.MailPort)
	assert.True(t, cfg.MailUseSSL)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streamvault.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9000\"\nitems_per_page: 25\n"), 0o600))
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("ITEMS_PER_PAGE", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, 50, cfg.ItemsPerPage)
}

func TestLoadValidates(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("TX_MAX_ATTEMPTS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TX_MAX_ATTEMPTS")
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.TxMaxAttempts = 0
	cfg.MailUseSSL = true
	cfg.Environment = "production"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TX_MAX_ATTEMPTS")
	assert.Contains(t, err.Error(), "mutually exclusive")
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}
