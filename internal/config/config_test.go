package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/blueprint/internal/config"
	"github.com/aretw0/blueprint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blueprint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, config.DriverFile, cfg.Store.Driver)
	assert.Equal(t, filepath.Join(".blueprint", "sessions"), filepath.FromSlash(cfg.Store.Dir))
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 256, cfg.Scoring.CacheSize)
	assert.Equal(t, config.ProviderAnthropic, cfg.Capabilities.Primary.Provider)
	assert.Equal(t, config.ProviderGemini, cfg.Capabilities.Fallback.Provider)
	assert.False(t, cfg.Capabilities.Offline)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
store:
  driver: redis
  redis:
    addr: cache:6379
    ttl: 90m
http:
  port: 9000
`)
	t.Setenv("BLUEPRINT_HTTP__PORT", "9100")
	t.Setenv("BLUEPRINT_SCORING__CACHE_SIZE", "0")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "cache:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 90*time.Minute, cfg.Store.Redis.TTL)
	assert.Equal(t, "blueprint:lock:", cfg.Store.Redis.LockPrefix)
	assert.Equal(t, 9100, cfg.HTTP.Port, "environment overrides the file")
	assert.Equal(t, 0, cfg.Scoring.CacheSize)
}

func TestLoad_ProviderKeysFromConventionalEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := config.Load(writeConfig(t, "{}"))
	require.NoError(t, err)
	assert.Equal(t, "sk-ant", cfg.Capabilities.Primary.APIKey)
	assert.Equal(t, "g-key", cfg.Capabilities.Fallback.APIKey)

	t.Setenv("BLUEPRINT_CAPABILITIES__PRIMARY__API_KEY", "explicit")
	cfg, err = config.Load(writeConfig(t, "{}"))
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.Capabilities.Primary.APIKey)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_RejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"driver", "store:\n  driver: etcd\n"},
		{"provider", "capabilities:\n  fallback:\n    provider: openai\n"},
		{"port", "http:\n  port: 70000\n"},
		{"cache", "scoring:\n  cache_size: -1\n"},
		{"redis addr", "store:\n  driver: redis\n  redis:\n    addr: \"\"\n"},
		{"redis lock prefix", "store:\n  driver: redis\n  redis:\n    lock_prefix: \"blueprint:session:lock:\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}
