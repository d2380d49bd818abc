package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "claude", cfg.LLM.Provider)
	assert.Equal(t, 4, cfg.Gateway.MaxConcurrent)
	assert.Equal(t, 60, cfg.Gateway.RateLimit)
	assert.Equal(t, 5, cfg.Gateway.MaxRetries)
	assert.Equal(t, 2, cfg.VectorStore.TopK)
	assert.Equal(t, "resume_cache.json", cfg.Cache.Filename)
	assert.Equal(t, 15*time.Minute, cfg.Downloads.TTL)
	assert.Equal(t, 10, cfg.BackgroundTasks.MaxConcurrentTasks)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
server:
  port: 9090
  host: 127.0.0.1
llm:
  provider: gemini
  model: gemini-2.0-flash
gateway:
  max_concurrent: 8
  rate_limit: 0
downloads:
  ttl: 5m
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, 8, cfg.Gateway.MaxConcurrent)
	assert.Equal(t, 0, cfg.Gateway.RateLimit)
	assert.Equal(t, 5*time.Minute, cfg.Downloads.TTL)

	// Values the file omits keep their defaults
	assert.Equal(t, 5, cfg.Gateway.MaxRetries)
	assert.Equal(t, 8192, cfg.LLM.MaxTokens)
}

func TestLoadConfigExpandsYAMLEnvVars(t *testing.T) {
	t.Setenv("TEST_SIGNING_SECRET", "super-secret")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
downloads:
  signing_secret: ${TEST_SIGNING_SECRET}
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "super-secret", cfg.Downloads.SigningSecret)
}

func TestLoadConfigUnsetEnvVarLeftVerbatim(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
downloads:
  signing_secret: ${DEFINITELY_NOT_SET_ANYWHERE}
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "${DEFINITELY_NOT_SET_ANYWHERE}", cfg.Downloads.SigningSecret)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("LLM_API_KEY", "key-from-env")
	t.Setenv("GATEWAY_RATE_LIMIT", "120")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_TIMEOUT", "10s")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "key-from-env", cfg.LLM.APIKey)
	assert.Equal(t, 120, cfg.Gateway.RateLimit)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Redis.Timeout)
}

func TestLoadConfigEnvBeatsYAML(t *testing.T) {
	t.Setenv("PORT", "7001")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("EXPAND_A", "alpha")
	t.Setenv("EXPAND_B", "beta")

	assert.Equal(t, "alpha", expandEnvVars("${EXPAND_A}"))
	assert.Equal(t, "beta", expandEnvVars("$EXPAND_B"))
	assert.Equal(t, "alpha-beta", expandEnvVars("${EXPAND_A}-$EXPAND_B"))
	assert.Equal(t, "no vars here", expandEnvVars("no vars here"))
}
