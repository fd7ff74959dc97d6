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
	t.Setenv("LIMEN_STORAGE_LOCAL_DIR", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ModeLocal, cfg.Mode)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, "none", cfg.Storage.Remote)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, 12*time.Second, cfg.LLM.Timeout)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "limen.yaml")
	yaml := []byte("http:\n  port: \"9000\"\nllm:\n  timeout: 5s\n  rate_per_minute: 30\n")
	require.NoError(t, os.WriteFile(path, yaml, 0600))

	t.Setenv("LIMEN_HTTP_PORT", "9100")
	t.Setenv("LIMEN_STORAGE_LOCAL_DIR", dir)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 30, cfg.LLM.RatePerMinute)
	assert.Equal(t, dir, cfg.Storage.LocalDir)
}

func TestValidateRejectsIncompleteBackends(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Storage.Remote = "postgres"
	cfg.LLM.Provider = "gateway"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres.dsn")
	assert.Contains(t, err.Error(), "llm.gateway_url")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "mode", envKey("LIMEN_MODE"))
	assert.Equal(t, "storage.local_dir", envKey("LIMEN_STORAGE_LOCAL_DIR"))
	assert.Equal(t, "flow.generated_questions", envKey("LIMEN_FLOW_GENERATED_QUESTIONS"))
}
