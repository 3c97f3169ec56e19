package config_test

import (
	"log/slog"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/narrator/internal/config"
)

// These tests mutate the process environment, so they do not run in parallel.

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test-0123456789")
	t.Setenv("AZURE_SPEECH_KEY", "azure-key-0123456789")
	t.Setenv("AZURE_SPEECH_REGION", "eastus")
}

func TestFromEnv_Defaults(t *testing.T) {
	setValidEnv(t)

	cfg, err := config.FromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
	assert.Equal(t, 50000, cfg.Limits.MaxTextLength)
	assert.Equal(t, int64(10<<20), cfg.Limits.MaxFileSize)
	assert.Equal(t, 10*time.Second, cfg.Limits.FetchTimeout)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Speech.Timeout)
	assert.Equal(t, 4000, cfg.Limits.ContextTokens)
	assert.Equal(t, "memory", cfg.Artifact.Store)
	assert.True(t, cfg.Speech.Enabled("azure"))
	assert.False(t, cfg.Speech.Enabled("openai"))
	assert.Equal(t, cfg.LLM.OpenAIKey, cfg.Speech.OpenAIKey)
}

func TestFromEnv_Overrides(t *testing.T) {
	setValidEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("FETCH_TIMEOUT", "5")
	t.Setenv("GENERATION_TIMEOUT", "45s")
	t.Setenv("URL_ALLOW_CIDRS", "10.1.2.3/8, 192.168.5.0/24")
	t.Setenv("SPEECH_BACKENDS", "azure,openai")
	t.Setenv("RATE_LIMIT_RPS", "0.5")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, 5*time.Second, cfg.Limits.FetchTimeout)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.168.5.0/24"),
	}, cfg.Security.AllowCIDRs)
	assert.True(t, cfg.Speech.Enabled("openai"))
	assert.InDelta(t, 0.5, cfg.RateLimit.RPS, 1e-9)
}

func TestFromEnv_MalformedValues(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")
	t.Setenv("LOG_LEVEL", "chatty")
	t.Setenv("URL_ALLOW_CIDRS", "not-a-cidr")

	_, err := config.FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_PORT")
	assert.Contains(t, err.Error(), "LOG_LEVEL")
	assert.Contains(t, err.Error(), "URL_ALLOW_CIDRS")
}

func TestValidate_MissingSecrets(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("AZURE_SPEECH_KEY", "")
	t.Setenv("AZURE_SPEECH_REGION", "")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	assert.Contains(t, err.Error(), "AZURE_SPEECH_KEY")
	assert.Contains(t, err.Error(), "AZURE_SPEECH_REGION")
}

func TestValidate_ShortKeyRejected(t *testing.T) {
	setValidEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-short")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY looks invalid")
}

func TestValidate_AnthropicDefaultProvider(t *testing.T) {
	setValidEnv(t)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LLM_DEFAULT_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-0123456789")

	cfg, err := config.FromEnv()
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_UnknownStore(t *testing.T) {
	setValidEnv(t)
	t.Setenv("ARTIFACT_STORE", "s3")

	cfg, err := config.FromEnv()
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "ARTIFACT_STORE")
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("MAX_TEXT_LENGTH=1234\nSERVER_PORT=9090\n"), 0o600))
	t.Chdir(dir)

	// godotenv does not override variables that are already set
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("MAX_TEXT_LENGTH", "")
	require.NoError(t, os.Unsetenv("MAX_TEXT_LENGTH"))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 1234, cfg.Limits.MaxTextLength)
	assert.Equal(t, 7070, cfg.Server.Port)
}
