package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "narrator:\n  default_token: abc\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "abc", cfg.Narrator.DefaultToken)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, "https://api.dexscreener.com", cfg.PriceFeed.BaseURL)
	assert.Equal(t, 10, cfg.PriceFeed.Timeout)
	assert.True(t, cfg.AudioByDefault())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: from-yaml
  model: custom-model
narrator:
  default_token: yaml-token
  audio_default: true
`)
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("TOKEN_ADDRESS", "env-token")
	t.Setenv("NARRATOR_AUDIO_DEFAULT", "false")
	t.Setenv("DATABASE_URL", "postgres://localhost/beats")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, "custom-model", cfg.LLM.Model)
	assert.Equal(t, "env-token", cfg.Narrator.DefaultToken)
	assert.False(t, cfg.AudioByDefault())
	assert.Equal(t, "postgres://localhost/beats", cfg.DB.Source)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
