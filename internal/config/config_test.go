package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 12000, cfg.Transcript.TokenBudget)
	assert.Equal(t, "localhost:4000", cfg.Session.Addr())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
session:
  host: mud.example.org
  port: 5555
llm:
  provider: openai
  model: gpt-4o
  timeout: 90s
transcript:
  token_budget: 4000
approval:
  required: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mud.example.org:5555", cfg.Session.Addr())
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 90*time.Second, cfg.LLM.TimeoutDuration())
	assert.Equal(t, 4000, cfg.Transcript.TokenBudget)
	assert.True(t, cfg.Approval.Required)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [broken"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrideAPIKey(t *testing.T) {
	t.Setenv("MUDMIND_API_KEY", "from-env")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
}

func TestProviderEnvFallback(t *testing.T) {
	t.Setenv("MUDMIND_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "claude-key")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "claude-key", cfg.LLM.APIKey)
}

func TestTimeoutFallback(t *testing.T) {
	l := LLMConfig{Timeout: "not-a-duration"}
	assert.Equal(t, 2*time.Minute, l.TimeoutDuration())
}
