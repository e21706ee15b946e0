package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, "openai", opts.LLMProvider)
	assert.Equal(t, "http://localhost:11434", opts.LLMBaseURL)
	assert.Equal(t, "qwen2.5:7b", opts.LLMModel)
	assert.Equal(t, 4, opts.Workers)
	assert.Equal(t, 200, opts.SnippetMaxLen)
	assert.Equal(t, 2, opts.LineTolerance)
}

func TestToolDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.DisabledTools = []string{"codeql", "bandit"}

	assert.True(t, opts.ToolDisabled("codeql"))
	assert.True(t, opts.ToolDisabled("bandit"))
	assert.False(t, opts.ToolDisabled("semgrep"))
}

func TestConfigRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.SelectedProvider)

	cfg.SelectedProvider = "gemini"
	cfg.SelectedModel = "gemini-pro"
	cfg.SetAPIKey("gemini", "test-key")
	cfg.SetBaseURL("openai", "http://llm.internal:8080")
	require.NoError(t, SaveConfig(cfg))

	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "gemini", loaded.SelectedProvider)
	assert.Equal(t, "gemini-pro", loaded.SelectedModel)
	assert.Equal(t, "test-key", loaded.GetAPIKey("gemini"))
	assert.Equal(t, "http://llm.internal:8080", loaded.GetBaseURL("openai"))
	assert.Empty(t, loaded.GetAPIKey("anthropic"))
}
