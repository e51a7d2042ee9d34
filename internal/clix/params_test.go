package clix

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkedlens/internal/models"
)

func TestParseList(t *testing.T) {
	flags := pflag.NewFlagSet("t", pflag.ContinueOnError)
	flags.String("selectors", "", "")
	require.NoError(t, flags.Parse([]string{"--selectors", " a , ,b,"}))

	got, err := ParseList(flags, "selectors")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	_, err = ParseList(flags, "missing")
	assert.Error(t, err)
}

func llmFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("t", pflag.ContinueOnError)
	AddLLMFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestParseLLMConfig(t *testing.T) {
	cfg, err := ParseLLMConfig(llmFlags(t, "--provider", "Ollama", "--url", "http://localhost:11434", "--model", "llama3"), nil)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderOllama, cfg.Provider)
	assert.Equal(t, "http://localhost:11434", cfg.Settings.URL)

	// Only the given flags change an existing config.
	updated, err := ParseLLMConfig(llmFlags(t, "--model", "mistral"), &cfg)
	require.NoError(t, err)
	assert.Equal(t, "mistral", updated.Settings.Model)
	assert.Equal(t, "http://localhost:11434", updated.Settings.URL)

	// Switching provider starts from empty settings.
	switched, err := ParseLLMConfig(llmFlags(t, "--provider", "gemini", "--api-key", "k"), &cfg)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderSettings{APIKey: "k"}, switched.Settings)
}

func TestParseLLMConfig_Errors(t *testing.T) {
	_, err := ParseLLMConfig(llmFlags(t, "--provider", "claude"), nil)
	assert.Error(t, err)

	_, err = ParseLLMConfig(llmFlags(t, "--model", "x"), nil)
	assert.Error(t, err)
}
