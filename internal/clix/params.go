package clix

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"linkedlens/internal/models"
)

// ParseList reads a comma-separated flag. Blank entries are dropped.
func ParseList(flags *pflag.FlagSet, name string) ([]string, error) {
	raw, err := flags.GetString(name)
	if err != nil {
		return nil, err
	}
	var out []string
	if raw != "" {
		// Trim space and filter out empty strings in one pass
		for _, t := range strings.Split(raw, ",") {
			trimmed := strings.TrimSpace(t)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out, nil
}

// AddLLMFlags registers the flags read by ParseLLMConfig.
func AddLLMFlags(flags *pflag.FlagSet) {
	flags.String("provider", "", "LLM provider (ollama, gemini, openai)")
	flags.String("url", "", "Ollama server URL, e.g. http://localhost:11434")
	flags.String("model", "", "Model name")
	flags.String("api-key", "", "API key for hosted providers")
	flags.String("organization", "", "OpenAI organization id")
	flags.String("base-url", "", "Override the hosted API root")
}

// ParseLLMConfig builds an LLM config from the flags added by AddLLMFlags, starting from
// current so that only the flags given on the command line change anything.
func ParseLLMConfig(flags *pflag.FlagSet, current *models.LLMConfig) (models.LLMConfig, error) {
	var cfg models.LLMConfig
	if current != nil {
		cfg = *current
	}

	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
			*dst = strings.TrimSpace(*dst)
		}
	}
	var provider string
	str("provider", &provider)
	if provider != "" {
		kind := models.ProviderKind(strings.ToLower(provider))
		if kind.RequiredFields() == nil {
			return models.LLMConfig{}, fmt.Errorf("unknown provider %q (want ollama, gemini or openai)", provider)
		}
		if kind != cfg.Provider {
			cfg.Settings = models.ProviderSettings{}
		}
		cfg.Provider = kind
	}
	if cfg.Provider == "" {
		return models.LLMConfig{}, fmt.Errorf("--provider is required")
	}

	str("url", &cfg.Settings.URL)
	str("model", &cfg.Settings.Model)
	str("api-key", &cfg.Settings.APIKey)
	str("organization", &cfg.Settings.Organization)
	str("base-url", &cfg.Settings.BaseURL)
	return cfg, nil
}
