package models

import (
	"strings"
)

// Category is a user-defined bucket a post can be assigned to.
type Category struct {
	ID          string `mapstructure:"id" json:"id"`
	Name        string `mapstructure:"name" json:"name"`
	Description string `mapstructure:"description" json:"description"`
}

// MatchKey is the normalised form used when comparing LLM output against the name.
func (c Category) MatchKey() string {
	return strings.ToLower(strings.TrimSpace(c.Name))
}

// ProviderKind selects the LLM backend.
type ProviderKind string

const (
	ProviderOllama ProviderKind = "ollama" // local model server
	ProviderGemini ProviderKind = "gemini"
	ProviderOpenAI ProviderKind = "openai"
)

// ProviderSettings carries the per-provider fields stored under llmConfig.config.
// Which fields matter depends on the provider; see RequiredFields.
type ProviderSettings struct {
	URL          string `mapstructure:"url" json:"url,omitempty"`
	Model        string `mapstructure:"model" json:"model,omitempty"`
	APIKey       string `mapstructure:"apiKey" json:"apiKey,omitempty"`
	Organization string `mapstructure:"organization" json:"organization,omitempty"`
	// BaseURL overrides the hosted API root (self-hosted gateways, tests).
	BaseURL string `mapstructure:"baseUrl" json:"baseUrl,omitempty"`
}

// LLMConfig is the llmConfig record of the settings store.
type LLMConfig struct {
	Provider ProviderKind     `mapstructure:"provider" json:"provider"`
	Settings ProviderSettings `mapstructure:"config" json:"config"`
}

// RequiredFields lists the settings a provider cannot work without.
func (k ProviderKind) RequiredFields() []string {
	switch k {
	case ProviderOllama:
		return []string{"url", "model"}
	case ProviderGemini, ProviderOpenAI:
		return []string{"apiKey", "model"}
	default:
		return nil
	}
}

// MissingFields returns the required fields that are empty for the selected provider.
// An unknown provider reports "provider" as missing.
func (c *LLMConfig) MissingFields() []string {
	if c == nil {
		return []string{"provider"}
	}
	required := c.Provider.RequiredFields()
	if required == nil {
		return []string{"provider"}
	}
	var missing []string
	for _, field := range required {
		if strings.TrimSpace(c.Settings.value(field)) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// IsConfigured reports whether the provider-specific required fields are all present.
func (c *LLMConfig) IsConfigured() bool {
	return len(c.MissingFields()) == 0
}

func (s ProviderSettings) value(field string) string {
	switch field {
	case "url":
		return s.URL
	case "model":
		return s.Model
	case "apiKey":
		return s.APIKey
	case "organization":
		return s.Organization
	}
	return ""
}

// UsageStats mirrors the linkedlensStats record. The pipeline never reads it.
type UsageStats struct {
	PostsProcessed int64 `mapstructure:"postsProcessed" json:"postsProcessed"`
	LLMCalls       int64 `mapstructure:"llmCalls" json:"llmCalls"`
	InputTokens    int64 `mapstructure:"inputTokens" json:"inputTokens"`
	OutputTokens   int64 `mapstructure:"outputTokens" json:"outputTokens"`
}

// TokenUsage is what a hosted provider reports for a single call.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}
