package store

import (
	"context"
	"fmt"

	"linkedlens/internal/models"
)

// LLMSettings reads and writes the llmConfig record.
type LLMSettings struct {
	kv KeyValueStore
}

func NewLLMSettings(kv KeyValueStore) *LLMSettings {
	return &LLMSettings{kv: kv}
}

// LLMConfig returns the stored provider configuration, or nil when none is stored.
func (s *LLMSettings) LLMConfig(ctx context.Context) (*models.LLMConfig, error) {
	values, err := s.kv.Get(ctx, KeyLLMConfig)
	if err != nil {
		return nil, fmt.Errorf("read llm config: %w", err)
	}
	raw, ok := values[KeyLLMConfig]
	if !ok || raw == nil {
		return nil, nil
	}
	var cfg models.LLMConfig
	if err := decodeValue(KeyLLMConfig, raw, &cfg); err != nil {
		return nil, err
	}
	if cfg.Provider == "" {
		return nil, nil
	}
	return &cfg, nil
}

// SaveLLMConfig replaces the stored provider configuration.
func (s *LLMSettings) SaveLLMConfig(ctx context.Context, cfg models.LLMConfig) error {
	settings := map[string]any{}
	put := func(k, v string) {
		if v != "" {
			settings[k] = v
		}
	}
	put("url", cfg.Settings.URL)
	put("model", cfg.Settings.Model)
	put("apiKey", cfg.Settings.APIKey)
	put("organization", cfg.Settings.Organization)
	put("baseUrl", cfg.Settings.BaseURL)

	record := map[string]any{
		"provider": string(cfg.Provider),
		"config":   settings,
	}
	if err := s.kv.Set(ctx, map[string]any{KeyLLMConfig: record}); err != nil {
		return fmt.Errorf("save llm config: %w", err)
	}
	return nil
}

var _ LLMConfigSource = (*LLMSettings)(nil)
