package store

import (
	"context"

	"linkedlens/internal/models"
)

// Keys of the settings store read or written by linkedlens.
const (
	KeyLLMConfig  = "llmConfig"
	KeyCategories = "categories"
	KeyStats      = "linkedlensStats"
)

// ChangeListener receives the keys touched by a write. A reload of the whole backing
// file reports every known key.
type ChangeListener func(changedKeys []string)

// KeyValueStore is the settings store shared with whatever edits the settings.
// Values are plain JSON-like data (maps, slices, strings, numbers).
type KeyValueStore interface {
	Get(ctx context.Context, keys ...string) (map[string]any, error)
	Set(ctx context.Context, values map[string]any) error
	OnChanged(listener ChangeListener) (unsubscribe func())
}

// CategorySource supplies the current category list.
type CategorySource interface {
	List(ctx context.Context) ([]models.Category, error)
}

// LLMConfigSource supplies the current provider configuration. A nil config with a nil
// error means nothing has been configured yet.
type LLMConfigSource interface {
	LLMConfig(ctx context.Context) (*models.LLMConfig, error)
}

var allKeys = []string{KeyLLMConfig, KeyCategories, KeyStats}
