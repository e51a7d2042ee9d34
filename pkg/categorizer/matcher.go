package categorizer

import (
	"strings"

	"linkedlens/internal/models"
)

// Match maps a free-text LLM answer to a category. An exact (trimmed, case-insensitive)
// name match wins; otherwise the first category whose name occurs inside the answer.
// Both passes go in list order. Nil means uncategorized.
func Match(response string, categories []models.Category) *models.Category {
	normalized := strings.ToLower(strings.TrimSpace(response))

	for i := range categories {
		if key := categories[i].MatchKey(); key != "" && normalized == key {
			c := categories[i]
			return &c
		}
	}
	for i := range categories {
		if key := categories[i].MatchKey(); key != "" && strings.Contains(normalized, key) {
			c := categories[i]
			return &c
		}
	}
	return nil
}
