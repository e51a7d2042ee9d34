package categorizer

import (
	"context"

	"linkedlens/internal/models"
)

// CategorizationRequest holds the post text and the categories it may be assigned to.
type CategorizationRequest struct {
	Text       string
	Categories []models.Category
}

// CategorizationResult holds the raw LLM answer and the category it resolved to.
// Category is nil when the answer matched no category.
type CategorizationResult struct {
	Response string
	Category *models.Category
}

// ContentCategorizer categorizes content
type ContentCategorizer interface {
	Categorize(ctx context.Context, req CategorizationRequest) (CategorizationResult, error)
}
