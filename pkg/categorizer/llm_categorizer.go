package categorizer

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"linkedlens/internal/models"
)

// Completer is the LLM capability the categorizer needs: one system+user exchange
// returning plain text.
type Completer interface {
	Classify(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMCategorizer implements ContentCategorizer
// relies on an LLM/completion API
type LLMCategorizer struct {
	completer Completer
	prompts   PromptBuilder
}

// NewLLMCategorizer creates a categorizer that asks completer and matches its answer.
func NewLLMCategorizer(completer Completer, prompts PromptBuilder) *LLMCategorizer {
	return &LLMCategorizer{completer: completer, prompts: prompts}
}

func (c *LLMCategorizer) Categorize(ctx context.Context, req CategorizationRequest) (CategorizationResult, error) {
	if c.completer == nil {
		return CategorizationResult{}, fmt.Errorf("LLM categorizer is not initialized with a completer")
	}
	if len(req.Categories) == 0 {
		return CategorizationResult{}, &models.ConfigurationError{Reason: "no categories configured"}
	}

	system := c.prompts.SystemPrompt(req.Categories)
	user := c.prompts.UserPrompt(req.Text)

	response, err := c.completer.Classify(ctx, system, user)
	if err != nil {
		return CategorizationResult{}, fmt.Errorf("classify post: %w", err)
	}
	log.Debugf("LLM response: %q", response)

	return CategorizationResult{
		Response: response,
		Category: Match(response, req.Categories),
	}, nil
}

var _ ContentCategorizer = (*LLMCategorizer)(nil)
