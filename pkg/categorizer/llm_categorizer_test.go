package categorizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkedlens/internal/models"
)

// --- Mock Completer ---
type mockCompleter struct {
	response string
	err      error

	calls      int
	lastSystem string
	lastUser   string
}

func (m *mockCompleter) Classify(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.calls++
	m.lastSystem = systemPrompt
	m.lastUser = userPrompt
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// --- End Mock Completer ---

var testCategories = []models.Category{
	{ID: "tech", Name: "Technology", Description: "Software and hardware"},
	{ID: "career", Name: "Career", Description: "Jobs and promotions"},
}

func TestLLMCategorizer_Categorize_Matches(t *testing.T) {
	completer := &mockCompleter{response: "  career \n"}
	c := NewLLMCategorizer(completer, NewPromptBuilder(""))

	result, err := c.Categorize(context.Background(), CategorizationRequest{
		Text:       "I just got promoted",
		Categories: testCategories,
	})

	require.NoError(t, err)
	require.NotNil(t, result.Category)
	assert.Equal(t, "career", result.Category.ID)
	assert.Equal(t, "  career \n", result.Response)
	assert.Equal(t, "Please categorize this LinkedIn post:\n\nI just got promoted", completer.lastUser)
	assert.Contains(t, completer.lastSystem, "- Career: Jobs and promotions")
}

func TestLLMCategorizer_Categorize_Uncategorized(t *testing.T) {
	c := NewLLMCategorizer(&mockCompleter{response: "Uncategorized"}, NewPromptBuilder(""))

	result, err := c.Categorize(context.Background(), CategorizationRequest{Text: "x", Categories: testCategories})

	require.NoError(t, err)
	assert.Nil(t, result.Category)
}

func TestLLMCategorizer_Categorize_NoCategories(t *testing.T) {
	completer := &mockCompleter{response: "Technology"}
	c := NewLLMCategorizer(completer, NewPromptBuilder(""))

	_, err := c.Categorize(context.Background(), CategorizationRequest{Text: "x"})

	assert.ErrorIs(t, err, models.ErrConfiguration)
	assert.Zero(t, completer.calls, "no LLM call without categories")
}

func TestLLMCategorizer_Categorize_CompleterError(t *testing.T) {
	providerErr := &models.ProviderError{Provider: "Ollama", Status: 500, Body: "boom"}
	c := NewLLMCategorizer(&mockCompleter{err: providerErr}, NewPromptBuilder(""))

	_, err := c.Categorize(context.Background(), CategorizationRequest{Text: "x", Categories: testCategories})

	require.Error(t, err)
	var pe *models.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 500, pe.Status)
}
