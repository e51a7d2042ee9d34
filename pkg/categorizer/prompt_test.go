package categorizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"linkedlens/internal/models"
)

func TestPromptBuilder_SystemPrompt(t *testing.T) {
	got := NewPromptBuilder("").SystemPrompt(testCategories)

	want := `You are a LinkedIn post categorizer. Your task is to categorize LinkedIn posts into one of the following categories:

- Technology: Software and hardware
- Career: Jobs and promotions

Rules:
1. Respond with only the category name (e.g., "Technology")
2. Choose the category that best fits the post content
3. If no category fits well, respond with "Uncategorized"
4. Be concise and accurate in your categorization`
	assert.Equal(t, want, got)
}

func TestPromptBuilder_Deterministic(t *testing.T) {
	b := NewPromptBuilder("LinkedIn")
	assert.Equal(t, b.SystemPrompt(testCategories), b.SystemPrompt(testCategories))
	assert.Equal(t, b.UserPrompt("hello"), b.UserPrompt("hello"))
}

func TestPromptBuilder_ExampleUsesFirstCategory(t *testing.T) {
	cats := []models.Category{{ID: "a", Name: "Alpha", Description: "first"}}
	assert.Contains(t, PromptBuilder{}.SystemPrompt(cats), `(e.g., "Alpha")`)
	assert.Contains(t, PromptBuilder{}.SystemPrompt(nil), `(e.g., "Technology")`)
}

func TestPromptBuilder_ReflectsRenamedCategory(t *testing.T) {
	b := NewPromptBuilder("")
	before := b.SystemPrompt([]models.Category{{ID: "x", Name: "Work", Description: "jobs"}})
	after := b.SystemPrompt([]models.Category{{ID: "x", Name: "Employment", Description: "jobs"}})

	assert.Contains(t, before, "- Work: jobs")
	assert.Contains(t, after, "- Employment: jobs")
	assert.NotContains(t, after, "- Work:")
}

func TestPromptBuilder_UserPromptPlatform(t *testing.T) {
	assert.Equal(t, "Please categorize this Mastodon post:\n\nhi", NewPromptBuilder("Mastodon").UserPrompt("hi"))
}
