package categorizer

import (
	"fmt"
	"strings"

	"linkedlens/internal/models"
)

// DefaultPlatform is the feed the prompts talk about.
const DefaultPlatform = "LinkedIn"

// exampleFallback is the example answer used when there are no categories to quote.
const exampleFallback = "Technology"

// PromptBuilder renders the system and user prompts. Output depends only on its inputs.
type PromptBuilder struct {
	Platform string
}

func NewPromptBuilder(platform string) PromptBuilder {
	if strings.TrimSpace(platform) == "" {
		platform = DefaultPlatform
	}
	return PromptBuilder{Platform: platform}
}

func (b PromptBuilder) platform() string {
	if b.Platform == "" {
		return DefaultPlatform
	}
	return b.Platform
}

// SystemPrompt lists the categories and the answer rules.
func (b PromptBuilder) SystemPrompt(categories []models.Category) string {
	lines := make([]string, 0, len(categories))
	for _, c := range categories {
		lines = append(lines, fmt.Sprintf("- %s: %s", c.Name, c.Description))
	}
	example := exampleFallback
	if len(categories) > 0 && categories[0].Name != "" {
		example = categories[0].Name
	}

	p := b.platform()
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a %s post categorizer. Your task is to categorize %s posts into one of the following categories:\n\n", p, p)
	sb.WriteString(strings.Join(lines, "\n"))
	sb.WriteString("\n\nRules:\n")
	fmt.Fprintf(&sb, "1. Respond with only the category name (e.g., \"%s\")\n", example)
	sb.WriteString("2. Choose the category that best fits the post content\n")
	sb.WriteString("3. If no category fits well, respond with \"Uncategorized\"\n")
	sb.WriteString("4. Be concise and accurate in your categorization")
	return sb.String()
}

// UserPrompt wraps the extracted post text.
func (b PromptBuilder) UserPrompt(text string) string {
	return fmt.Sprintf("Please categorize this %s post:\n\n%s", b.platform(), text)
}
