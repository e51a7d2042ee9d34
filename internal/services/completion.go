package services

import (
	"context"
	"net/http"
	"time"

	"linkedlens/internal/models"
)

// ChatMessageRole defines the role of the message sender (system, user).
type ChatMessageRole string

const (
	ChatMessageRoleSystem ChatMessageRole = "system"
	ChatMessageRoleUser   ChatMessageRole = "user"
)

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    ChatMessageRole `json:"role"`
	Content string          `json:"content"`
}

// Completion is the unwrapped result of one provider call.
type Completion struct {
	Text  string
	Usage *models.TokenUsage // nil when the provider reports nothing
}

// Provider is one LLM backend variant. Complete issues exactly one HTTP request.
type Provider interface {
	Name() string
	Complete(ctx context.Context, systemPrompt, userPrompt string) (Completion, error)
}

// ProviderFactory builds a provider from the settings stored for its kind.
type ProviderFactory func(settings models.ProviderSettings, client *http.Client) Provider

// DefaultHTTPTimeout bounds abandoned calls; the pipeline stops waiting much earlier.
const DefaultHTTPTimeout = 120 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultHTTPTimeout}
}
