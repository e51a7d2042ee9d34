package services

import (
	"context"
	"net/http"

	"linkedlens/internal/models"
)

// OllamaProvider talks to a local Ollama server through /api/chat.
type OllamaProvider struct {
	url    string
	model  string
	client *http.Client
}

func NewOllamaProvider(settings models.ProviderSettings, client *http.Client) Provider {
	if client == nil {
		client = newHTTPClient()
	}
	return &OllamaProvider{url: settings.URL, model: settings.Model, client: client}
}

func (p *OllamaProvider) Name() string { return "Ollama" }

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type ollamaChatResponse struct {
	Message *struct {
		Content string `json:"content"`
	} `json:"message"`
}

func (p *OllamaProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (Completion, error) {
	body := ollamaChatRequest{
		Model: p.model,
		Messages: []ChatMessage{
			{Role: ChatMessageRoleSystem, Content: systemPrompt},
			{Role: ChatMessageRoleUser, Content: userPrompt},
		},
		Stream: false,
	}

	var resp ollamaChatResponse
	if err := postJSON(ctx, p.client, p.Name(), joinURL(p.url, "/api/chat"), nil, body, &resp); err != nil {
		return Completion{}, err
	}
	if resp.Message == nil {
		return Completion{}, &models.ProviderError{Provider: p.Name(), Body: "response has no message"}
	}
	return Completion{Text: resp.Message.Content}, nil
}

var _ Provider = (*OllamaProvider)(nil)
