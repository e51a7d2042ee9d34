package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"linkedlens/internal/models"
)

// OpenAIProvider calls the chat completions endpoint through go-openai.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider sets the organization header when one is configured. BaseURL replaces
// the https://api.openai.com root; the /v1 prefix is kept.
func NewOpenAIProvider(settings models.ProviderSettings, client *http.Client) Provider {
	if client == nil {
		client = newHTTPClient()
	}
	cfg := openai.DefaultConfig(settings.APIKey)
	if settings.BaseURL != "" {
		cfg.BaseURL = joinURL(settings.BaseURL, "/v1")
	}
	cfg.OrgID = settings.Organization
	cfg.HTTPClient = client
	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg), model: settings.Model}
}

func (p *OpenAIProvider) Name() string { return "OpenAI" }

func (p *OpenAIProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (Completion, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.7,
		MaxTokens:   2048,
	})
	if err != nil {
		return Completion{}, p.providerError(err)
	}

	var out Completion
	if len(resp.Choices) > 0 {
		out.Text = resp.Choices[0].Message.Content
	}
	if resp.Usage.PromptTokens > 0 || resp.Usage.CompletionTokens > 0 {
		out.Usage = &models.TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}
	}
	return out, nil
}

func (p *OpenAIProvider) providerError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &models.ProviderError{Provider: p.Name(), Status: apiErr.HTTPStatusCode, Body: apiErr.Message, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		body := ""
		if reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &models.ProviderError{Provider: p.Name(), Status: reqErr.HTTPStatusCode, Body: body, Err: err}
	}
	return &models.ProviderError{Provider: p.Name(), Err: err}
}

var _ Provider = (*OpenAIProvider)(nil)
