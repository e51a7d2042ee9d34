package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"

	"linkedlens/internal/models"
)

// DefaultGeminiBaseURL is the hosted Generative Language API root.
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

var geminiSafetyCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

// GeminiProvider calls models/{model}:generateContent with the API key in the query.
// Gemini gets a single combined prompt rather than separate system and user turns.
type GeminiProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewGeminiProvider(settings models.ProviderSettings, client *http.Client) Provider {
	if client == nil {
		client = newHTTPClient()
	}
	base := settings.BaseURL
	if base == "" {
		base = DefaultGeminiBaseURL
	}
	return &GeminiProvider{apiKey: settings.APIKey, model: settings.Model, baseURL: base, client: client}
}

func (p *GeminiProvider) Name() string { return "Gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
	SafetySettings   []geminiSafetySetting  `json:"safetySettings"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func (p *GeminiProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (Completion, error) {
	safety := make([]geminiSafetySetting, 0, len(geminiSafetyCategories))
	for _, c := range geminiSafetyCategories {
		safety = append(safety, geminiSafetySetting{Category: c, Threshold: "BLOCK_MEDIUM_AND_ABOVE"})
	}
	body := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: systemPrompt + "\n\nUser: " + userPrompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.7,
			TopK:            1,
			TopP:            1,
			MaxOutputTokens: 2048,
		},
		SafetySettings: safety,
	}

	endpoint := joinURL(p.baseURL, fmt.Sprintf("/v1beta/models/%s:generateContent?key=%s",
		url.PathEscape(p.model), url.QueryEscape(p.apiKey)))

	var resp geminiResponse
	if err := postJSON(ctx, p.client, p.Name(), endpoint, nil, body, &resp); err != nil {
		return Completion{}, err
	}

	var out Completion
	if len(resp.Candidates) > 0 {
		if parts := resp.Candidates[0].Content.Parts; len(parts) > 0 {
			out.Text = parts[0].Text
		}
		if resp.Candidates[0].FinishReason == "MAX_TOKENS" {
			log.Warnf("Gemini response truncated (model %s)", p.model)
		}
	}
	if resp.UsageMetadata != nil {
		out.Usage = &models.TokenUsage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		}
	}
	return out, nil
}

var _ Provider = (*GeminiProvider)(nil)
