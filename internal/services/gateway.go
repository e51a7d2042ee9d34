package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"

	"linkedlens/internal/models"
	"linkedlens/internal/store"
)

// Fixed prompt pair used by TestConnection.
const (
	ConnectionTestSystemPrompt = "You are a helpful assistant. Respond briefly."
	ConnectionTestUserPrompt   = "Hello, please respond with 'Connection test successful' to confirm the API is working."
)

// UsageRecorder receives the gateway's and pipeline's usage events. Failures to record
// never fail a classification.
type UsageRecorder interface {
	RecordCall(ctx context.Context)
	RecordTokens(ctx context.Context, usage models.TokenUsage)
	RecordProcessedPost(ctx context.Context)
}

// Gateway is the single entry point for LLM calls. The provider is resolved from the
// stored configuration on every call, so settings changes apply to the next call.
type Gateway struct {
	settings store.LLMConfigSource
	usage    UsageRecorder
	client   *http.Client

	mu        sync.RWMutex
	factories map[models.ProviderKind]ProviderFactory
}

// NewGateway registers the built-in providers. usage and client may be nil.
func NewGateway(settings store.LLMConfigSource, usage UsageRecorder, client *http.Client) *Gateway {
	if client == nil {
		client = newHTTPClient()
	}
	g := &Gateway{
		settings:  settings,
		usage:     usage,
		client:    client,
		factories: make(map[models.ProviderKind]ProviderFactory),
	}
	g.Register(models.ProviderOllama, NewOllamaProvider)
	g.Register(models.ProviderGemini, NewGeminiProvider)
	g.Register(models.ProviderOpenAI, NewOpenAIProvider)
	return g
}

// Register adds or replaces the provider variant for kind.
func (g *Gateway) Register(kind models.ProviderKind, factory ProviderFactory) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.factories[kind] = factory
}

func (g *Gateway) resolve(ctx context.Context) (Provider, error) {
	cfg, err := g.settings.LLMConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load llm config: %w", err)
	}
	if cfg == nil {
		return nil, &models.ConfigurationError{Reason: "no LLM configuration found"}
	}

	g.mu.RLock()
	factory, ok := g.factories[cfg.Provider]
	g.mu.RUnlock()
	if !ok {
		return nil, &models.ConfigurationError{Reason: fmt.Sprintf("unsupported LLM provider %q", cfg.Provider)}
	}
	if missing := cfg.MissingFields(); len(missing) > 0 {
		return nil, &models.ConfigurationError{
			Reason:  fmt.Sprintf("%s is not fully configured", cfg.Provider),
			Missing: missing,
		}
	}
	return factory(cfg.Settings, g.client), nil
}

// Classify sends one system+user exchange to the configured provider and returns the
// plain response text.
func (g *Gateway) Classify(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	provider, err := g.resolve(ctx)
	if err != nil {
		return "", err
	}

	if g.usage != nil {
		g.usage.RecordCall(ctx)
	}

	completion, err := provider.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		log.WithField("provider", provider.Name()).Warnf("LLM call failed: %v", err)
		return "", err
	}
	if completion.Usage != nil && g.usage != nil {
		g.usage.RecordTokens(ctx, *completion.Usage)
	}
	return completion.Text, nil
}

// TestConnection reports whether a trivial exchange with the configured provider succeeds.
func (g *Gateway) TestConnection(ctx context.Context) bool {
	if _, err := g.Classify(ctx, ConnectionTestSystemPrompt, ConnectionTestUserPrompt); err != nil {
		log.Warnf("LLM connection test failed: %v", err)
		return false
	}
	return true
}

// IsConfigured checks the stored configuration without any network I/O.
func (g *Gateway) IsConfigured(ctx context.Context) bool {
	cfg, err := g.settings.LLMConfig(ctx)
	if err != nil || cfg == nil {
		return false
	}
	return cfg.IsConfigured()
}
