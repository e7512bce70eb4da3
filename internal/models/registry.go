package models

import (
	"context"
	"fmt"
	"sync"

	"recipegen/internal/models/providers"

	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// ProviderType represents the type of LLM provider
type ProviderType string

const (
	GeminiProvider   ProviderType = "gemini"
	GoogleAIProvider ProviderType = "googleai"
	OpenAIProvider   ProviderType = "openai"
)

// Default model identifiers per provider type.
const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// ModelCredentials holds API keys and other auth details
type ModelCredentials struct {
	APIKey string
}

// ModelProvider defines a configured LLM provider
type ModelProvider struct {
	Name        string // model identifier sent with every request
	Type        ProviderType
	Endpoint    string
	Credentials ModelCredentials
}

// ModelRegistry builds providers from their configuration and caches them.
type ModelRegistry struct {
	providers map[string]*ModelProvider
	instances map[string]providers.Provider
	mu        sync.RWMutex
}

// NewModelRegistry creates an empty model registry
func NewModelRegistry() *ModelRegistry {
	return &ModelRegistry{
		providers: make(map[string]*ModelProvider),
		instances: make(map[string]providers.Provider),
	}
}

// DefaultModelFor returns the model used when none is configured.
func DefaultModelFor(t ProviderType) string {
	if t == OpenAIProvider {
		return DefaultOpenAIModel
	}
	return DefaultGeminiModel
}

// Register adds or replaces a provider configuration under id.
func (r *ModelRegistry) Register(id string, p *ModelProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.Name == "" {
		p.Name = DefaultModelFor(p.Type)
	}
	r.providers[id] = p
	delete(r.instances, id)
}

// Model returns the model identifier configured for id.
func (r *ModelRegistry) Model(id string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return "", fmt.Errorf("unknown provider: %s", id)
	}
	return p.Name, nil
}

// GetProvider returns an initialized provider instance
func (r *ModelRegistry) GetProvider(ctx context.Context, id string) (providers.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if instance, exists := r.instances[id]; exists {
		return instance, nil
	}

	config, exists := r.providers[id]
	if !exists {
		return nil, fmt.Errorf("unknown provider: %s", id)
	}

	instance, err := initializeProvider(ctx, config)
	if err != nil {
		return nil, err
	}

	r.instances[id] = instance
	return instance, nil
}

func initializeProvider(ctx context.Context, config *ModelProvider) (providers.Provider, error) {
	if config.Credentials.APIKey == "" {
		return nil, fmt.Errorf("initialize %s provider: %w", config.Type, providers.ErrMissingAPIKey)
	}

	switch config.Type {
	case GeminiProvider, "":
		opts := []providers.GeminiOption{}
		if config.Endpoint != "" {
			opts = append(opts, providers.WithGeminiBaseURL(config.Endpoint))
		}
		return providers.NewGeminiProvider(config.Credentials.APIKey, opts...)
	case GoogleAIProvider:
		return initializeGoogleAI(ctx, config)
	case OpenAIProvider:
		return initializeOpenAI(config)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Type)
	}
}

func initializeGoogleAI(ctx context.Context, config *ModelProvider) (providers.Provider, error) {
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(config.Credentials.APIKey),
		googleai.WithDefaultModel(config.Name),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google AI model: %w", err)
	}
	return providers.NewLangChainProvider(string(GoogleAIProvider), llm), nil
}

func initializeOpenAI(config *ModelProvider) (providers.Provider, error) {
	opts := []openai.Option{
		openai.WithModel(config.Name),
		openai.WithToken(config.Credentials.APIKey),
	}
	if config.Endpoint != "" {
		opts = append(opts, openai.WithBaseURL(config.Endpoint))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI model: %w", err)
	}
	return providers.NewLangChainProvider(string(OpenAIProvider), llm), nil
}
