package ai

import "fmt"

// Config holds AI provider configuration
type Config struct {
	Provider ProviderType // "openai" or "ollama"

	// OpenAI-compatible config
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	EmbeddingBaseURL string
	EmbeddingModel   string
	EmbeddingDim     int

	// Ollama config
	OllamaBaseURL string
	OllamaModel   string
}

// NewCompleter creates a Completer based on the config. This is the
// factory function - switch AI provider by changing config.Provider.
func NewCompleter(cfg Config) (Completer, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAIBaseURL == "" {
			return nil, fmt.Errorf("OPENAI_BASE_URL is required for the openai provider")
		}
		return NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel,
			cfg.EmbeddingBaseURL, cfg.EmbeddingModel, cfg.EmbeddingDim), nil

	case ProviderOllama:
		return NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel), nil

	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

// NewEmbedder creates the embedding client. Embeddings always go through
// the OpenAI-compatible endpoint regardless of the completion provider.
func NewEmbedder(cfg Config) (Embedder, error) {
	if cfg.EmbeddingBaseURL == "" && cfg.OpenAIBaseURL == "" {
		return nil, fmt.Errorf("EMBEDDING_BASE_URL is required")
	}
	return NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel,
		cfg.EmbeddingBaseURL, cfg.EmbeddingModel, cfg.EmbeddingDim), nil
}
