package ai

import "context"

// Usage carries token accounting returned by a completion call.
type Usage struct {
	ResponseTokens int `json:"response_tokens"`
}

// Completer is the interface for generative text completion.
// Implement this interface to add new AI providers (OpenAI-compatible,
// Ollama, etc.)
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, Usage, error)
}

// Embedder is the interface for text embedding. The model identity and
// dimension must match between index time and query time; mismatched
// models make vector distances meaningless.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Document is one input to few-shot span extraction, identified by the
// caller so results can be mapped back.
type Document struct {
	ID   string
	Text string
}

// Span is one labeled extraction from a document.
type Span struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Example is a few-shot exemplar: a sample document and the spans the
// model should produce for it.
type Example struct {
	Text  string
	Spans []Span
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)
