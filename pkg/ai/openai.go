package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OpenAIService talks to any OpenAI-compatible endpoint (DashScope
// compatible mode, vLLM, etc.) for chat completion and embeddings.
type OpenAIService struct {
	apiKey       string
	baseURL      string
	model        string
	embedBaseURL string
	embedModel   string
	dimension    int
	client       *http.Client
}

// NewOpenAIService creates a client for an OpenAI-compatible API. If
// embedBaseURL is empty the completion base URL is reused for embeddings.
func NewOpenAIService(apiKey, baseURL, model, embedBaseURL, embedModel string, dimension int) *OpenAIService {
	if embedBaseURL == "" {
		embedBaseURL = baseURL
	}
	return &OpenAIService{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		model:        model,
		embedBaseURL: strings.TrimRight(embedBaseURL, "/"),
		embedModel:   embedModel,
		dimension:    dimension,
		client:       &http.Client{},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements Completer via the chat completions endpoint.
func (s *OpenAIService) Complete(ctx context.Context, prompt string) (string, Usage, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model:    s.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", Usage{}, err
	}

	respBody, err := s.post(ctx, s.baseURL+"/chat/completions", reqBody)
	if err != nil {
		return "", Usage{}, err
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", Usage{}, fmt.Errorf("parsing completion response: %w", err)
	}
	if result.Error != nil {
		return "", Usage{}, fmt.Errorf("completion error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", Usage{}, fmt.Errorf("completion returned no choices")
	}

	return result.Choices[0].Message.Content, Usage{ResponseTokens: result.Usage.CompletionTokens}, nil
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// EmbedTexts implements Embedder via the embeddings endpoint.
func (s *OpenAIService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody, err := json.Marshal(embeddingRequest{Input: texts, Model: s.embedModel})
	if err != nil {
		return nil, err
	}

	respBody, err := s.post(ctx, s.embedBaseURL+"/embeddings", reqBody)
	if err != nil {
		return nil, err
	}

	var result embeddingResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parsing embedding response: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("embedding error: %s", result.Error.Message)
	}
	if len(result.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Data))
	}

	// The API may return results in any order; sort by index.
	embeddings := make([][]float32, len(texts))
	for _, d := range result.Data {
		embeddings[d.Index] = d.Embedding
	}
	return embeddings, nil
}

// Dimension implements Embedder.
func (s *OpenAIService) Dimension() int {
	return s.dimension
}

func (s *OpenAIService) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
