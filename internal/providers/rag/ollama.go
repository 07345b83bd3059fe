package rag

import (
	"context"
	"fmt"
)

// OllamaEncoder calls the /api/embed endpoint of an Ollama server.
type OllamaEncoder struct {
	*httpEncoder
}

func NewOllamaEncoder(baseURL, apiKey, model string, dims int) *OllamaEncoder {
	if baseURL == "" {
		baseURL = "http://ollama:11434"
	}
	return &OllamaEncoder{httpEncoder: newHTTPEncoder(baseURL, apiKey, model, dims)}
}

func (o *OllamaEncoder) EncodeQuery(ctx context.Context, text string) ([]float32, error) {
	return o.embed(ctx, o.prefix.query+text)
}

func (o *OllamaEncoder) EncodePassage(ctx context.Context, text string) ([]float32, error) {
	return o.embed(ctx, o.prefix.passage+text)
}

func (o *OllamaEncoder) embed(ctx context.Context, input string) ([]float32, error) {
	var resp struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	payload := map[string]any{
		"model": o.model,
		"input": input,
	}
	if err := o.post(ctx, "/api/embed", payload, &resp); err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("ollama embed: no embeddings returned")
	}

	vec := resp.Embeddings[0]
	if err := o.remember(vec); err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	return vec, nil
}
