package rag

import (
	"context"
	"fmt"
)

// OpenAIEncoder calls an OpenAI-compatible /v1/embeddings endpoint.
type OpenAIEncoder struct {
	*httpEncoder
}

func NewOpenAIEncoder(baseURL, apiKey, model string, dims int) *OpenAIEncoder {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &OpenAIEncoder{httpEncoder: newHTTPEncoder(baseURL, apiKey, model, dims)}
}

func (o *OpenAIEncoder) EncodeQuery(ctx context.Context, text string) ([]float32, error) {
	return o.embed(ctx, o.prefix.query+text)
}

func (o *OpenAIEncoder) EncodePassage(ctx context.Context, text string) ([]float32, error) {
	return o.embed(ctx, o.prefix.passage+text)
}

func (o *OpenAIEncoder) embed(ctx context.Context, input string) ([]float32, error) {
	var resp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	payload := map[string]any{
		"model": o.model,
		"input": input,
	}
	if err := o.post(ctx, "/v1/embeddings", payload, &resp); err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embed: no embeddings returned")
	}

	vec := resp.Data[0].Embedding
	if err := o.remember(vec); err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	return vec, nil
}
