package rag

import (
	"context"
	"fmt"

	"github.com/sandevgo/teleai/internal/config"
	"github.com/sandevgo/teleai/pkg/log"
)

// NewEncoder builds the configured embedding model.
func NewEncoder(ctx context.Context, cfg *config.EmbeddingConfig) (DualEncoder, error) {
	logger := log.FromCtx(ctx)

	switch cfg.Provider {
	case config.EmbeddingOllama:
		logger.Info().Str("model", cfg.Model).Str("url", cfg.BaseURL).Msg("using ollama embeddings")
		return NewOllamaEncoder(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Dims), nil
	case config.EmbeddingOpenAI:
		logger.Info().Str("model", cfg.Model).Msg("using openai embeddings")
		return NewOpenAIEncoder(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Dims), nil
	case config.EmbeddingHash:
		logger.Warn().Msg("hash embeddings selected: semantic search is degraded to exact-match")
		return NewHashEncoder(cfg.Dims), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}
