package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/teleai/pkg/log"
)

const (
	EmbeddingOllama = "ollama"
	EmbeddingOpenAI = "openai"
	EmbeddingHash   = "hash"
)

type EmbeddingConfig struct {
	Provider string        `env:"EMBEDDING_PROVIDER" envDefault:"ollama"`
	Model    string        `env:"EMBEDDING_MODEL" envDefault:"all-minilm"`
	BaseURL  string        `env:"EMBEDDING_BASE_URL"`
	APIKey   string        `env:"EMBEDDING_API_KEY"`
	Dims     int           `env:"EMBEDDING_DIMS" envDefault:"0"`
	Timeout  time.Duration `env:"EMBEDDING_TIMEOUT" envDefault:"10s"`
}

func NewEmbeddingConfig(ctx context.Context) *EmbeddingConfig {
	c := &EmbeddingConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Embedding config")
	}
	return c
}
