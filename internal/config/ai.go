package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/teleai/pkg/log"
)

type AIConfig struct {
	Backend     string  `env:"AI_BACKEND" envDefault:"ollama"`
	Model       string  `env:"AI_MODEL" envDefault:"gemma3n:e2b"`
	APIKey      string  `env:"AI_API_KEY"`
	BaseURL     string  `env:"AI_BASE_URL"`
	Temperature float64 `env:"AI_TEMPERATURE" envDefault:"0.7"`
}

func NewAIConfig(ctx context.Context) *AIConfig {
	c := &AIConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse AI config")
	}
	return c
}
