package config

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/teleai/pkg/log"
)

const (
	EstimatorChars    = "chars"
	EstimatorTiktoken = "tiktoken"
)

// ContextConfig tunes retrieval and selection of chat history.
type ContextConfig struct {
	MaxLines         int     `env:"MAX_CONTEXT_LINES" envDefault:"100"`
	FlatContextLines int     `env:"FLAT_CONTEXT_LINES" envDefault:"20"`
	SearchEnabled    bool    `env:"CONTEXT_SEARCH_ENABLED" envDefault:"true"`
	MaxTokens        int     `env:"CONTEXT_MAX_TOKENS" envDefault:"1500"`
	SearchResults    int     `env:"CONTEXT_SEARCH_RESULTS" envDefault:"15"`
	MinSimilarity    float64 `env:"CONTEXT_MIN_SIMILARITY" envDefault:"0.3"`
	IncludeBot       bool    `env:"CONTEXT_INCLUDE_BOT_RESPONSES" envDefault:"true"`
	BotWeight        float64 `env:"CONTEXT_BOT_WEIGHT" envDefault:"1.1"`
	CharsPerToken    float64 `env:"CONTEXT_CHARS_PER_TOKEN" envDefault:"4"`
	TokenEstimator   string  `env:"CONTEXT_TOKEN_ESTIMATOR" envDefault:"chars"`
}

func NewContextConfig(ctx context.Context) *ContextConfig {
	c := &ContextConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Context config")
	}
	if err := c.Validate(); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("invalid Context config")
	}
	return c
}

// DefaultContextConfig returns the values used when no environment is set.
func DefaultContextConfig() *ContextConfig {
	return &ContextConfig{
		MaxLines:         100,
		FlatContextLines: 20,
		SearchEnabled:    true,
		MaxTokens:        1500,
		SearchResults:    15,
		MinSimilarity:    0.3,
		IncludeBot:       true,
		BotWeight:        1.1,
		CharsPerToken:    4,
		TokenEstimator:   EstimatorChars,
	}
}

func (c *ContextConfig) Validate() error {
	switch {
	case c.MaxLines <= 0:
		return fmt.Errorf("MAX_CONTEXT_LINES must be positive, got %d", c.MaxLines)
	case c.MaxTokens <= 0:
		return fmt.Errorf("CONTEXT_MAX_TOKENS must be positive, got %d", c.MaxTokens)
	case c.SearchResults <= 0:
		return fmt.Errorf("CONTEXT_SEARCH_RESULTS must be positive, got %d", c.SearchResults)
	case c.MinSimilarity < 0 || c.MinSimilarity > 1:
		return fmt.Errorf("CONTEXT_MIN_SIMILARITY must be within [0,1], got %v", c.MinSimilarity)
	case c.BotWeight <= 0:
		return fmt.Errorf("CONTEXT_BOT_WEIGHT must be positive, got %v", c.BotWeight)
	case c.CharsPerToken <= 0:
		return fmt.Errorf("CONTEXT_CHARS_PER_TOKEN must be positive, got %v", c.CharsPerToken)
	}
	if c.TokenEstimator != EstimatorChars && c.TokenEstimator != EstimatorTiktoken {
		return fmt.Errorf("unknown CONTEXT_TOKEN_ESTIMATOR: %s", c.TokenEstimator)
	}
	return nil
}
