package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/teleai/internal/config"
	"github.com/sandevgo/teleai/internal/core"
	"github.com/sandevgo/teleai/pkg/log"
)

// NewProvider creates the appropriate AIProvider based on configuration.
func NewProvider(ctx context.Context, cfg *config.AIConfig) (core.AIProvider, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.Backend).
		Str("model", cfg.Model).
		Msg("starting llm provider")

	switch cfg.Backend {
	case "openai":
		return NewOpenAI(cfg.APIKey, cfg.Model, cfg.Temperature), nil
	case "anthropic":
		return NewAnthropic(cfg.APIKey, cfg.Model), nil
	case "openrouter":
		return NewOpenRouter(cfg.APIKey, cfg.Model, cfg.Temperature), nil
	case "perplexity":
		return NewPerplexity(cfg.APIKey, cfg.Model, cfg.Temperature), nil
	case "ollama":
		return NewOllama(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Temperature), nil
	case "custom":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("AI_BASE_URL is required for the custom backend")
		}
		return NewCustomOpenAI(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Temperature), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Backend)
	}
}
