package memory

import (
	"math"
	"unicode/utf8"

	"github.com/sandevgo/teleai/internal/config"
	"github.com/sandevgo/teleai/internal/providers/rag"
)

const defaultCharsPerToken = 4

// TokenEstimator approximates how many prompt tokens a text costs.
type TokenEstimator interface {
	Estimate(text string) int
}

// CharEstimator divides the rune count by a fixed ratio. The default of four
// characters per token is a rough heuristic, not calibrated against any
// particular model's tokenizer.
type CharEstimator struct {
	CharsPerToken float64
}

func (e CharEstimator) Estimate(text string) int {
	ratio := e.CharsPerToken
	if ratio <= 0 {
		ratio = defaultCharsPerToken
	}
	return int(math.Ceil(float64(utf8.RuneCountInString(text)) / ratio))
}

// TiktokenEstimator counts cl100k_base tokens. While the encoding cannot be
// loaded it estimates like Fallback.
type TiktokenEstimator struct {
	Fallback CharEstimator
}

func (e TiktokenEstimator) Estimate(text string) int {
	n, err := rag.CountTokens(text)
	if err != nil {
		return e.Fallback.Estimate(text)
	}
	return n
}

func NewEstimator(cfg *config.ContextConfig) TokenEstimator {
	if cfg.TokenEstimator == config.EstimatorTiktoken {
		return TiktokenEstimator{Fallback: CharEstimator{CharsPerToken: cfg.CharsPerToken}}
	}
	return CharEstimator{CharsPerToken: cfg.CharsPerToken}
}
