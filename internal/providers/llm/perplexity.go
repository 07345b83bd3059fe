package llm

// Perplexity serves an OpenAI-style API without the /v1 prefix.
type Perplexity struct {
	*OpenAICompatible
}

func NewPerplexity(apiKey, model string, temperature float64) *Perplexity {
	return &Perplexity{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:     "https://api.perplexity.ai",
			APIKey:      apiKey,
			Model:       model,
			AuthHeader:  "Authorization",
			AuthPrefix:  "Bearer ",
			ChatPath:    "/chat/completions",
			Temperature: temperature,
		}),
	}
}
