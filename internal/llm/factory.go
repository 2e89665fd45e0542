package llm

import (
	"fmt"
	"strings"
)

// NewProvider creates a new generative provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "gemini", "google":
		return NewGeminiProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		// No provider configured - analysis is disabled
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: openai, gemini, ollama)", config.Provider)
	}
}
