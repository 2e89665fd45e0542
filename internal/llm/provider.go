package llm

import (
	"context"
	"time"

	"github.com/subtext-labs/subtext/internal/model"
)

// Provider defines the interface for generative model providers.
// A provider is an untrusted oracle: it may fail outright, return
// nothing, or return text in any shape regardless of instruction.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete runs one generation and returns the raw model text
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for one oracle invocation
type CompletionRequest struct {
	// System is the system instruction framing the task
	System string

	// User is the user payload (message text, context, prior stage output)
	User string

	// Image is an optional screenshot to analyze alongside the text
	Image []byte

	// ImageMIME is the media type of Image (defaults to image/png)
	ImageMIME string

	// MaxTokens limits the response length (0 = config default)
	MaxTokens int
}

// Config holds provider configuration. The API key is read once at
// startup and treated as read-only for the process lifetime.
type Config struct {
	// Provider name: "openai", "gemini", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g. Ollama, proxies)
	BaseURL string

	// Timeout for API requests
	Timeout time.Duration

	// Temperature for generation; analysis wants it low and steady
	Temperature float32

	// MaxTokens for response generation
	MaxTokens int

	// RequestsPerMinute throttles oracle calls (0 = unthrottled)
	RequestsPerMinute float64
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:          "",
		Model:             "",
		Timeout:           60 * time.Second,
		Temperature:       0.2,
		MaxTokens:         2000,
		RequestsPerMinute: 30,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:          modelConfig.Provider,
		Model:             modelConfig.Model,
		APIKey:            modelConfig.APIKey,
		BaseURL:           modelConfig.BaseURL,
		Timeout:           modelConfig.Timeout,
		Temperature:       modelConfig.Temperature,
		MaxTokens:         modelConfig.MaxTokens,
		RequestsPerMinute: modelConfig.RequestsPerMinute,
	}
}
