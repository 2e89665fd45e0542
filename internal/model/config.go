package model

import "time"

// Config holds the complete runtime configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	LLM    LLMConfig    `yaml:"llm"`
	Limits LimitsConfig `yaml:"limits"`
}

// ServerConfig controls the HTTP surface
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080"
	Addr string `yaml:"addr"`

	// AllowedOrigins is the CORS allowlist for browser clients
	AllowedOrigins []string `yaml:"allowed_origins"`

	// ReleaseMode suppresses internal diagnostic detail in error responses
	ReleaseMode bool `yaml:"release_mode"`

	// ReadTimeout/WriteTimeout bound each HTTP exchange
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LLMConfig configures the generative provider.
// The credential is read once at startup and never mutated afterwards.
type LLMConfig struct {
	// Provider name: "openai", "gemini", "ollama"
	Provider string `yaml:"provider"`

	// Model name (provider-specific)
	Model string `yaml:"model"`

	// APIKey for hosted providers
	APIKey string `yaml:"-"`

	// BaseURL for custom endpoints (e.g. Ollama, proxies)
	BaseURL string `yaml:"base_url"`

	// Timeout per oracle call
	Timeout time.Duration `yaml:"timeout"`

	// Temperature for generation; analysis wants it low
	Temperature float32 `yaml:"temperature"`

	// MaxTokens limits the response length
	MaxTokens int `yaml:"max_tokens"`

	// RequestsPerMinute throttles oracle calls to stay under quota
	RequestsPerMinute float64 `yaml:"requests_per_minute"`
}

// LimitsConfig bounds caller-supplied input and per-client request rates
type LimitsConfig struct {
	// MaxTextChars caps the analyzed message length
	MaxTextChars int `yaml:"max_text_chars"`

	// MaxImageBytes caps the decoded screenshot size
	MaxImageBytes int `yaml:"max_image_bytes"`

	// ClientRequestsPerMinute throttles each remote client
	ClientRequestsPerMinute float64 `yaml:"client_requests_per_minute"`

	// ClientBurst is the short-term allowance per client
	ClientBurst int `yaml:"client_burst"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr: ":8080",
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost:3001",
			},
			ReleaseMode:  false,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		LLM: LLMConfig{
			Provider:          "openai",
			Model:             "",
			Timeout:           60 * time.Second,
			Temperature:       0.2,
			MaxTokens:         2000,
			RequestsPerMinute: 30,
		},
		Limits: LimitsConfig{
			MaxTextChars:            5000,
			MaxImageBytes:           4 << 20,
			ClientRequestsPerMinute: 10,
			ClientBurst:             3,
		},
	}
}
