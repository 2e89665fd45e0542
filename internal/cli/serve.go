package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/subtext-labs/subtext/internal/llm"
	"github.com/subtext-labs/subtext/internal/pipeline"
	"github.com/subtext-labs/subtext/internal/server"
)

var (
	serveAddr     string
	serveProvider string
	serveModel    string
	serveRelease  bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analysis HTTP API",
	Long: `Serve starts the HTTP API that the web client talks to:

  GET  /health              liveness probe
  POST /analyze/text        analyze a message (text + optional context)
  POST /analyze/screenshot  analyze a conversation screenshot

Nothing is persisted: every request is analyzed fresh and the result
is discarded once returned.

Example:
  subtext serve --provider openai --model gpt-4o
  subtext serve --provider ollama --model llama3.2 --addr :9000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :8080)")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "", "generative provider (openai, gemini, ollama)")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "model name (provider-specific)")
	serveCmd.Flags().BoolVar(&serveRelease, "release", false, "release mode (suppress diagnostic detail in responses)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveProvider != "" {
		cfg.LLM.Provider = serveProvider
		cfg.LLM.APIKey = apiKeyForProvider(serveProvider)
	}
	if serveModel != "" {
		cfg.LLM.Model = serveModel
	}
	if serveRelease {
		cfg.Server.ReleaseMode = true
	}

	logger, err := newLogger(cfg.Server.ReleaseMode)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return fmt.Errorf("initialize provider: %w", err)
	}
	if provider == nil {
		return fmt.Errorf("no provider configured (set llm.provider or pass --provider)")
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Provider: %s\n", provider.Name())
		fmt.Fprintf(os.Stderr, "Listening: %s\n", cfg.Server.Addr)
	}

	client := llm.NewStructuredClient(provider, llm.ConfigFromModel(cfg.LLM), logger)
	p := pipeline.New(client, logger)

	return server.New(cfg, p, logger).Run()
}

func newLogger(release bool) (*zap.Logger, error) {
	if release {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
