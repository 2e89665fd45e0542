package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/subtext-labs/subtext/internal/llm"
	"github.com/subtext-labs/subtext/internal/pipeline"
)

var (
	analyzeContext  string
	analyzeImage    string
	analyzeProvider string
	analyzeModel    string
	analyzeTimeout  time.Duration
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Analyze a single message from the command line",
	Long: `Analyze runs the full pipeline once and prints the sanitized
result as JSON. Provide the message as an argument, or a screenshot
with --image, or both.

Example:
  subtext analyze "Let's just go with the flow?" --context "after a first date"
  subtext analyze --image chat.png --provider gemini
  subtext analyze "ok." --provider ollama --model llama3.2`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeContext, "context", "", "free-form background for the analysis")
	analyzeCmd.Flags().StringVar(&analyzeImage, "image", "", "path to a conversation screenshot")
	analyzeCmd.Flags().StringVar(&analyzeProvider, "provider", "", "generative provider (openai, gemini, ollama)")
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "", "model name (provider-specific)")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 3*time.Minute, "overall analysis timeout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) == 1 {
		text = args[0]
	}
	if strings.TrimSpace(text) == "" && analyzeImage == "" {
		return fmt.Errorf("provide message text or --image")
	}

	cfg := loadConfig()
	if analyzeProvider != "" {
		cfg.LLM.Provider = analyzeProvider
		cfg.LLM.APIKey = apiKeyForProvider(analyzeProvider)
	}
	if analyzeModel != "" {
		cfg.LLM.Model = analyzeModel
	}

	// One-shot runs stay quiet unless asked; diagnostics go to stderr
	logger := zap.NewNop()
	if verbose {
		devLogger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		logger = devLogger
	}
	defer func() { _ = logger.Sync() }()

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return fmt.Errorf("initialize provider: %w", err)
	}
	if provider == nil {
		return fmt.Errorf("no provider configured (set llm.provider or pass --provider)")
	}

	req := pipeline.Request{Text: text, Context: analyzeContext}
	if analyzeImage != "" {
		image, err := os.ReadFile(analyzeImage)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		req.Image = image
		req.ImageMIME = mimeForPath(analyzeImage)
	}

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Provider: %s\n", provider.Name())
		fmt.Fprintf(os.Stderr, "Timeout: %v\n\n", analyzeTimeout)
	}

	client := llm.NewStructuredClient(provider, llm.ConfigFromModel(cfg.LLM), logger)
	result, err := pipeline.New(client, logger).Run(ctx, req)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(out))

	return nil
}

func mimeForPath(path string) string {
	switch {
	case strings.HasSuffix(strings.ToLower(path), ".jpg"), strings.HasSuffix(strings.ToLower(path), ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(strings.ToLower(path), ".webp"):
		return "image/webp"
	default:
		return "image/png"
	}
}
