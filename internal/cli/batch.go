package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/subtext-labs/subtext/internal/llm"
	"github.com/subtext-labs/subtext/internal/pipeline"
	"github.com/subtext-labs/subtext/internal/worker"
)

var (
	batchConcurrency int
	batchOutputDir   string
	batchTimeout     time.Duration
	batchContext     string
	batchProvider    string
	batchModel       string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze multiple messages from a file in parallel",
	Long: `Batch analyzes many messages concurrently:
- Read messages from the input file (one per line, # for comments)
- Run the full pipeline for each with a configurable worker count
- Write one JSON result file per message

Oracle calls are still throttled globally, so raising concurrency
does not raise quota pressure.

Example:
  subtext batch messages.txt
  subtext batch messages.txt --concurrency 8 --output-dir ./results
  subtext batch messages.txt --context "messages from my manager"`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&batchOutputDir, "output-dir", "./subtext-results", "output directory for results")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&batchContext, "context", "", "shared background applied to every message")
	batchCmd.Flags().StringVar(&batchProvider, "provider", "", "generative provider (openai, gemini, ollama)")
	batchCmd.Flags().StringVar(&batchModel, "model", "", "model name (provider-specific)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg := loadConfig()
	if batchProvider != "" {
		cfg.LLM.Provider = batchProvider
		cfg.LLM.APIKey = apiKeyForProvider(batchProvider)
	}
	if batchModel != "" {
		cfg.LLM.Model = batchModel
	}

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

	if err := os.MkdirAll(batchOutputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	client := llm.NewStructuredClient(provider, llm.ConfigFromModel(cfg.LLM), logger)
	p := pipeline.New(client, logger)
	processor := worker.NewBatchProcessor(p, batchConcurrency)

	fmt.Fprintf(os.Stderr, "Reading messages from %s\n", file)
	results, err := processor.ProcessFile(ctx, file, batchContext)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	var failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ message %d: %v\n", res.Index+1, res.Err)
			continue
		}

		out, err := json.MarshalIndent(res.Result, "", "  ")
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ message %d: encode result: %v\n", res.Index+1, err)
			continue
		}

		path := filepath.Join(batchOutputDir, fmt.Sprintf("result-%03d.json", res.Index+1))
		if err := os.WriteFile(path, out, 0644); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ message %d: write result: %v\n", res.Index+1, err)
			continue
		}

		if verbose {
			fmt.Fprintf(os.Stderr, "✓ message %d -> %s\n", res.Index+1, path)
		}
	}

	fmt.Fprintf(os.Stderr, "Done: %d analyzed, %d failed\n", len(results)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d messages failed", failed, len(results))
	}
	return nil
}
