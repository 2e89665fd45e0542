// Package worker runs many analyses concurrently for batch use. The
// oracle-call throttle lives in the structured client, so worker count
// only bounds in-flight requests, not quota burn.
package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/subtext-labs/subtext/internal/model"
	"github.com/subtext-labs/subtext/internal/pipeline"
)

// Runner runs one analysis end to end; satisfied by *pipeline.Pipeline
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*model.AnalysisResult, error)
}

// BatchResult pairs one input message with its analysis outcome
type BatchResult struct {
	Index  int
	Text   string
	Result *model.AnalysisResult
	Err    error
}

// BatchProcessor fans messages out over a fixed worker count. Each
// message is an independent request; one failure never aborts the rest.
type BatchProcessor struct {
	runner  Runner
	workers int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(runner Runner, workers int) *BatchProcessor {
	if workers <= 0 {
		workers = 1
	}
	return &BatchProcessor{
		runner:  runner,
		workers: workers,
	}
}

// ProcessFile analyzes every non-empty line of the file as one message.
// Lines starting with # are skipped.
func (b *BatchProcessor) ProcessFile(ctx context.Context, path, callerContext string) ([]BatchResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var texts []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		texts = append(texts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}

	return b.Process(ctx, texts, callerContext), nil
}

// Process analyzes the given messages and returns results in input order
func (b *BatchProcessor) Process(ctx context.Context, texts []string, callerContext string) []BatchResult {
	results := make([]BatchResult, len(texts))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				result, err := b.runner.Run(ctx, pipeline.Request{
					Text:    texts[idx],
					Context: callerContext,
				})
				results[idx] = BatchResult{
					Index:  idx,
					Text:   texts[idx],
					Result: result,
					Err:    err,
				}
			}
		}()
	}

	for idx := range texts {
		select {
		case <-ctx.Done():
			// Mark everything not yet dispatched as cancelled
			for rest := idx; rest < len(texts); rest++ {
				results[rest] = BatchResult{Index: rest, Text: texts[rest], Err: ctx.Err()}
			}
			close(jobs)
			wg.Wait()
			return results
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	return results
}
