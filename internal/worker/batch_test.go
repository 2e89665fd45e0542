package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/subtext-labs/subtext/internal/model"
	"github.com/subtext-labs/subtext/internal/pipeline"
)

// countingRunner records every message it sees and fails on request
type countingRunner struct {
	mu      sync.Mutex
	seen    []string
	failFor map[string]error
}

func newCountingRunner() *countingRunner {
	return &countingRunner{failFor: make(map[string]error)}
}

func (r *countingRunner) Run(ctx context.Context, req pipeline.Request) (*model.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.seen = append(r.seen, req.Text)
	r.mu.Unlock()

	if err, ok := r.failFor[req.Text]; ok {
		return nil, err
	}
	return &model.AnalysisResult{IntentScore: float64(len(req.Text))}, nil
}

func TestProcess_AllMessagesInOrder(t *testing.T) {
	runner := newCountingRunner()
	processor := NewBatchProcessor(runner, 4)

	texts := []string{"one", "two", "three", "four", "five"}
	results := processor.Process(context.Background(), texts, "ctx")

	if len(results) != len(texts) {
		t.Fatalf("Expected %d results, got %d", len(texts), len(results))
	}
	for i, res := range results {
		if res.Index != i || res.Text != texts[i] {
			t.Errorf("Result %d out of order: %+v", i, res)
		}
		if res.Err != nil {
			t.Errorf("Result %d unexpected error: %v", i, res.Err)
		}
		if res.Result == nil || res.Result.IntentScore != float64(len(texts[i])) {
			t.Errorf("Result %d payload mismatch: %+v", i, res.Result)
		}
	}
}

func TestProcess_OneFailureDoesNotAbortRest(t *testing.T) {
	runner := newCountingRunner()
	runner.failFor["bad"] = errors.New("boom")
	processor := NewBatchProcessor(runner, 2)

	results := processor.Process(context.Background(), []string{"good", "bad", "also good"}, "")

	if results[1].Err == nil {
		t.Error("Expected error for failing message")
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("Healthy messages affected: %+v", results)
	}
}

func TestProcess_CancelledContext(t *testing.T) {
	runner := newCountingRunner()
	processor := NewBatchProcessor(runner, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := processor.Process(ctx, []string{"a", "b", "c"}, "")

	cancelled := 0
	for _, res := range results {
		if errors.Is(res.Err, context.Canceled) {
			cancelled++
		}
	}
	if cancelled == 0 {
		t.Error("Expected cancelled results for undispatched messages")
	}
}

func TestProcessFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "messages.txt")
	content := "# comment line\nfirst message\n\nsecond message\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	runner := newCountingRunner()
	processor := NewBatchProcessor(runner, 2)

	results, err := processor.ProcessFile(context.Background(), path, "")
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results (comments and blanks skipped), got %d", len(results))
	}
	if results[0].Text != "first message" || results[1].Text != "second message" {
		t.Errorf("Unexpected texts: %+v", results)
	}
}

func TestProcessFile_MissingFile(t *testing.T) {
	processor := NewBatchProcessor(newCountingRunner(), 1)
	if _, err := processor.ProcessFile(context.Background(), "/nonexistent/file.txt", ""); err == nil {
		t.Error("Expected error for missing file")
	}
}
