package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/subtext-labs/subtext/internal/guard"
	"github.com/subtext-labs/subtext/internal/llm"
	"github.com/subtext-labs/subtext/internal/model"
	"github.com/subtext-labs/subtext/internal/schema"
)

// ErrNoInput is returned when a request carries neither text nor image
var ErrNoInput = errors.New("either text or an image is required")

// Generator is the structured-generation capability the pipeline
// sequences. Satisfied by *llm.StructuredClient; substituted in tests.
type Generator interface {
	GenerateStructured(ctx context.Context, req llm.CompletionRequest, schemaName string, out any) error
}

// Request is one analysis invocation. At least one of Text and Image
// must be set; Context is free-form background supplied by the caller.
type Request struct {
	Text      string
	Context   string
	Image     []byte
	ImageMIME string
}

// Pipeline sequences the generation stages that build an analysis
// result. Stages run strictly in order: strategy synthesis consumes
// the serialized core analysis, so there is no parallelism to exploit
// within one request. A Pipeline holds no per-request state and is
// safe for concurrent use.
type Pipeline struct {
	client Generator
	logger *zap.Logger
}

// New creates a pipeline around a structured generation client
func New(client Generator, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		client: client,
		logger: logger,
	}
}

// strategyCount is the number of response strategies requested from
// the model. It is a prompt-level contract: the schema only insists on
// a non-empty list, and drift from the requested count is accepted.
const strategyCount = 3

const coreAnalysisSystem = `You are an expert communication analyst. Perform a comprehensive analysis:
1. Extract explicit, implied, and avoided meanings.
2. Analyze emotional tone and intent score (0-100).
3. Identify risk flags with probabilities.

Respond with a raw JSON object in exactly this shape, nothing else:
{
  "subtext_summary": {"explicit": "...", "implied": "...", "avoided": "..."},
  "intent_score": 0,
  "confidence": 0,
  "emotional_tones": ["..."],
  "risk_flags": [{"type": "...", "level": "red|yellow|green", "probability": 0, "description": "..."}]
}`

const strategySystem = `Generate %d distinct response strategies based on the analysis. DO NOT tell the user what to do, offer options.

Respond with a raw JSON object in exactly this shape, nothing else:
{
  "strategies": [{"name": "...", "optimization_goal": "...", "risks": ["..."], "sample_reply": "..."}]
}`

// Run executes the full stage graph and returns a sanitized result.
// If any stage fails the whole run fails; a partially populated result
// is never returned, because the consumer could not distinguish "no
// strategies exist" from "strategies failed to generate".
func (p *Pipeline) Run(ctx context.Context, req Request) (*model.AnalysisResult, error) {
	if strings.TrimSpace(req.Text) == "" && len(req.Image) == 0 {
		return nil, ErrNoInput
	}

	// Stage 1: core analysis. Subtext, intent, tones, and risks come
	// from one combined call to keep round-trips and quota pressure
	// down (finer-grained decomposition was tried and drew 429s).
	var core model.CoreAnalysis
	err := p.client.GenerateStructured(ctx, llm.CompletionRequest{
		System:    coreAnalysisSystem,
		User:      p.coreUserPayload(req),
		Image:     req.Image,
		ImageMIME: req.ImageMIME,
	}, schema.CoreAnalysis, &core)
	if err != nil {
		// Strategies are meaningless without an analysis to base them
		// on; skip the remaining stages.
		return nil, fmt.Errorf("core analysis stage: %w", err)
	}

	// Stage 2: strategy synthesis, fed the serialized stage-1 output
	coreJSON, err := json.Marshal(core)
	if err != nil {
		return nil, fmt.Errorf("serialize core analysis: %w", err)
	}

	var strategies model.StrategyList
	err = p.client.GenerateStructured(ctx, llm.CompletionRequest{
		System: fmt.Sprintf(strategySystem, strategyCount),
		User:   fmt.Sprintf("Input: %q.\nAnalysis Summary: %s.", req.Text, coreJSON),
	}, schema.StrategySynthesis, &strategies)
	if err != nil {
		return nil, fmt.Errorf("strategy synthesis stage: %w", err)
	}

	if len(strategies.Strategies) != strategyCount {
		p.logger.Warn("strategy count drifted from requested",
			zap.Int("requested", strategyCount),
			zap.Int("got", len(strategies.Strategies)))
	}

	// Stage 3: patterns. Detection needs history across requests and
	// nothing persists it yet, so this stage is a declared placeholder.
	patterns := []model.PatternSignal{}

	raw := &model.AnalysisResult{
		IntentScore:    core.IntentScore,
		Confidence:     core.Confidence,
		EmotionalTones: core.EmotionalTones,
		SubtextSummary: core.SubtextSummary,
		Patterns:       patterns,
		RiskFlags:      core.RiskFlags,
		Strategies:     strategies.Strategies,
	}

	// Last gate: no consumer may see an unsanitized result
	return guard.Enforce(raw), nil
}

func (p *Pipeline) coreUserPayload(req Request) string {
	callerContext := req.Context
	if callerContext == "" {
		callerContext = "None"
	}

	var b strings.Builder
	if req.Text != "" {
		fmt.Fprintf(&b, "Input: %q. ", req.Text)
	}
	if len(req.Image) > 0 {
		b.WriteString("A screenshot of the conversation is attached; analyze the visible messages. ")
	}
	fmt.Fprintf(&b, "Context: %s.", callerContext)
	return b.String()
}
