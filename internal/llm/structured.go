package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/subtext-labs/subtext/internal/schema"
)

// Sentinel errors classifying why a structured generation failed.
// Callers match with errors.Is; the error strings stay generic because
// they may travel toward the external boundary.
var (
	// ErrTransport means the oracle call itself could not complete
	// (network, auth, quota, timeout).
	ErrTransport = errors.New("oracle call failed")

	// ErrMalformed means the oracle answered but the output was empty,
	// unparseable, or schema-invalid.
	ErrMalformed = errors.New("oracle returned malformed output")
)

// GenerationError is the single opaque failure surfaced by the
// structured client. Raw provider errors, parse failures, and
// violation lists never ride inside it - they go to the internal
// logger only.
type GenerationError struct {
	Schema string // Contract the call was decoding against
	kind   error  // ErrTransport or ErrMalformed
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("structured generation failed (%s)", e.Schema)
}

func (e *GenerationError) Unwrap() error {
	return e.kind
}

// StructuredClient turns one (system instruction, user payload, target
// schema) triple into a schema-conformant value. The oracle is
// defended against at three layers: decorative wrapping is stripped,
// parse errors are caught and reclassified, and the parsed tree is
// validated against the registered contract before decoding.
//
// A single failure is surfaced immediately; there is no internal
// retry. Callers may retry the whole request at their discretion.
type StructuredClient struct {
	provider Provider
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewStructuredClient creates a structured client around a provider.
// RequestsPerMinute throttles calls to keep quota pressure down.
func NewStructuredClient(provider Provider, config Config, logger *zap.Logger) *StructuredClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if config.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerMinute/60), 3)
	}

	return &StructuredClient{
		provider: provider,
		limiter:  limiter,
		logger:   logger,
	}
}

// ProviderName returns the underlying provider's name, or "" when disabled
func (c *StructuredClient) ProviderName() string {
	if c.provider == nil {
		return ""
	}
	return c.provider.Name()
}

// GenerateStructured invokes the oracle once and decodes the response
// into out after validating it against the named contract. On failure
// it returns a *GenerationError wrapping ErrTransport or ErrMalformed;
// all diagnostic detail goes to the internal logger.
func (c *StructuredClient) GenerateStructured(ctx context.Context, req CompletionRequest, schemaName string, out any) error {
	if c.provider == nil {
		c.logger.Error("structured generation attempted with no provider configured",
			zap.String("schema", schemaName))
		return &GenerationError{Schema: schemaName, kind: ErrTransport}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.logger.Error("rate limiter wait aborted",
				zap.String("schema", schemaName),
				zap.Error(err))
			return &GenerationError{Schema: schemaName, kind: ErrTransport}
		}
	}

	raw, err := c.provider.Complete(ctx, req)
	if err != nil {
		c.logger.Error("oracle call failed",
			zap.String("schema", schemaName),
			zap.String("provider", c.provider.Name()),
			zap.Error(err))
		return &GenerationError{Schema: schemaName, kind: ErrTransport}
	}

	text := stripCodeFences(raw)
	if text == "" {
		c.logger.Error("oracle returned empty output",
			zap.String("schema", schemaName),
			zap.String("provider", c.provider.Name()))
		return &GenerationError{Schema: schemaName, kind: ErrMalformed}
	}

	// Phase 1: untyped parse into a generic tree
	var tree any
	if err := json.Unmarshal([]byte(text), &tree); err != nil {
		// Some models embed the JSON in prose despite instruction;
		// fall back to the outermost brace span before giving up.
		extracted, ok := extractJSONObject(text)
		if !ok || json.Unmarshal([]byte(extracted), &tree) != nil {
			c.logger.Error("oracle output is not parseable JSON",
				zap.String("schema", schemaName),
				zap.String("raw", truncate(raw, 2000)),
				zap.Error(err))
			return &GenerationError{Schema: schemaName, kind: ErrMalformed}
		}
		text = extracted
	}

	// Phase 2: total structural validation against the contract
	if err := schema.Validate(tree, schemaName); err != nil {
		c.logger.Error("oracle output failed schema validation",
			zap.String("schema", schemaName),
			zap.String("raw", truncate(raw, 2000)),
			zap.Error(err))
		return &GenerationError{Schema: schemaName, kind: ErrMalformed}
	}

	// Only now is the text trusted enough to decode into the typed value
	if err := json.Unmarshal([]byte(text), out); err != nil {
		c.logger.Error("decoding validated output failed",
			zap.String("schema", schemaName),
			zap.Error(err))
		return &GenerationError{Schema: schemaName, kind: ErrMalformed}
	}

	return nil
}

// stripCodeFences removes markdown code-fence decoration the oracle may
// wrap around its output (``` or ```json), leaving the payload intact.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// Drop the opening fence line, including any language tag
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractJSONObject returns the outermost {...} span of s
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
