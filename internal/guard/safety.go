// Package guard enforces output-safety policy on assembled analysis
// results. It is the last gate before a result is exposed: absolute
// and prescriptive language is rewritten, and bounded numeric fields
// are clamped. The pass is deterministic, total, and side-effect-free.
package guard

import (
	"regexp"

	"github.com/subtext-labs/subtext/internal/model"
)

// Absolute/universal claims get softened into a hedge
var absoluteTerms = []string{
	"definitely",
	"absolutely",
	"always",
	"never",
	"must",
	"obviously",
	"undeniably",
}

// Direct second-person directives get neutralized; the product offers
// options, it does not tell people what to do with their relationships.
var prescriptivePhrases = []string{
	"you should",
	"you need to",
	"do this",
	"tell them",
	"tell him",
	"tell her",
	"ask him",
	"ask her",
	"break up",
	"leave him",
	"leave her",
}

const (
	hedgeReplacement       = "likely"
	placeholderReplacement = "[consider]"
)

type rewrite struct {
	pattern     *regexp.Regexp
	replacement string
}

// Matching is case-insensitive and word-boundary-anchored so that
// substrings inside unrelated words (e.g. "alwaysish") stay untouched.
// Replacements contain none of the listed terms, which makes the whole
// pass idempotent.
var rewrites = buildRewrites()

func buildRewrites() []rewrite {
	var rs []rewrite
	for _, term := range absoluteTerms {
		rs = append(rs, rewrite{
			pattern:     regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`),
			replacement: hedgeReplacement,
		})
	}
	for _, phrase := range prescriptivePhrases {
		rs = append(rs, rewrite{
			pattern:     regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`),
			replacement: placeholderReplacement,
		})
	}
	return rs
}

func sanitize(text string) string {
	for _, r := range rewrites {
		text = r.pattern.ReplaceAllString(text, r.replacement)
	}
	return text
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Enforce returns a policy-compliant copy of the result. The input is
// never mutated. Enforce never fails: it is total over any well-typed
// result, including one that bypassed schema validation, so the numeric
// clamps stay even though validation already checked the ranges.
func Enforce(result *model.AnalysisResult) *model.AnalysisResult {
	safe := *result

	safe.IntentScore = clamp(result.IntentScore)
	safe.Confidence = clamp(result.Confidence)

	safe.SubtextSummary.Explicit = sanitize(result.SubtextSummary.Explicit)
	safe.SubtextSummary.Implied = sanitize(result.SubtextSummary.Implied)
	safe.SubtextSummary.Avoided = sanitize(result.SubtextSummary.Avoided)

	safe.EmotionalTones = append([]string(nil), result.EmotionalTones...)

	safe.Strategies = make([]model.Strategy, len(result.Strategies))
	for i, s := range result.Strategies {
		s.Name = sanitize(s.Name)
		s.OptimizationGoal = sanitize(s.OptimizationGoal)
		risks := make([]string, len(s.Risks))
		for j, r := range s.Risks {
			risks[j] = sanitize(r)
		}
		s.Risks = risks
		// SampleReply is left as generated: it is written in the
		// user's own voice, not as advice from the system.
		safe.Strategies[i] = s
	}

	safe.Patterns = make([]model.PatternSignal, len(result.Patterns))
	for i, p := range result.Patterns {
		p.Description = sanitize(p.Description)
		p.Strength = clamp(p.Strength)
		safe.Patterns[i] = p
	}

	safe.RiskFlags = make([]model.RiskFlag, len(result.RiskFlags))
	for i, r := range result.RiskFlags {
		r.Description = sanitize(r.Description)
		r.Probability = clamp(r.Probability)
		safe.RiskFlags[i] = r
	}

	return &safe
}
