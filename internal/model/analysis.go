package model

// AnalysisResult is the complete interpretation returned for one message.
// Field names match the wire schema consumed by the web client.
type AnalysisResult struct {
	IntentScore    float64         `json:"intent_score"`    // Clarity/strength of sender intent (0-100)
	Confidence     float64         `json:"confidence"`      // Model's self-reported confidence (0-100)
	EmotionalTones []string        `json:"emotional_tones"` // Detected tone labels, not deduplicated
	SubtextSummary SubtextSummary  `json:"subtext_summary"`
	Patterns       []PatternSignal `json:"patterns"`   // Longitudinal signals; empty without history
	RiskFlags      []RiskFlag      `json:"risk_flags"` // Detected risks with probabilities
	Strategies     []Strategy      `json:"strategies"` // Candidate response strategies
}

// SubtextSummary breaks a message into its explicit, implied, and avoided layers.
type SubtextSummary struct {
	Explicit string `json:"explicit"` // What was literally said
	Implied  string `json:"implied"`  // What was meant but not said
	Avoided  string `json:"avoided"`  // What was deliberately left out
}

// PatternSignal represents a longitudinal communication pattern.
// Pattern detection requires history across requests, which nothing
// persists yet, so results always carry an empty slice.
type PatternSignal struct {
	Type        string  `json:"type"`
	Strength    float64 `json:"strength"` // 0-100
	Trend       Trend   `json:"trend"`
	Description string  `json:"description"`
}

// Trend classifies how a pattern is developing over time
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendStable     Trend = "stable"
	TrendDecreasing Trend = "decreasing"
)

// RiskFlag marks a detected risk in the conversation
type RiskFlag struct {
	Type        string    `json:"type"`
	Level       RiskLevel `json:"level"`
	Probability float64   `json:"probability"` // 0-100
	Description string    `json:"description"`
}

// RiskLevel indicates the severity of a risk flag
type RiskLevel string

const (
	RiskRed    RiskLevel = "red"
	RiskYellow RiskLevel = "yellow"
	RiskGreen  RiskLevel = "green"
)

// Strategy is one candidate way to respond, framed as an option, never a directive
type Strategy struct {
	Name             string   `json:"name"`
	OptimizationGoal string   `json:"optimization_goal"`
	Risks            []string `json:"risks"`
	SampleReply      string   `json:"sample_reply,omitempty"`
}

// CoreAnalysis is the stage-one payload: subtext, intent, tones, and
// risks produced in a single combined call.
type CoreAnalysis struct {
	SubtextSummary SubtextSummary `json:"subtext_summary"`
	IntentScore    float64        `json:"intent_score"`
	Confidence     float64        `json:"confidence"`
	EmotionalTones []string       `json:"emotional_tones"`
	RiskFlags      []RiskFlag     `json:"risk_flags"`
}

// StrategyList is the stage-two payload wrapping the synthesized strategies
type StrategyList struct {
	Strategies []Strategy `json:"strategies"`
}
