package guard

import (
	"reflect"
	"strings"
	"testing"

	"github.com/subtext-labs/subtext/internal/model"
)

func TestSanitize_AbsoluteTerms(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple term", "He will definitely call", "He will likely call"},
		{"capitalized", "Never trust this", "likely trust this"},
		{"mixed case", "They ALWAYS do that", "They likely do that"},
		{"multiple terms", "definitely always never", "likely likely likely"},
		{"substring untouched", "The alwaysish feeling persists", "The alwaysish feeling persists"},
		{"term at boundary with punctuation", "It is obvious, obviously.", "It is obvious, likely."},
		{"no terms", "A neutral sentence", "A neutral sentence"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitize(tt.input); got != tt.want {
				t.Errorf("sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_PrescriptivePhrases(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"you should", "You should call him", "[consider] call him"},
		{"you need to", "you need to stop", "[consider] stop"},
		{"tell him", "Just tell him the truth", "Just [consider] the truth"},
		{"break up", "Maybe break up with her", "Maybe [consider] with her"},
		{"phrase inside word untouched", "她说 breakups happen", "她说 breakups happen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitize(tt.input); got != tt.want {
				t.Errorf("sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestClamp_Boundaries(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-1, 0},
		{0, 0},
		{50, 50},
		{100, 100},
		{101, 100},
	}
	for _, tt := range tests {
		if got := clamp(tt.in); got != tt.want {
			t.Errorf("clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func sampleResult() *model.AnalysisResult {
	return &model.AnalysisResult{
		IntentScore:    150,
		Confidence:     -20,
		EmotionalTones: []string{"anxious", "hopeful"},
		SubtextSummary: model.SubtextSummary{
			Explicit: "She definitely wants to meet",
			Implied:  "You should tell him tonight",
			Avoided:  "She will never admit it",
		},
		Patterns: []model.PatternSignal{
			{Type: "withdrawal", Strength: 120, Trend: model.TrendIncreasing, Description: "They always pull away"},
		},
		RiskFlags: []model.RiskFlag{
			{Type: "escalation", Level: model.RiskYellow, Probability: 101, Description: "This must end badly"},
		},
		Strategies: []model.Strategy{
			{
				Name:             "Definitely confront",
				OptimizationGoal: "You need to get clarity",
				Risks:            []string{"They obviously may withdraw"},
				SampleReply:      "I think you should know how I feel.",
			},
		},
	}
}

func TestEnforce_SanitizesAllTextFields(t *testing.T) {
	safe := Enforce(sampleResult())

	checks := map[string]string{
		"subtext explicit":  safe.SubtextSummary.Explicit,
		"subtext implied":   safe.SubtextSummary.Implied,
		"subtext avoided":   safe.SubtextSummary.Avoided,
		"pattern desc":      safe.Patterns[0].Description,
		"risk desc":         safe.RiskFlags[0].Description,
		"strategy name":     safe.Strategies[0].Name,
		"strategy goal":     safe.Strategies[0].OptimizationGoal,
		"strategy risk":     safe.Strategies[0].Risks[0],
	}

	banned := []string{"definitely", "always", "never", "must", "obviously", "you should", "you need to", "tell him"}
	for field, text := range checks {
		lower := strings.ToLower(text)
		for _, term := range banned {
			if containsWholeWord(lower, term) {
				t.Errorf("%s still contains %q: %q", field, term, text)
			}
		}
	}

	if safe.SubtextSummary.Explicit != "She likely wants to meet" {
		t.Errorf("Unexpected explicit subtext: %q", safe.SubtextSummary.Explicit)
	}
	if safe.SubtextSummary.Implied != "[consider] [consider] tonight" {
		t.Errorf("Unexpected implied subtext: %q", safe.SubtextSummary.Implied)
	}
}

func TestEnforce_SampleReplyUntouched(t *testing.T) {
	safe := Enforce(sampleResult())
	if safe.Strategies[0].SampleReply != "I think you should know how I feel." {
		t.Errorf("Sample reply was rewritten: %q", safe.Strategies[0].SampleReply)
	}
}

func TestEnforce_ClampsNumericFields(t *testing.T) {
	safe := Enforce(sampleResult())

	if safe.IntentScore != 100 {
		t.Errorf("Expected intent score clamped to 100, got %v", safe.IntentScore)
	}
	if safe.Confidence != 0 {
		t.Errorf("Expected confidence clamped to 0, got %v", safe.Confidence)
	}
	if safe.Patterns[0].Strength != 100 {
		t.Errorf("Expected pattern strength clamped to 100, got %v", safe.Patterns[0].Strength)
	}
	if safe.RiskFlags[0].Probability != 100 {
		t.Errorf("Expected risk probability clamped to 100, got %v", safe.RiskFlags[0].Probability)
	}
}

func TestEnforce_DoesNotMutateInput(t *testing.T) {
	original := sampleResult()
	snapshot := *original
	snapshotStrategies := append([]model.Strategy(nil), original.Strategies...)

	_ = Enforce(original)

	if original.IntentScore != snapshot.IntentScore {
		t.Error("Enforce mutated the input intent score")
	}
	if original.SubtextSummary != snapshot.SubtextSummary {
		t.Error("Enforce mutated the input subtext summary")
	}
	if !reflect.DeepEqual(original.Strategies, snapshotStrategies) {
		t.Error("Enforce mutated the input strategies")
	}
}

func TestEnforce_Idempotent(t *testing.T) {
	once := Enforce(sampleResult())
	twice := Enforce(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Enforce is not idempotent:\nfirst:  %+v\nsecond: %+v", once, twice)
	}
}

func TestEnforce_EmptyResult(t *testing.T) {
	safe := Enforce(&model.AnalysisResult{})

	if safe == nil {
		t.Fatal("Expected a result, got nil")
	}
	if len(safe.Strategies) != 0 || len(safe.RiskFlags) != 0 || len(safe.Patterns) != 0 {
		t.Error("Expected empty collections to stay empty")
	}
}

// containsWholeWord reports whether lower contains term as a whole word
func containsWholeWord(lower, term string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], term)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(term)
		beforeOK := start == 0 || !isWordChar(lower[start-1])
		afterOK := end == len(lower) || !isWordChar(lower[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
