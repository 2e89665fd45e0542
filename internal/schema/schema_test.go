package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("test fixture is not valid JSON: %v", err)
	}
	return v
}

const validCoreAnalysis = `{
	"subtext_summary": {"explicit": "a", "implied": "b", "avoided": "c"},
	"intent_score": 72,
	"confidence": 85,
	"emotional_tones": ["anxious", "hopeful"],
	"risk_flags": [
		{"type": "escalation", "level": "yellow", "probability": 40, "description": "tension rising"}
	]
}`

func TestValidate_CoreAnalysis_Valid(t *testing.T) {
	if err := Validate(decode(t, validCoreAnalysis), CoreAnalysis); err != nil {
		t.Fatalf("Expected valid core analysis, got %v", err)
	}
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate(decode(t, `{}`), "nonexistent")
	if err == nil {
		t.Fatal("Expected error for unknown schema")
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		t.Error("Unknown schema should not produce a ValidationError")
	}
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	// Four independent problems: missing subtext_summary, out-of-range
	// intent_score, wrong confidence type, bad risk level enum.
	raw := `{
		"intent_score": 150,
		"confidence": "high",
		"emotional_tones": [],
		"risk_flags": [
			{"type": "x", "level": "purple", "probability": 10, "description": "d"}
		]
	}`

	err := Validate(decode(t, raw), CoreAnalysis)
	if err == nil {
		t.Fatal("Expected validation error")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected *ValidationError, got %T", err)
	}

	if len(verr.Violations) != 4 {
		t.Errorf("Expected 4 violations, got %d: %v", len(verr.Violations), verr.Violations)
	}

	wantFields := []string{"confidence", "intent_score", "risk_flags[0].level", "subtext_summary"}
	for i, want := range wantFields {
		if i >= len(verr.Violations) {
			break
		}
		if verr.Violations[i].Field != want {
			t.Errorf("Violation %d: expected field %q, got %q", i, want, verr.Violations[i].Field)
		}
	}
}

func TestValidate_BoundaryValues(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		valid bool
	}{
		{"below range", -1, false},
		{"lower bound", 0, true},
		{"upper bound", 100, true},
		{"above range", 101, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := map[string]any{
				"subtext_summary": map[string]any{"explicit": "a", "implied": "b", "avoided": "c"},
				"intent_score":    tt.score,
				"confidence":      50.0,
				"emotional_tones": []any{},
				"risk_flags":      []any{},
			}
			err := Validate(candidate, CoreAnalysis)
			if tt.valid && err != nil {
				t.Errorf("Expected %v to validate, got %v", tt.score, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Expected %v to fail validation", tt.score)
			}
		})
	}
}

func TestValidate_StrategySynthesis(t *testing.T) {
	valid := `{
		"strategies": [
			{"name": "Direct", "optimization_goal": "clarity", "risks": ["may feel blunt"]},
			{"name": "Gentle", "optimization_goal": "comfort", "risks": [], "sample_reply": "Maybe we could talk?"}
		]
	}`
	if err := Validate(decode(t, valid), StrategySynthesis); err != nil {
		t.Fatalf("Expected valid strategy list, got %v", err)
	}

	// sample_reply is optional; a missing name is not
	invalid := `{"strategies": [{"optimization_goal": "clarity", "risks": []}]}`
	err := Validate(decode(t, invalid), StrategySynthesis)
	if err == nil {
		t.Fatal("Expected validation error for missing strategy name")
	}
	if !strings.Contains(err.Error(), "strategies[0].name") {
		t.Errorf("Expected violation on strategies[0].name, got: %v", err)
	}
}

func TestValidate_StrategySynthesis_EmptyList(t *testing.T) {
	err := Validate(decode(t, `{"strategies": []}`), StrategySynthesis)
	if err == nil {
		t.Fatal("Expected empty strategy list to fail validation")
	}
	if !strings.Contains(err.Error(), "at least 1") {
		t.Errorf("Expected min-items violation, got: %v", err)
	}
}

func TestValidate_NotAnObject(t *testing.T) {
	for _, candidate := range []any{nil, "text", 42.0, []any{}} {
		if err := Validate(candidate, CoreAnalysis); err == nil {
			t.Errorf("Expected %v (%T) to fail validation", candidate, candidate)
		}
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 3 {
		t.Fatalf("Expected 3 registered schemas, got %d", len(names))
	}
	for _, want := range []string{AnalysisResult, CoreAnalysis, StrategySynthesis} {
		found := false
		for _, name := range names {
			if name == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected schema %q to be registered", want)
		}
	}
}
