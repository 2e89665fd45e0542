package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Registered contract names
const (
	CoreAnalysis      = "core_analysis"
	StrategySynthesis = "strategy_synthesis"
	AnalysisResult    = "analysis_result"
)

// Violation describes a single field that failed validation
type Violation struct {
	Field  string `json:"field"`  // Dotted path, e.g. "risk_flags[2].probability"
	Reason string `json:"reason"` // Human-readable failure description
}

func (v Violation) String() string {
	return v.Field + ": " + v.Reason
}

// ValidationError aggregates every violation found in a candidate value.
// Validation never stops at the first mismatch so callers can log a
// complete diagnostic in one pass.
type ValidationError struct {
	Schema     string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("schema %q: %d violation(s): %s", e.Schema, len(e.Violations), strings.Join(parts, "; "))
}

// Validate checks a decoded JSON tree against the named contract.
// It returns nil when the candidate conforms, a *ValidationError listing
// every violation when it does not, and an error for unknown schema names.
// Validate has no side effects.
func Validate(candidate any, name string) error {
	root, ok := registry[name]
	if !ok {
		return fmt.Errorf("unknown schema: %s", name)
	}

	var violations []Violation
	check(candidate, root, "", &violations)

	if len(violations) > 0 {
		sort.Slice(violations, func(i, j int) bool { return violations[i].Field < violations[j].Field })
		return &ValidationError{Schema: name, Violations: violations}
	}
	return nil
}

// Names returns the registered contract names, sorted
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type kind int

const (
	kindString kind = iota
	kindNumber
	kindObject
	kindArray
)

// spec declares one node of a contract: its type plus value constraints
type spec struct {
	kind     kind
	optional bool

	// Numbers: closed interval, both bounds required when ranged
	ranged   bool
	min, max float64

	// Strings: enum membership when non-empty
	enum []string

	// Objects
	fields map[string]spec

	// Arrays
	elem     *spec
	minItems int
}

func check(value any, s spec, path string, out *violations) {
	switch s.kind {
	case kindString:
		str, ok := value.(string)
		if !ok {
			add(out, path, fmt.Sprintf("expected string, got %s", typeName(value)))
			return
		}
		if len(s.enum) > 0 && !containsString(s.enum, str) {
			add(out, path, fmt.Sprintf("%q not in [%s]", str, strings.Join(s.enum, ", ")))
		}

	case kindNumber:
		num, ok := value.(float64)
		if !ok {
			add(out, path, fmt.Sprintf("expected number, got %s", typeName(value)))
			return
		}
		if s.ranged && (num < s.min || num > s.max) {
			add(out, path, fmt.Sprintf("%v outside [%v, %v]", num, s.min, s.max))
		}

	case kindObject:
		obj, ok := value.(map[string]any)
		if !ok {
			add(out, path, fmt.Sprintf("expected object, got %s", typeName(value)))
			return
		}
		for name, fs := range s.fields {
			fieldPath := name
			if path != "" {
				fieldPath = path + "." + name
			}
			fieldValue, present := obj[name]
			if !present || fieldValue == nil {
				if !fs.optional {
					add(out, fieldPath, "missing required field")
				}
				continue
			}
			check(fieldValue, fs, fieldPath, out)
		}

	case kindArray:
		arr, ok := value.([]any)
		if !ok {
			add(out, path, fmt.Sprintf("expected array, got %s", typeName(value)))
			return
		}
		if len(arr) < s.minItems {
			add(out, path, fmt.Sprintf("expected at least %d item(s), got %d", s.minItems, len(arr)))
		}
		for i, item := range arr {
			check(item, *s.elem, fmt.Sprintf("%s[%d]", path, i), out)
		}
	}
}

type violations = []Violation

func add(out *violations, field, reason string) {
	if field == "" {
		field = "(root)"
	}
	*out = append(*out, Violation{Field: field, Reason: reason})
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// Contract building blocks

func strField() spec                { return spec{kind: kindString} }
func optStrField() spec             { return spec{kind: kindString, optional: true} }
func enumField(vals ...string) spec { return spec{kind: kindString, enum: vals} }
func scoreField() spec              { return spec{kind: kindNumber, ranged: true, min: 0, max: 100} }

func objField(fields map[string]spec) spec {
	return spec{kind: kindObject, fields: fields}
}

func arrField(elem spec, minItems int) spec {
	return spec{kind: kindArray, elem: &elem, minItems: minItems}
}

var subtextSummarySpec = objField(map[string]spec{
	"explicit": strField(),
	"implied":  strField(),
	"avoided":  strField(),
})

var riskFlagSpec = objField(map[string]spec{
	"type":        strField(),
	"level":       enumField("red", "yellow", "green"),
	"probability": scoreField(),
	"description": strField(),
})

var strategySpec = objField(map[string]spec{
	"name":              strField(),
	"optimization_goal": strField(),
	"risks":             arrField(strField(), 0),
	"sample_reply":      optStrField(),
})

var patternSignalSpec = objField(map[string]spec{
	"type":        strField(),
	"strength":    scoreField(),
	"trend":       enumField("increasing", "stable", "decreasing"),
	"description": strField(),
})

// registry maps contract names to their root specs. The stage contracts
// must stay field-compatible with the final result shape: the pipeline
// merges stage outputs positionally, so drift here is a contract break.
var registry = map[string]spec{
	CoreAnalysis: objField(map[string]spec{
		"subtext_summary": subtextSummarySpec,
		"intent_score":    scoreField(),
		"confidence":      scoreField(),
		"emotional_tones": arrField(strField(), 0),
		"risk_flags":      arrField(riskFlagSpec, 0),
	}),

	StrategySynthesis: objField(map[string]spec{
		"strategies": arrField(strategySpec, 1),
	}),

	AnalysisResult: objField(map[string]spec{
		"subtext_summary": subtextSummarySpec,
		"intent_score":    scoreField(),
		"confidence":      scoreField(),
		"emotional_tones": arrField(strField(), 0),
		"patterns":        arrField(patternSignalSpec, 0),
		"risk_flags":      arrField(riskFlagSpec, 0),
		"strategies":      arrField(strategySpec, 0),
	}),
}
