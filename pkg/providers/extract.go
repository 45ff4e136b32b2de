package providers

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParsedSignal is the normalized result of extracting a structured signal
// from free-form model output. It carries only the model-reported fields;
// the adapter attaches provider name, latency, tokens and cost.
type ParsedSignal struct {
	Decision   Decision
	Confidence float64
	Reasoning  string
	RiskLevel  RiskLevel
	StopLoss   *float64
	TakeProfit *float64
}

// ExtractSignal extracts and normalizes a trading signal from model output.
//
// Models are instructed to reply with only a JSON object, but in practice the
// content may be fenced, embedded in prose, or mixed with other fragments.
// The extraction ladder, in order:
//
//  1. Parse the entire content as JSON.
//  2. Strip an outer ``` fence (with optional language tag) and parse.
//  3. Scan for balanced { ... } objects by brace depth, respecting string
//     literals and escapes, and take the first one that normalizes into a
//     valid signal. Fragments that decode but are not signals (a stray
//     context object before the answer) are skipped, not fatal.
//
// Extraction is deterministic and idempotent: the same content always yields
// the same ParsedSignal. All normalization lives here so the four adapters
// cannot diverge; divergent normalization would make consensus
// non-reproducible.
func ExtractSignal(content string) (*ParsedSignal, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, fmt.Errorf("empty content")
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
		return normalizeSignal(obj)
	}

	if inner, ok := stripFence(trimmed); ok {
		if err := json.Unmarshal([]byte(inner), &obj); err == nil {
			return normalizeSignal(obj)
		}
	}

	var lastErr error
	for _, candidate := range balancedObjects(trimmed) {
		if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
			continue
		}
		sig, err := normalizeSignal(obj)
		if err == nil {
			return sig, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}

	return nil, fmt.Errorf("no JSON object found in content")
}

// stripFence removes an outer ``` fence with an optional language tag.
func stripFence(s string) (string, bool) {
	if !strings.HasPrefix(s, "```") {
		return "", false
	}
	rest := s[3:]
	// Drop the language tag up to the first newline.
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(rest[:idx])
		if firstLine == "" || isLanguageTag(firstLine) {
			rest = rest[idx+1:]
		}
	}
	if idx := strings.LastIndex(rest, "```"); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.TrimSpace(rest), true
}

// isLanguageTag reports whether a fence header line is a language tag
// rather than content.
func isLanguageTag(line string) bool {
	for _, r := range line {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// balancedObjects yields each balanced top-level { ... } span in s, in
// order of appearance. String literals and escape sequences are respected
// so braces inside reasoning text do not break the scan.
func balancedObjects(s string) []string {
	var spans []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					spans = append(spans, s[start:i+1])
					start = -1
				}
			}
		}
	}
	return spans
}

// normalizeSignal validates and normalizes a decoded object into a
// ParsedSignal. Keys are matched case-insensitively.
func normalizeSignal(obj map[string]interface{}) (*ParsedSignal, error) {
	fields := make(map[string]interface{}, len(obj))
	for k, v := range obj {
		fields[strings.ToLower(k)] = v
	}

	rawDecision, ok := fields["decision"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or non-string decision")
	}
	decision, err := ParseDecision(rawDecision)
	if err != nil {
		return nil, err
	}

	confidence, ok := toFloat(fields["confidence"])
	if !ok {
		return nil, fmt.Errorf("missing or non-numeric confidence")
	}
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("confidence %g outside [0, 1]", confidence)
	}

	reasoning, _ := fields["reasoning"].(string)
	reasoning = strings.TrimSpace(reasoning)
	if reasoning == "" {
		return nil, fmt.Errorf("missing or empty reasoning")
	}

	risk := RiskMedium
	if rawRisk, ok := fields["risk_level"].(string); ok {
		parsed, err := ParseRiskLevel(rawRisk)
		if err != nil {
			return nil, err
		}
		risk = parsed
	}

	sig := &ParsedSignal{
		Decision:   decision,
		Confidence: confidence,
		Reasoning:  reasoning,
		RiskLevel:  risk,
	}

	// Price suggestions are best-effort: non-finite or non-positive values
	// are dropped, not errors.
	if v, ok := toFloat(fields["suggested_stop_loss"]); ok && isFinitePositive(v) {
		sig.StopLoss = &v
	}
	if v, ok := toFloat(fields["suggested_take_profit"]); ok && isFinitePositive(v) {
		sig.TakeProfit = &v
	}

	return sig, nil
}

// toFloat coerces JSON numbers and numeric strings to float64.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func isFinitePositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
