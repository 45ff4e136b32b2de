package providers

import (
	"strings"
	"testing"
)

func TestExtractSignalCleanJSON(t *testing.T) {
	sig, err := ExtractSignal(`{"decision": "BUY", "confidence": 0.85, "reasoning": "momentum turning up", "risk_level": "low"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Decision != DecisionBuy {
		t.Errorf("decision = %s, want BUY", sig.Decision)
	}
	if sig.Confidence != 0.85 {
		t.Errorf("confidence = %g, want 0.85", sig.Confidence)
	}
	if sig.RiskLevel != RiskLow {
		t.Errorf("risk_level = %s, want low", sig.RiskLevel)
	}
}

func TestExtractSignalLadder(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Decision
	}{
		{
			name:    "fenced with language tag",
			content: "```json\n{\"decision\": \"SELL\", \"confidence\": 0.7, \"reasoning\": \"bearish divergence\"}\n```",
			want:    DecisionSell,
		},
		{
			name:    "fenced without language tag",
			content: "```\n{\"decision\": \"HOLD\", \"confidence\": 0.5, \"reasoning\": \"mixed signals\"}\n```",
			want:    DecisionHold,
		},
		{
			name:    "embedded in prose",
			content: `Here is my analysis: {"decision": "buy", "confidence": 0.9, "reasoning": "strong support"} Hope this helps!`,
			want:    DecisionBuy,
		},
		{
			name:    "braces inside reasoning string",
			content: `{"decision": "HOLD", "confidence": 0.6, "reasoning": "range {48k, 52k} holds"}`,
			want:    DecisionHold,
		},
		{
			name:    "second object is the valid one",
			content: `{"note": "context"} {"decision": "SELL", "confidence": 0.8, "reasoning": "breakdown"}`,
			want:    DecisionSell,
		},
		{
			name:    "signal after several non-signal fragments",
			content: `{"a": 1} {"decision": "SHORT", "confidence": 0.9, "reasoning": "x"} {"decision": "BUY", "confidence": 0.9, "reasoning": "momentum"}`,
			want:    DecisionBuy,
		},
		{
			name:    "lowercase decision and mixed-case keys",
			content: `{"Decision": "hold", "Confidence": 0.4, "Reasoning": "waiting for confirmation"}`,
			want:    DecisionHold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := ExtractSignal(tt.content)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sig.Decision != tt.want {
				t.Errorf("decision = %s, want %s", sig.Decision, tt.want)
			}
		})
	}
}

func TestExtractSignalRejections(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty content", "   "},
		{"no JSON at all", "I think you should buy."},
		{"missing decision", `{"confidence": 0.8, "reasoning": "x"}`},
		{"unknown decision", `{"decision": "SHORT", "confidence": 0.8, "reasoning": "x"}`},
		{"missing confidence", `{"decision": "BUY", "reasoning": "x"}`},
		{"confidence above one", `{"decision": "BUY", "confidence": 1.3, "reasoning": "x"}`},
		{"negative confidence", `{"decision": "BUY", "confidence": -0.1, "reasoning": "x"}`},
		{"missing reasoning", `{"decision": "BUY", "confidence": 0.8}`},
		{"blank reasoning", `{"decision": "BUY", "confidence": 0.8, "reasoning": "  "}`},
		{"unknown risk level", `{"decision": "BUY", "confidence": 0.8, "reasoning": "x", "risk_level": "extreme"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ExtractSignal(tt.content); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestExtractSignalDefaultsAndSuggestions(t *testing.T) {
	sig, err := ExtractSignal(`{"decision": "BUY", "confidence": "0.75", "reasoning": "r", "suggested_stop_loss": 48500.0, "suggested_take_profit": -1.0}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.RiskLevel != RiskMedium {
		t.Errorf("risk_level = %s, want medium default", sig.RiskLevel)
	}
	if sig.Confidence != 0.75 {
		t.Errorf("confidence = %g, want 0.75 from numeric string", sig.Confidence)
	}
	if sig.StopLoss == nil || *sig.StopLoss != 48500.0 {
		t.Errorf("stop loss = %v, want 48500", sig.StopLoss)
	}
	if sig.TakeProfit != nil {
		t.Errorf("take profit = %v, want dropped for non-positive value", *sig.TakeProfit)
	}
}

func TestExtractSignalIdempotent(t *testing.T) {
	content := "```json\n" + `{"decision": "SELL", "confidence": 0.66, "reasoning": "repeat me", "risk_level": "high"}` + "\n```"

	first, err := ExtractSignal(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ExtractSignal(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *first != *second {
		t.Errorf("extraction not idempotent: %+v vs %+v", first, second)
	}
}

func TestExtractSignalLongReasoningSurvives(t *testing.T) {
	reasoning := strings.Repeat("very long analysis ", 100)
	sig, err := ExtractSignal(`{"decision": "HOLD", "confidence": 0.5, "reasoning": "` + reasoning + `"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Reasoning != strings.TrimSpace(reasoning) {
		t.Error("reasoning must not be truncated at extraction time")
	}
}
