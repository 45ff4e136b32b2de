package providers

import "fmt"

// SignalJSON is the canonical model output the adapters parse.
const SignalJSON = `{"decision": "BUY", "confidence": 0.85, "reasoning": "RSI oversold with bullish MACD crossover", "risk_level": "medium", "suggested_stop_loss": 48500.0, "suggested_take_profit": 52000.0}`

// AnthropicEnvelope wraps content into an Anthropic Messages response body.
func AnthropicEnvelope(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":    "msg_test",
		"type":  "message",
		"role":  "assistant",
		"model": "claude-3-5-sonnet-20241022",
		"content": []map[string]string{
			{"type": "text", "text": content},
		},
		"stop_reason": "end_turn",
		"usage": map[string]int{
			"input_tokens":  420,
			"output_tokens": 96,
		},
	}
}

// ChatEnvelope wraps content into an OpenAI chat completions response body,
// also used by the Grok adapter.
func ChatEnvelope(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "gpt-4o",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{
			"prompt_tokens":     420,
			"completion_tokens": 96,
			"total_tokens":      516,
		},
	}
}

// GeminiEnvelope wraps content into a Gemini generateContent response body.
func GeminiEnvelope(content string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"role":  "model",
					"parts": []map[string]string{{"text": content}},
				},
				"finishReason": "STOP",
			},
		},
		"usageMetadata": map[string]int{
			"promptTokenCount":     420,
			"candidatesTokenCount": 96,
			"totalTokenCount":      516,
		},
	}
}

// VendorError builds a vendor-style error body.
func VendorError(message string) string {
	return fmt.Sprintf(`{"error": {"message": %q}}`, message)
}
