package anthropic

import (
	"fmt"

	"github.com/thalas777/thalas-trader-sub000/pkg/providers"
)

// Anthropic Messages API envelope.

// messagesRequest is the request body for POST /v1/messages.
type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature,omitempty"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
}

// message is a single conversation turn in Anthropic format.
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the response body of POST /v1/messages.
type messagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      usage          `json:"usage"`
}

// contentBlock is one block of the response content.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// usage is Anthropic's token accounting.
type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// buildRequest transforms a market snapshot into the Anthropic envelope.
// The system instruction travels in the dedicated top-level field; the user
// message carries the rendered snapshot.
func buildRequest(cfg providers.Config, req *providers.SignalRequest) *messagesRequest {
	return &messagesRequest{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		System:      providers.SystemPrompt,
		Messages: []message{
			{Role: "user", Content: providers.BuildUserPrompt(req)},
		},
	}
}

// buildProbeRequest is the one-token health probe body.
func buildProbeRequest(cfg providers.Config) *messagesRequest {
	return &messagesRequest{
		Model:     cfg.Model,
		MaxTokens: 1,
		Messages: []message{
			{Role: "user", Content: providers.HealthProbePrompt},
		},
	}
}

// responseText concatenates the text blocks of the response content.
// An envelope with no text is a vendor schema violation.
func responseText(resp *messagesResponse) (string, error) {
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("response envelope contains no text content")
	}
	return text, nil
}
