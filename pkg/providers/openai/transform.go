package openai

import (
	"fmt"

	"github.com/thalas777/thalas-trader-sub000/pkg/providers"
)

// OpenAI Chat Completions envelope, shared by every OpenAI-compatible
// vendor.

// chatRequest is the request body for POST /v1/chat/completions.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// message is a single conversation turn.
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the response body of POST /v1/chat/completions.
type chatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
	Usage   usage    `json:"usage"`
}

// choice is one completion candidate.
type choice struct {
	Index        int     `json:"index"`
	Message      message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// usage is the token accounting block.
type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// buildRequest transforms a market snapshot into the chat envelope. The
// system instruction is the first message.
func buildRequest(cfg providers.Config, req *providers.SignalRequest) *chatRequest {
	return &chatRequest{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Messages: []message{
			{Role: "system", Content: providers.SystemPrompt},
			{Role: "user", Content: providers.BuildUserPrompt(req)},
		},
	}
}

// buildProbeRequest is the one-token health probe body.
func buildProbeRequest(cfg providers.Config) *chatRequest {
	return &chatRequest{
		Model:     cfg.Model,
		MaxTokens: 1,
		Messages: []message{
			{Role: "user", Content: providers.HealthProbePrompt},
		},
	}
}

// responseText extracts the first choice's content. An envelope with no
// choices or empty content is a vendor schema violation.
func responseText(resp *chatResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("response envelope contains no choices")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("response envelope contains empty content")
	}
	return content, nil
}
