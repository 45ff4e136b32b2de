package gemini

import (
	"fmt"

	"github.com/thalas777/thalas-trader-sub000/pkg/providers"
)

// Gemini generateContent envelope. The request shape differs substantially
// from the OpenAI-compatible vendors: content is nested in parts, the system
// instruction has its own top-level block and sampling knobs live under
// generationConfig.

// generateRequest is the request body for
// POST /v1beta/models/{model}:generateContent.
type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

// content is a role-tagged sequence of parts.
type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

// part is a single text fragment.
type part struct {
	Text string `json:"text"`
}

// generationConfig carries the sampling parameters.
type generationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// generateResponse is the response body of generateContent.
type generateResponse struct {
	Candidates    []candidate   `json:"candidates"`
	UsageMetadata usageMetadata `json:"usageMetadata"`
}

// candidate is one generation candidate.
type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

// usageMetadata is Gemini's token accounting.
type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// buildRequest transforms a market snapshot into the Gemini envelope.
func buildRequest(cfg providers.Config, req *providers.SignalRequest) *generateRequest {
	return &generateRequest{
		SystemInstruction: &content{
			Parts: []part{{Text: providers.SystemPrompt}},
		},
		Contents: []content{
			{Role: "user", Parts: []part{{Text: providers.BuildUserPrompt(req)}}},
		},
		GenerationConfig: &generationConfig{
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxTokens,
		},
	}
}

// buildProbeRequest is the one-token health probe body.
func buildProbeRequest() *generateRequest {
	return &generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: providers.HealthProbePrompt}}},
		},
		GenerationConfig: &generationConfig{MaxOutputTokens: 1},
	}
}

// responseText concatenates the text parts of the first candidate.
// An envelope with no text is a vendor schema violation.
func responseText(resp *generateResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("response envelope contains no candidates")
	}
	var text string
	for _, p := range resp.Candidates[0].Content.Parts {
		text += p.Text
	}
	if text == "" {
		return "", fmt.Errorf("response envelope contains no text content")
	}
	return text, nil
}
