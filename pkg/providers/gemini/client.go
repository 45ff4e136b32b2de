// Package gemini implements the provider adapter for the Google Gemini
// generateContent API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/thalas777/thalas-trader-sub000/pkg/providers"
)

const (
	// defaultBaseURL is the Gemini API endpoint.
	defaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-1.5-pro"
)

// defaultPricing is the Gemini token pricing in USD per 1M tokens.
func defaultPricing() *providers.PricingTable {
	return providers.NewPricingTable(map[string]providers.ModelPrice{
		"gemini-1.5-pro":   {InputPerMTok: 1.25, OutputPerMTok: 5.00},
		"gemini-1.5-flash": {InputPerMTok: 0.075, OutputPerMTok: 0.30},
		"gemini-2.0-flash": {InputPerMTok: 0.10, OutputPerMTok: 0.40},
	}, providers.ModelPrice{InputPerMTok: 1.25, OutputPerMTok: 5.00})
}

// Provider is the Gemini adapter.
type Provider struct {
	*providers.HTTPClient
}

// New creates a Gemini provider from the given configuration.
// The API key is required; base URL and model fall back to vendor defaults.
func New(cfg providers.Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, &providers.Error{
			Kind:     providers.ErrorValidation,
			Provider: cfg.Name,
			Message:  "API key is required for Gemini",
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := providers.NewHTTPClient(cfg, defaultPricing())
	if err != nil {
		return nil, err
	}

	slog.Info("gemini provider initialized",
		"provider", cfg.Name,
		"model", cfg.Model,
		"base_url", cfg.BaseURL,
	)

	return &Provider{HTTPClient: client}, nil
}

// GenerateSignal queries the generateContent API for a trading signal. The
// whole call, extraction included, runs under the circuit breaker.
func (p *Provider) GenerateSignal(ctx context.Context, req *providers.SignalRequest) (*providers.SignalResponse, error) {
	var resp *providers.SignalResponse
	err := p.Call(func() error {
		var err error
		resp, err = p.generate(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (p *Provider) generate(ctx context.Context, req *providers.SignalRequest) (*providers.SignalResponse, error) {
	start := time.Now()

	var envelope generateResponse
	if err := p.DoJSON(ctx, http.MethodPost, p.endpoint(), buildRequest(p.Config(), req), &envelope, p.headers()); err != nil {
		return nil, err
	}

	text, err := responseText(&envelope)
	if err != nil {
		return nil, &providers.Error{
			Kind:     providers.ErrorValidation,
			Provider: p.Name(),
			Message:  err.Error(),
			Cause:    err,
		}
	}

	sig, err := providers.ExtractSignal(text)
	if err != nil {
		return nil, &providers.Error{
			Kind:     providers.ErrorParse,
			Provider: p.Name(),
			Message:  err.Error(),
			Cause:    err,
		}
	}

	latency := time.Since(start)
	slog.Debug("signal generated",
		"provider", p.Name(),
		"decision", string(sig.Decision),
		"confidence", sig.Confidence,
		"latency_ms", latency.Milliseconds(),
	)

	return &providers.SignalResponse{
		ProviderName:        p.Name(),
		Decision:            sig.Decision,
		Confidence:          sig.Confidence,
		Reasoning:           sig.Reasoning,
		RiskLevel:           sig.RiskLevel,
		SuggestedStopLoss:   sig.StopLoss,
		SuggestedTakeProfit: sig.TakeProfit,
		LatencyMs:           float64(latency.Microseconds()) / 1000.0,
		TokensIn:            envelope.UsageMetadata.PromptTokenCount,
		TokensOut:           envelope.UsageMetadata.CandidatesTokenCount,
		CostUSD:             p.EstimateCost(envelope.UsageMetadata.PromptTokenCount, envelope.UsageMetadata.CandidatesTokenCount),
		RawText:             text,
	}, nil
}

// HealthCheck sends a one-token generation probe.
func (p *Provider) HealthCheck(ctx context.Context) error {
	body, err := json.Marshal(buildProbeRequest())
	if err != nil {
		return err
	}
	return p.Probe(ctx, http.MethodPost, p.endpoint(), body, p.headers())
}

// endpoint builds the model-scoped generateContent URL. Gemini takes the
// API key as a query parameter.
func (p *Provider) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		p.Config().BaseURL, p.Config().Model, url.QueryEscape(p.Config().APIKey))
}

func (p *Provider) headers() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}
