// Package openai implements the provider adapter for the OpenAI Chat
// Completions API. The adapter is parameterizable over base URL, default
// model and pricing, so OpenAI-compatible vendors (Grok and similar) reuse
// it instead of duplicating the wire protocol.
package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/thalas777/thalas-trader-sub000/pkg/providers"
)

const (
	// defaultBaseURL is the OpenAI API endpoint.
	defaultBaseURL = "https://api.openai.com"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o"
)

// defaultPricing is the OpenAI token pricing in USD per 1M tokens.
func defaultPricing() *providers.PricingTable {
	return providers.NewPricingTable(map[string]providers.ModelPrice{
		"gpt-4o":      {InputPerMTok: 2.50, OutputPerMTok: 10.00},
		"gpt-4o-mini": {InputPerMTok: 0.15, OutputPerMTok: 0.60},
		"gpt-4-turbo": {InputPerMTok: 10.00, OutputPerMTok: 30.00},
		"o1":          {InputPerMTok: 15.00, OutputPerMTok: 60.00},
	}, providers.ModelPrice{InputPerMTok: 2.50, OutputPerMTok: 10.00})
}

// Options parameterize the adapter for OpenAI-compatible vendors.
type Options struct {
	// BaseURL is the vendor endpoint (no trailing slash).
	BaseURL string

	// DefaultModel is applied when the configuration omits a model.
	DefaultModel string

	// Pricing is the vendor's token pricing table.
	Pricing *providers.PricingTable
}

// Provider is an adapter for any OpenAI-compatible chat completions API.
type Provider struct {
	*providers.HTTPClient
}

// New creates a provider targeting the OpenAI API itself.
func New(cfg providers.Config) (*Provider, error) {
	return NewCompatible(cfg, Options{
		BaseURL:      defaultBaseURL,
		DefaultModel: DefaultModel,
		Pricing:      defaultPricing(),
	})
}

// NewCompatible creates a provider for an OpenAI-compatible vendor with its
// own endpoint, default model and pricing.
func NewCompatible(cfg providers.Config, opts Options) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, &providers.Error{
			Kind:     providers.ErrorValidation,
			Provider: cfg.Name,
			Message:  "API key is required",
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = opts.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = opts.DefaultModel
	}

	client, err := providers.NewHTTPClient(cfg, opts.Pricing)
	if err != nil {
		return nil, err
	}

	slog.Info("openai-compatible provider initialized",
		"provider", cfg.Name,
		"model", cfg.Model,
		"base_url", cfg.BaseURL,
	)

	return &Provider{HTTPClient: client}, nil
}

// GenerateSignal queries the chat completions API for a trading signal. The
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

	var envelope chatResponse
	url := p.Config().BaseURL + "/v1/chat/completions"
	if err := p.DoJSON(ctx, http.MethodPost, url, buildRequest(p.Config(), req), &envelope, p.headers()); err != nil {
		return nil, err
	}

	content, err := responseText(&envelope)
	if err != nil {
		return nil, &providers.Error{
			Kind:     providers.ErrorValidation,
			Provider: p.Name(),
			Message:  err.Error(),
			Cause:    err,
		}
	}

	sig, err := providers.ExtractSignal(content)
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
		TokensIn:            envelope.Usage.PromptTokens,
		TokensOut:           envelope.Usage.CompletionTokens,
		CostUSD:             p.EstimateCost(envelope.Usage.PromptTokens, envelope.Usage.CompletionTokens),
		RawText:             content,
	}, nil
}

// HealthCheck sends a one-token completion probe.
func (p *Provider) HealthCheck(ctx context.Context) error {
	body, err := json.Marshal(buildProbeRequest(p.Config()))
	if err != nil {
		return err
	}
	return p.Probe(ctx, http.MethodPost, p.Config().BaseURL+"/v1/chat/completions", body, p.headers())
}

func (p *Provider) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + p.Config().APIKey,
		"Content-Type":  "application/json",
	}
}
