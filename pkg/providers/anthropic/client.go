// Package anthropic implements the provider adapter for the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/thalas777/thalas-trader-sub000/pkg/providers"
)

const (
	// defaultBaseURL is the Anthropic API endpoint.
	defaultBaseURL = "https://api.anthropic.com"

	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-3-5-sonnet-20241022"

	// apiVersion is the required anthropic-version header value.
	apiVersion = "2023-06-01"
)

// defaultPricing is the Anthropic token pricing in USD per 1M tokens.
func defaultPricing() *providers.PricingTable {
	return providers.NewPricingTable(map[string]providers.ModelPrice{
		"claude-3-5-sonnet": {InputPerMTok: 3.00, OutputPerMTok: 15.00},
		"claude-3-5-haiku":  {InputPerMTok: 0.80, OutputPerMTok: 4.00},
		"claude-3-opus":     {InputPerMTok: 15.00, OutputPerMTok: 75.00},
		"claude-sonnet-4":   {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	}, providers.ModelPrice{InputPerMTok: 3.00, OutputPerMTok: 15.00})
}

// Provider is the Anthropic adapter.
type Provider struct {
	*providers.HTTPClient
}

// New creates an Anthropic provider from the given configuration.
// The API key is required; base URL and model fall back to vendor defaults.
func New(cfg providers.Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, &providers.Error{
			Kind:     providers.ErrorValidation,
			Provider: cfg.Name,
			Message:  "API key is required for Anthropic",
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

	slog.Info("anthropic provider initialized",
		"provider", cfg.Name,
		"model", cfg.Model,
		"base_url", cfg.BaseURL,
	)

	return &Provider{HTTPClient: client}, nil
}

// GenerateSignal queries the Messages API for a trading signal. The whole
// call, extraction included, runs under the circuit breaker.
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

	var envelope messagesResponse
	url := p.Config().BaseURL + "/v1/messages"
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
		TokensIn:            envelope.Usage.InputTokens,
		TokensOut:           envelope.Usage.OutputTokens,
		CostUSD:             p.EstimateCost(envelope.Usage.InputTokens, envelope.Usage.OutputTokens),
		RawText:             content,
	}, nil
}

// HealthCheck sends a one-token completion probe.
func (p *Provider) HealthCheck(ctx context.Context) error {
	body, err := json.Marshal(buildProbeRequest(p.Config()))
	if err != nil {
		return err
	}
	return p.Probe(ctx, http.MethodPost, p.Config().BaseURL+"/v1/messages", body, p.headers())
}

func (p *Provider) headers() map[string]string {
	return map[string]string{
		"x-api-key":         p.Config().APIKey,
		"anthropic-version": apiVersion,
		"Content-Type":      "application/json",
	}
}
