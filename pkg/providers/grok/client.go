// Package grok implements the provider adapter for the xAI Grok API.
// Grok speaks the OpenAI chat completions protocol, so this package is a
// thin parameterization of the openai adapter with xAI's endpoint, default
// model and pricing.
package grok

import (
	"github.com/thalas777/thalas-trader-sub000/pkg/providers"
	"github.com/thalas777/thalas-trader-sub000/pkg/providers/openai"
)

const (
	// defaultBaseURL is the xAI API endpoint.
	defaultBaseURL = "https://api.x.ai"

	// DefaultModel is used when no model is configured.
	DefaultModel = "grok-2-latest"
)

// defaultPricing is the xAI token pricing in USD per 1M tokens.
func defaultPricing() *providers.PricingTable {
	return providers.NewPricingTable(map[string]providers.ModelPrice{
		"grok-2":      {InputPerMTok: 2.00, OutputPerMTok: 10.00},
		"grok-beta":   {InputPerMTok: 5.00, OutputPerMTok: 15.00},
		"grok-3-mini": {InputPerMTok: 0.30, OutputPerMTok: 0.50},
	}, providers.ModelPrice{InputPerMTok: 2.00, OutputPerMTok: 10.00})
}

// Provider is the Grok adapter.
type Provider struct {
	*openai.Provider
}

// New creates a Grok provider from the given configuration.
// The API key is required; base URL and model fall back to xAI defaults.
func New(cfg providers.Config) (*Provider, error) {
	inner, err := openai.NewCompatible(cfg, openai.Options{
		BaseURL:      defaultBaseURL,
		DefaultModel: DefaultModel,
		Pricing:      defaultPricing(),
	})
	if err != nil {
		return nil, err
	}
	return &Provider{Provider: inner}, nil
}
