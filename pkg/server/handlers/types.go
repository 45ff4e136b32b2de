// Package handlers implements the consensus HTTP API: the consensus
// POST/GET resource, the liveness probe and the provider status listing.
package handlers

import (
	"fmt"
	"math"
)

// acceptedTimeframes is the closed set of candle timeframes the API accepts.
var acceptedTimeframes = map[string]bool{
	"1m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "4h": true, "1d": true,
}

// ConsensusRequest is the POST body of the consensus resource.
type ConsensusRequest struct {
	// MarketData maps indicator names to numeric values. Must be non-empty.
	MarketData map[string]float64 `json:"market_data"`

	// Pair is the trading pair (e.g. "BTC/USD").
	Pair string `json:"pair"`

	// Timeframe is the candle timeframe; one of 1m, 5m, 15m, 30m, 1h, 4h, 1d.
	Timeframe string `json:"timeframe"`

	// CurrentPrice is the current pair price; positive and finite.
	CurrentPrice float64 `json:"current_price"`

	// ProviderWeights optionally overrides vote weights, each in [0, 2].
	ProviderWeights map[string]float64 `json:"provider_weights,omitempty"`
}

// Validate checks every field and collects all failures, keyed by field
// name, so the client sees the full list at once.
func (r *ConsensusRequest) Validate() map[string][]string {
	details := make(map[string][]string)

	if len(r.MarketData) == 0 {
		details["market_data"] = append(details["market_data"], "must be a non-empty object")
	}
	for name, value := range r.MarketData {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			details["market_data"] = append(details["market_data"],
				fmt.Sprintf("indicator %q must be finite", name))
		}
	}

	if r.Pair == "" {
		details["pair"] = append(details["pair"], "must be a non-empty string")
	}

	if !acceptedTimeframes[r.Timeframe] {
		details["timeframe"] = append(details["timeframe"],
			fmt.Sprintf("%q is not an accepted timeframe (1m, 5m, 15m, 30m, 1h, 4h, 1d)", r.Timeframe))
	}

	if r.CurrentPrice <= 0 || math.IsNaN(r.CurrentPrice) || math.IsInf(r.CurrentPrice, 0) {
		details["current_price"] = append(details["current_price"], "must be a positive finite number")
	}

	for name, w := range r.ProviderWeights {
		if w < 0 || w > 2 || math.IsNaN(w) {
			details["provider_weights"] = append(details["provider_weights"],
				fmt.Sprintf("weight for %q must be in [0, 2]", name))
		}
	}

	if len(details) == 0 {
		return nil
	}
	return details
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error             string              `json:"error"`
	Detail            string              `json:"detail,omitempty"`
	Details           map[string][]string `json:"details,omitempty"`
	PerProviderErrors map[string]string   `json:"per_provider_errors,omitempty"`
}

// HealthResponse is the GET body of the consensus resource.
type HealthResponse struct {
	Status             string          `json:"status"`
	AvailableProviders int             `json:"available_providers"`
	RequiredProviders  int             `json:"required_providers"`
	ProviderHealth     map[string]bool `json:"provider_health"`
}
