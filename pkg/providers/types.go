package providers

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Decision is a normalized trading decision returned by a provider.
type Decision string

// Trading decision constants. Parsing is case-insensitive; the normalized
// form is always uppercase.
const (
	DecisionBuy  Decision = "BUY"
	DecisionSell Decision = "SELL"
	DecisionHold Decision = "HOLD"
)

// ParseDecision normalizes a raw decision string to one of BUY, SELL, HOLD.
func ParseDecision(raw string) (Decision, error) {
	switch Decision(strings.ToUpper(strings.TrimSpace(raw))) {
	case DecisionBuy:
		return DecisionBuy, nil
	case DecisionSell:
		return DecisionSell, nil
	case DecisionHold:
		return DecisionHold, nil
	default:
		return "", fmt.Errorf("unknown decision %q (expected BUY, SELL or HOLD)", raw)
	}
}

// RiskLevel is a normalized risk assessment returned by a provider.
type RiskLevel string

// Risk level constants, ordered low < medium < high.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ParseRiskLevel normalizes a raw risk string to low, medium or high.
func ParseRiskLevel(raw string) (RiskLevel, error) {
	switch RiskLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case RiskLow:
		return RiskLow, nil
	case RiskMedium:
		return RiskMedium, nil
	case RiskHigh:
		return RiskHigh, nil
	default:
		return "", fmt.Errorf("unknown risk level %q (expected low, medium or high)", raw)
	}
}

// Rank returns the conservative ordering of the risk level (low=0, high=2).
// Unknown levels rank as medium.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskHigh:
		return 2
	default:
		return 1
	}
}

// SignalRequest is the market snapshot sent to every provider.
// The adapter forwards the indicator map verbatim into the prompt; it neither
// validates nor interprets indicator semantics.
type SignalRequest struct {
	// MarketData maps indicator names to numeric values (e.g. "rsi": 65.5).
	MarketData map[string]float64

	// Pair is the trading pair (e.g. "BTC/USD").
	Pair string

	// Timeframe is the candle timeframe (e.g. "1h").
	Timeframe string

	// CurrentPrice is the current price of the pair.
	CurrentPrice float64
}

// SignalResponse is the normalized output of one provider call.
// Decision, Confidence and Reasoning are always present on a successful
// response; the price suggestions are optional.
type SignalResponse struct {
	// ProviderName identifies the adapter that produced the response.
	ProviderName string `json:"provider"`

	// Decision is the trading decision (BUY, SELL or HOLD).
	Decision Decision `json:"decision"`

	// Confidence is the provider's self-reported confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// Reasoning is the provider's free-text justification.
	Reasoning string `json:"reasoning"`

	// RiskLevel is the provider's risk assessment (low, medium, high).
	RiskLevel RiskLevel `json:"risk_level"`

	// SuggestedStopLoss is an optional stop-loss price suggestion.
	SuggestedStopLoss *float64 `json:"suggested_stop_loss,omitempty"`

	// SuggestedTakeProfit is an optional take-profit price suggestion.
	SuggestedTakeProfit *float64 `json:"suggested_take_profit,omitempty"`

	// LatencyMs is the wall-clock duration of the provider call in milliseconds.
	LatencyMs float64 `json:"latency_ms"`

	// TokensIn is the number of prompt tokens reported by the vendor.
	TokensIn int `json:"tokens_in"`

	// TokensOut is the number of completion tokens reported by the vendor.
	TokensOut int `json:"tokens_out"`

	// CostUSD is the estimated cost of the call in US dollars.
	CostUSD float64 `json:"cost_usd"`

	// RawText is the unparsed model output, kept for debugging. It is never
	// serialized to clients.
	RawText string `json:"-"`
}

// Config is the immutable per-adapter configuration.
type Config struct {
	// Name is the unique lowercase provider identifier (e.g. "anthropic").
	Name string

	// Model is the vendor model string (e.g. "claude-3-5-sonnet-20241022").
	Model string

	// APIKey is the vendor authentication secret.
	APIKey string

	// BaseURL overrides the vendor API endpoint when non-empty.
	BaseURL string

	// MaxTokens is the maximum number of completion tokens to request.
	MaxTokens int

	// Temperature controls sampling randomness (0.0 to 2.0).
	Temperature float64

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts for transient errors.
	MaxRetries int

	// Weight is the provider's default vote weight (0.0 to 2.0).
	Weight float64

	// Enabled marks the provider as eligible for consensus requests.
	Enabled bool

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host.
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool.
	IdleConnTimeout time.Duration
}

// Validate checks the configuration invariants. Adapters call it at
// construction time and fail on the first violation.
func (c *Config) Validate() error {
	if c.Name == "" {
		return &Error{Kind: ErrorValidation, Provider: c.Name, Message: "provider name is required"}
	}
	if c.Name != strings.ToLower(c.Name) {
		return &Error{Kind: ErrorValidation, Provider: c.Name, Message: "provider name must be lowercase"}
	}
	if c.MaxTokens <= 0 {
		return &Error{Kind: ErrorValidation, Provider: c.Name,
			Message: fmt.Sprintf("max_tokens must be positive, got %d", c.MaxTokens)}
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return &Error{Kind: ErrorValidation, Provider: c.Name,
			Message: fmt.Sprintf("temperature must be in [0, 2], got %g", c.Temperature)}
	}
	if c.Weight < 0 || c.Weight > 2 || math.IsNaN(c.Weight) {
		return &Error{Kind: ErrorValidation, Provider: c.Name,
			Message: fmt.Sprintf("weight must be in [0, 2], got %g", c.Weight)}
	}
	if c.MaxRetries < 0 {
		return &Error{Kind: ErrorValidation, Provider: c.Name,
			Message: fmt.Sprintf("max_retries must be non-negative, got %d", c.MaxRetries)}
	}
	return nil
}
