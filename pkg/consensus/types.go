// Package consensus implements the weighted-vote aggregation of provider
// signals into a single trading decision. Aggregate is a pure function over
// its inputs; only the result timestamp reads the clock.
package consensus

import (
	"time"
	"unicode/utf8"

	"github.com/thalas777/thalas-trader-sub000/pkg/providers"
)

// defaultReasoningMaxLen bounds per-provider reasoning in the transport form
// of a result when Options does not set a limit.
const defaultReasoningMaxLen = 500

// Metadata describes how a consensus was reached.
type Metadata struct {
	// TotalProviders is the number of providers the orchestrator fanned
	// out to.
	TotalProviders int `json:"total_providers"`

	// ParticipatingProviders is the number of responses that survived
	// filtering and were aggregated.
	ParticipatingProviders int `json:"participating_providers"`

	// AgreementScore is the fraction of participants that voted for the
	// winning decision.
	AgreementScore float64 `json:"agreement_score"`

	// WeightedConfidence is the mean confidence of the winning voters,
	// weighted by their vote weights.
	WeightedConfidence float64 `json:"weighted_confidence"`

	// VoteBreakdown maps each decision to its raw vote count.
	VoteBreakdown map[providers.Decision]int `json:"vote_breakdown"`

	// WeightedVotes maps each decision to its summed weight*confidence.
	WeightedVotes map[providers.Decision]float64 `json:"weighted_votes"`

	// TotalLatencyMs sums latency across all responses, losers included.
	TotalLatencyMs float64 `json:"total_latency_ms"`

	// TotalCostUSD sums the estimated cost across all responses.
	TotalCostUSD float64 `json:"total_cost_usd"`

	// TotalTokens sums input and output tokens across all responses.
	TotalTokens int `json:"total_tokens"`

	// Timestamp is the UTC time the consensus was computed.
	Timestamp time.Time `json:"timestamp"`
}

// Result is the consensus decision with its supporting metadata.
type Result struct {
	Decision            providers.Decision  `json:"decision"`
	Confidence          float64             `json:"confidence"`
	Reasoning           string              `json:"reasoning"`
	RiskLevel           providers.RiskLevel `json:"risk_level"`
	SuggestedStopLoss   *float64            `json:"suggested_stop_loss,omitempty"`
	SuggestedTakeProfit *float64            `json:"suggested_take_profit,omitempty"`

	Metadata Metadata `json:"consensus_metadata"`

	// ProviderResponses lists the participating responses with reasoning
	// truncated for transport.
	ProviderResponses []providers.SignalResponse `json:"provider_responses"`
}

// Options tune a single aggregation.
type Options struct {
	// MinProviders is the minimum number of surviving responses required.
	MinProviders int

	// MinConfidence filters out responses below this confidence.
	MinConfidence float64

	// TotalProviders is the fan-out size, recorded in metadata. Zero means
	// "use the number of responses".
	TotalProviders int

	// ReasoningMaxLen bounds per-provider reasoning in the transport form
	// of the result. Zero means the default of 500 bytes.
	ReasoningMaxLen int
}

// truncateReasoning bounds free-form reasoning text for transport. The cut
// never splits a multi-byte rune.
func truncateReasoning(s string, limit int) string {
	if limit <= 0 {
		limit = defaultReasoningMaxLen
	}
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
