package consensus

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thalas777/thalas-trader-sub000/pkg/providers"
)

func response(name string, d providers.Decision, confidence float64) providers.SignalResponse {
	return providers.SignalResponse{
		ProviderName: name,
		Decision:     d,
		Confidence:   confidence,
		Reasoning:    name + " reasoning",
		RiskLevel:    providers.RiskMedium,
	}
}

func TestAggregateUnanimous(t *testing.T) {
	responses := []providers.SignalResponse{
		response("anthropic", providers.DecisionBuy, 0.8),
		response("openai", providers.DecisionBuy, 0.7),
		response("gemini", providers.DecisionBuy, 0.9),
		response("grok", providers.DecisionBuy, 0.6),
	}

	result, err := Aggregate(responses, nil, Options{MinProviders: 2})
	require.NoError(t, err)

	assert.Equal(t, providers.DecisionBuy, result.Decision)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
	assert.InDelta(t, 1.0, result.Metadata.AgreementScore, 1e-9)
	assert.Equal(t, 4, result.Metadata.ParticipatingProviders)
	assert.Equal(t, 4, result.Metadata.VoteBreakdown[providers.DecisionBuy])
}

func TestAggregateMajority(t *testing.T) {
	responses := []providers.SignalResponse{
		response("anthropic", providers.DecisionBuy, 0.8),
		response("openai", providers.DecisionBuy, 0.8),
		response("gemini", providers.DecisionBuy, 0.8),
		response("grok", providers.DecisionHold, 0.6),
	}

	result, err := Aggregate(responses, nil, Options{MinProviders: 2})
	require.NoError(t, err)

	assert.Equal(t, providers.DecisionBuy, result.Decision)
	assert.InDelta(t, 2.4, result.Metadata.WeightedVotes[providers.DecisionBuy], 1e-9)
	assert.InDelta(t, 0.6, result.Metadata.WeightedVotes[providers.DecisionHold], 1e-9)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
	assert.InDelta(t, 0.75, result.Metadata.AgreementScore, 1e-9)
}

func TestAggregateWeightsDecideSplit(t *testing.T) {
	responses := []providers.SignalResponse{
		response("anthropic", providers.DecisionBuy, 0.8),
		response("openai", providers.DecisionSell, 0.9),
	}
	weights := map[string]float64{"anthropic": 1.5, "openai": 1.0}

	result, err := Aggregate(responses, weights, Options{MinProviders: 2})
	require.NoError(t, err)

	// 1.5*0.8 = 1.2 beats 1.0*0.9 = 0.9 despite the lower confidence.
	assert.Equal(t, providers.DecisionBuy, result.Decision)
	assert.InDelta(t, 1.2, result.Metadata.WeightedVotes[providers.DecisionBuy], 1e-9)
	assert.InDelta(t, 0.9, result.Metadata.WeightedVotes[providers.DecisionSell], 1e-9)
}

func TestAggregateTieBreakRawCount(t *testing.T) {
	// BUY and SELL both carry 1.0 weighted, but SELL has two voters.
	responses := []providers.SignalResponse{
		response("anthropic", providers.DecisionBuy, 1.0),
		response("openai", providers.DecisionSell, 0.5),
		response("gemini", providers.DecisionSell, 0.5),
	}

	result, err := Aggregate(responses, nil, Options{MinProviders: 2})
	require.NoError(t, err)
	assert.Equal(t, providers.DecisionSell, result.Decision)
}

func TestAggregateTieBreakMeanConfidence(t *testing.T) {
	// Equal weighted votes and equal voter counts; BUY's voter is more
	// confident, because SELL's weight makes up for its lower confidence.
	responses := []providers.SignalResponse{
		response("anthropic", providers.DecisionBuy, 0.8),
		response("openai", providers.DecisionSell, 0.4),
	}
	weights := map[string]float64{"anthropic": 1.0, "openai": 2.0}

	result, err := Aggregate(responses, weights, Options{MinProviders: 2})
	require.NoError(t, err)
	assert.Equal(t, providers.DecisionBuy, result.Decision)
}

func TestAggregateTieBreakConservativeOrder(t *testing.T) {
	cases := []struct {
		name string
		a, b providers.Decision
		want providers.Decision
	}{
		{"hold beats buy", providers.DecisionBuy, providers.DecisionHold, providers.DecisionHold},
		{"hold beats sell", providers.DecisionSell, providers.DecisionHold, providers.DecisionHold},
		{"buy beats sell", providers.DecisionBuy, providers.DecisionSell, providers.DecisionBuy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			responses := []providers.SignalResponse{
				response("anthropic", tc.a, 0.7),
				response("openai", tc.b, 0.7),
			}
			result, err := Aggregate(responses, nil, Options{MinProviders: 2})
			require.NoError(t, err)
			assert.Equal(t, tc.want, result.Decision)
		})
	}
}

func TestAggregateDeterministic(t *testing.T) {
	responses := []providers.SignalResponse{
		response("anthropic", providers.DecisionBuy, 0.7),
		response("openai", providers.DecisionSell, 0.7),
	}
	first, err := Aggregate(responses, nil, Options{MinProviders: 2})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Aggregate(responses, nil, Options{MinProviders: 2})
		require.NoError(t, err)
		assert.Equal(t, first.Decision, again.Decision)
		assert.Equal(t, first.Confidence, again.Confidence)
	}
}

func TestAggregateMinConfidenceFilter(t *testing.T) {
	responses := []providers.SignalResponse{
		response("anthropic", providers.DecisionBuy, 0.9),
		response("openai", providers.DecisionSell, 0.2),
		response("gemini", providers.DecisionBuy, 0.8),
	}

	result, err := Aggregate(responses, nil, Options{MinProviders: 2, MinConfidence: 0.5})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Metadata.ParticipatingProviders)
	assert.Equal(t, providers.DecisionBuy, result.Decision)
	assert.Zero(t, result.Metadata.VoteBreakdown[providers.DecisionSell])
	// Filtered responses still count toward the cost and token totals.
	assert.Len(t, result.ProviderResponses, 2)
}

func TestAggregateInsufficientAfterFilter(t *testing.T) {
	responses := []providers.SignalResponse{
		response("anthropic", providers.DecisionBuy, 0.9),
		response("openai", providers.DecisionSell, 0.2),
	}

	_, err := Aggregate(responses, nil, Options{MinProviders: 2, MinConfidence: 0.5})
	require.ErrorIs(t, err, ErrInsufficient)
}

func TestAggregateEmptyVotes(t *testing.T) {
	responses := []providers.SignalResponse{
		response("anthropic", providers.DecisionBuy, 0.9),
		response("openai", providers.DecisionSell, 0.8),
	}
	weights := map[string]float64{"anthropic": 0, "openai": 0}

	_, err := Aggregate(responses, weights, Options{MinProviders: 2})
	require.ErrorIs(t, err, ErrEmptyVotes)
}

func TestAggregateZeroConfidenceEverywhere(t *testing.T) {
	responses := []providers.SignalResponse{
		response("anthropic", providers.DecisionBuy, 0),
		response("openai", providers.DecisionSell, 0),
	}

	_, err := Aggregate(responses, nil, Options{MinProviders: 2})
	require.ErrorIs(t, err, ErrEmptyVotes)
}

func TestAggregateWeightDefaultsAndFloors(t *testing.T) {
	responses := []providers.SignalResponse{
		response("anthropic", providers.DecisionBuy, 0.6),
		response("openai", providers.DecisionSell, 0.9),
	}
	// openai missing from the map defaults to 1.0; a negative weight is
	// floored at zero.
	weights := map[string]float64{"anthropic": -3}

	result, err := Aggregate(responses, weights, Options{MinProviders: 2})
	require.NoError(t, err)
	assert.Equal(t, providers.DecisionSell, result.Decision)
	assert.Zero(t, result.Metadata.WeightedVotes[providers.DecisionBuy])
	assert.InDelta(t, 0.9, result.Metadata.WeightedVotes[providers.DecisionSell], 1e-9)
}

func TestAggregateConservativeRisk(t *testing.T) {
	a := response("anthropic", providers.DecisionBuy, 0.8)
	a.RiskLevel = providers.RiskLow
	b := response("openai", providers.DecisionBuy, 0.7)
	b.RiskLevel = providers.RiskHigh
	c := response("gemini", providers.DecisionSell, 0.9)
	c.RiskLevel = providers.RiskLevel("extreme")

	result, err := Aggregate([]providers.SignalResponse{a, b, c}, nil, Options{MinProviders: 2})
	require.NoError(t, err)

	// The losing SELL voter's out-of-band risk must not leak into a BUY
	// consensus.
	assert.Equal(t, providers.DecisionBuy, result.Decision)
	assert.Equal(t, providers.RiskHigh, result.RiskLevel)
}

func TestAggregateRiskFallsBackToAllParticipants(t *testing.T) {
	a := response("anthropic", providers.DecisionBuy, 0.8)
	a.RiskLevel = ""
	b := response("openai", providers.DecisionBuy, 0.7)
	b.RiskLevel = ""
	c := response("gemini", providers.DecisionSell, 0.5)
	c.RiskLevel = providers.RiskHigh

	result, err := Aggregate([]providers.SignalResponse{a, b, c}, nil, Options{MinProviders: 2})
	require.NoError(t, err)
	assert.Equal(t, providers.RiskHigh, result.RiskLevel)
}

func TestAggregateMedianSuggestions(t *testing.T) {
	ptr := func(v float64) *float64 { return &v }

	a := response("anthropic", providers.DecisionBuy, 0.8)
	a.SuggestedStopLoss = ptr(48000)
	a.SuggestedTakeProfit = ptr(52000)
	b := response("openai", providers.DecisionBuy, 0.7)
	b.SuggestedStopLoss = ptr(49000)
	b.SuggestedTakeProfit = ptr(54000)
	c := response("gemini", providers.DecisionBuy, 0.9)
	c.SuggestedStopLoss = ptr(48500)

	result, err := Aggregate([]providers.SignalResponse{a, b, c}, nil, Options{MinProviders: 2})
	require.NoError(t, err)

	// Odd count takes the middle value, even count the midpoint.
	require.NotNil(t, result.SuggestedStopLoss)
	assert.InDelta(t, 48500, *result.SuggestedStopLoss, 1e-9)
	require.NotNil(t, result.SuggestedTakeProfit)
	assert.InDelta(t, 53000, *result.SuggestedTakeProfit, 1e-9)
}

func TestAggregateNoSuggestionsStaysNil(t *testing.T) {
	responses := []providers.SignalResponse{
		response("anthropic", providers.DecisionHold, 0.8),
		response("openai", providers.DecisionHold, 0.7),
	}
	result, err := Aggregate(responses, nil, Options{MinProviders: 2})
	require.NoError(t, err)
	assert.Nil(t, result.SuggestedStopLoss)
	assert.Nil(t, result.SuggestedTakeProfit)
}

func TestAggregateReasoningFromMostConfidentWinner(t *testing.T) {
	responses := []providers.SignalResponse{
		response("anthropic", providers.DecisionBuy, 0.7),
		response("openai", providers.DecisionBuy, 0.9),
		response("gemini", providers.DecisionHold, 0.95),
	}

	result, err := Aggregate(responses, nil, Options{MinProviders: 2})
	require.NoError(t, err)
	assert.Equal(t, "Consensus (2/3 providers agree): openai reasoning", result.Reasoning)
}

func TestAggregateMetadataTotalsIncludeLosers(t *testing.T) {
	a := response("anthropic", providers.DecisionBuy, 0.8)
	a.LatencyMs, a.CostUSD, a.TokensIn, a.TokensOut = 120, 0.01, 400, 100
	b := response("openai", providers.DecisionSell, 0.2)
	b.LatencyMs, b.CostUSD, b.TokensIn, b.TokensOut = 300, 0.02, 500, 50
	c := response("gemini", providers.DecisionBuy, 0.9)
	c.LatencyMs, c.CostUSD, c.TokensIn, c.TokensOut = 80, 0.005, 350, 90

	result, err := Aggregate([]providers.SignalResponse{a, b, c}, nil, Options{
		MinProviders:   2,
		MinConfidence:  0.5,
		TotalProviders: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Metadata.TotalProviders)
	assert.Equal(t, 2, result.Metadata.ParticipatingProviders)
	assert.InDelta(t, 500, result.Metadata.TotalLatencyMs, 1e-9)
	assert.InDelta(t, 0.035, result.Metadata.TotalCostUSD, 1e-9)
	assert.Equal(t, 1490, result.Metadata.TotalTokens)
}

func TestAggregateDoesNotMutateInputs(t *testing.T) {
	long := make([]byte, defaultReasoningMaxLen+100)
	for i := range long {
		long[i] = 'x'
	}
	a := response("anthropic", providers.DecisionBuy, 0.8)
	a.Reasoning = string(long)
	b := response("openai", providers.DecisionBuy, 0.7)
	in := []providers.SignalResponse{a, b}

	result, err := Aggregate(in, nil, Options{MinProviders: 2})
	require.NoError(t, err)

	assert.Len(t, in[0].Reasoning, defaultReasoningMaxLen+100)
	assert.Len(t, result.ProviderResponses[0].Reasoning, defaultReasoningMaxLen+3)
}

func TestAggregateConfiguredReasoningLimit(t *testing.T) {
	a := response("anthropic", providers.DecisionBuy, 0.9)
	a.Reasoning = strings.Repeat("x", 100)
	b := response("openai", providers.DecisionBuy, 0.7)

	result, err := Aggregate([]providers.SignalResponse{a, b}, nil, Options{
		MinProviders:    2,
		ReasoningMaxLen: 40,
	})
	require.NoError(t, err)

	assert.Len(t, result.ProviderResponses[0].Reasoning, 43)
	assert.Equal(t, "Consensus (2/2 providers agree): "+strings.Repeat("x", 40)+"...", result.Reasoning)
}

func TestTruncateReasoningRuneSafe(t *testing.T) {
	// "né" is three bytes per repeat; a limit of 35 lands on the second
	// byte of an 'é', so a naive byte slice would split the rune.
	s := strings.Repeat("né", 40)
	out := truncateReasoning(s, 35)

	assert.True(t, utf8.ValidString(out))
	assert.LessOrEqual(t, len(out), 35+3)
	assert.Equal(t, strings.Repeat("né", 11)+"n...", out)
}
