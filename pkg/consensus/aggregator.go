package consensus

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/thalas777/thalas-trader-sub000/pkg/providers"
)

// tieEpsilon is the window within which two weighted votes count as tied.
const tieEpsilon = 1e-9

// tieBreakOrder is the conservative preference when everything else ties.
var tieBreakOrder = []providers.Decision{
	providers.DecisionHold,
	providers.DecisionBuy,
	providers.DecisionSell,
}

// Aggregate reconciles provider responses into a single consensus result.
//
// Responses below opts.MinConfidence are dropped; if fewer than
// opts.MinProviders survive, ErrInsufficient is returned. Each surviving
// response votes weight*confidence for its decision, where weight comes from
// the weights map (negative values treated as zero) or defaults to 1.0. The
// decision with the largest weighted vote wins; ties within 1e-9 are broken
// by raw vote count, then mean voter confidence, then HOLD over BUY over
// SELL. ErrEmptyVotes is returned when all weighted votes are zero.
//
// Aggregate never mutates its inputs and reads the clock only for the result
// timestamp.
func Aggregate(responses []providers.SignalResponse, weights map[string]float64, opts Options) (*Result, error) {
	if opts.MinProviders < 1 {
		opts.MinProviders = 1
	}

	// Step 1: confidence filtering.
	var participants []providers.SignalResponse
	for _, r := range responses {
		if r.Confidence >= opts.MinConfidence {
			participants = append(participants, r)
		}
	}
	if len(participants) < opts.MinProviders {
		return nil, fmt.Errorf("%w: %d of %d required after confidence filter",
			ErrInsufficient, len(participants), opts.MinProviders)
	}

	// Steps 2-3: weight resolution and weighted voting.
	weightedVotes := map[providers.Decision]float64{
		providers.DecisionBuy:  0,
		providers.DecisionSell: 0,
		providers.DecisionHold: 0,
	}
	voteBreakdown := map[providers.Decision]int{
		providers.DecisionBuy:  0,
		providers.DecisionSell: 0,
		providers.DecisionHold: 0,
	}
	resolved := make([]float64, len(participants))
	for i, r := range participants {
		w := resolveWeight(weights, r.ProviderName)
		resolved[i] = w
		weightedVotes[r.Decision] += w * r.Confidence
		voteBreakdown[r.Decision]++
	}

	var voteSum float64
	for _, v := range weightedVotes {
		voteSum += v
	}
	if voteSum <= 0 {
		return nil, ErrEmptyVotes
	}

	// Step 4: decision selection with deterministic tie-break.
	winner := selectWinner(participants, weightedVotes, voteBreakdown)

	// Steps 5-6: consensus confidence and agreement.
	confidence := weightedVotes[winner] / voteSum
	confidence = math.Min(1, math.Max(0, confidence))
	agreement := float64(voteBreakdown[winner]) / float64(len(participants))

	// Steps 7-9: risk, price suggestions and reasoning from the winning
	// voters.
	var winners []int
	for i, r := range participants {
		if r.Decision == winner {
			winners = append(winners, i)
		}
	}
	risk := aggregateRisk(participants, winners)
	stopLoss := medianSuggestion(participants, winners, func(r *providers.SignalResponse) *float64 {
		return r.SuggestedStopLoss
	})
	takeProfit := medianSuggestion(participants, winners, func(r *providers.SignalResponse) *float64 {
		return r.SuggestedTakeProfit
	})
	reasoning := synthesizeReasoning(participants, winners, opts.ReasoningMaxLen)

	// Step 10: metadata totals cover every response handed in, losers and
	// filtered responses included.
	var totalLatency, totalCost float64
	var totalTokens int
	for _, r := range responses {
		totalLatency += r.LatencyMs
		totalCost += r.CostUSD
		totalTokens += r.TokensIn + r.TokensOut
	}

	totalProviders := opts.TotalProviders
	if totalProviders == 0 {
		totalProviders = len(responses)
	}

	transport := make([]providers.SignalResponse, len(participants))
	for i, r := range participants {
		r.Reasoning = truncateReasoning(r.Reasoning, opts.ReasoningMaxLen)
		transport[i] = r
	}

	return &Result{
		Decision:            winner,
		Confidence:          confidence,
		Reasoning:           reasoning,
		RiskLevel:           risk,
		SuggestedStopLoss:   stopLoss,
		SuggestedTakeProfit: takeProfit,
		Metadata: Metadata{
			TotalProviders:         totalProviders,
			ParticipatingProviders: len(participants),
			AgreementScore:         agreement,
			WeightedConfidence:     weightedMeanConfidence(participants, resolved, winners),
			VoteBreakdown:          voteBreakdown,
			WeightedVotes:          weightedVotes,
			TotalLatencyMs:         totalLatency,
			TotalCostUSD:           totalCost,
			TotalTokens:            totalTokens,
			Timestamp:              time.Now().UTC(),
		},
		ProviderResponses: transport,
	}, nil
}

// resolveWeight returns the per-request weight for a provider, defaulting to
// 1.0 and flooring negatives at zero.
func resolveWeight(weights map[string]float64, name string) float64 {
	w, ok := weights[name]
	if !ok {
		return 1.0
	}
	if w < 0 || math.IsNaN(w) {
		return 0
	}
	return w
}

// selectWinner picks the decision with the largest weighted vote. Votes
// within tieEpsilon of the maximum go through the tie-break chain: raw vote
// count, then mean voter confidence, then the conservative order.
func selectWinner(participants []providers.SignalResponse, weightedVotes map[providers.Decision]float64, voteBreakdown map[providers.Decision]int) providers.Decision {
	var max float64
	for _, v := range weightedVotes {
		if v > max {
			max = v
		}
	}

	var contenders []providers.Decision
	for _, d := range tieBreakOrder {
		if max-weightedVotes[d] <= tieEpsilon {
			contenders = append(contenders, d)
		}
	}
	if len(contenders) == 1 {
		return contenders[0]
	}

	// Tie-break chain. contenders is already in conservative order, so a
	// stable sort on the earlier criteria leaves HOLD > BUY > SELL as the
	// final word.
	sort.SliceStable(contenders, func(i, j int) bool {
		ci, cj := voteBreakdown[contenders[i]], voteBreakdown[contenders[j]]
		if ci != cj {
			return ci > cj
		}
		return meanConfidence(participants, contenders[i]) > meanConfidence(participants, contenders[j])
	})
	return contenders[0]
}

// meanConfidence averages the confidence of voters for one decision.
func meanConfidence(participants []providers.SignalResponse, d providers.Decision) float64 {
	var sum float64
	var n int
	for _, r := range participants {
		if r.Decision == d {
			sum += r.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// weightedMeanConfidence is the weight-weighted mean confidence of the
// winning voters.
func weightedMeanConfidence(participants []providers.SignalResponse, weights []float64, winners []int) float64 {
	var sum, weightSum float64
	for _, i := range winners {
		sum += weights[i] * participants[i].Confidence
		weightSum += weights[i]
	}
	if weightSum == 0 {
		return 0
	}
	return sum / weightSum
}

// aggregateRisk takes the maximum risk among winning voters, falling back to
// the maximum across all participants when no winner reported one.
func aggregateRisk(participants []providers.SignalResponse, winners []int) providers.RiskLevel {
	maxOver := func(indices []int) (providers.RiskLevel, bool) {
		var best providers.RiskLevel
		found := false
		for _, i := range indices {
			r := participants[i].RiskLevel
			if r == "" {
				continue
			}
			if !found || r.Rank() > best.Rank() {
				best = r
				found = true
			}
		}
		return best, found
	}

	if risk, ok := maxOver(winners); ok {
		return risk
	}
	all := make([]int, len(participants))
	for i := range participants {
		all[i] = i
	}
	if risk, ok := maxOver(all); ok {
		return risk
	}
	return providers.RiskMedium
}

// medianSuggestion computes the median of the non-nil price suggestions among
// winning voters. With no values it returns nil and the field stays absent.
func medianSuggestion(participants []providers.SignalResponse, winners []int, get func(*providers.SignalResponse) *float64) *float64 {
	var values []float64
	for _, i := range winners {
		if v := get(&participants[i]); v != nil {
			values = append(values, *v)
		}
	}
	if len(values) == 0 {
		return nil
	}
	sort.Float64s(values)
	mid := len(values) / 2
	var median float64
	if len(values)%2 == 1 {
		median = values[mid]
	} else {
		median = (values[mid-1] + values[mid]) / 2
	}
	return &median
}

// synthesizeReasoning builds the deterministic consensus paragraph from the
// highest-confidence winning voter.
func synthesizeReasoning(participants []providers.SignalResponse, winners []int, maxLen int) string {
	best := winners[0]
	for _, i := range winners[1:] {
		if participants[i].Confidence > participants[best].Confidence {
			best = i
		}
	}
	return fmt.Sprintf("Consensus (%d/%d providers agree): %s",
		len(winners), len(participants),
		truncateReasoning(participants[best].Reasoning, maxLen))
}
