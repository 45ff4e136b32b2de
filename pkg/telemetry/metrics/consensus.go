package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ConsensusMetrics tracks the orchestrator's consensus pipeline.
//
// Metrics:
//   - thalas_trader_consensus_requests_total: consensus requests by outcome
//   - thalas_trader_consensus_decisions_total: consensus decisions by value
//   - thalas_trader_consensus_duration_seconds: end-to-end consensus latency
//   - thalas_trader_consensus_agreement_score: agreement score distribution
//   - thalas_trader_consensus_participants: participating provider counts
//   - thalas_trader_consensus_cost_usd_total: cumulative LLM spend
//   - thalas_trader_consensus_tokens_total: cumulative token usage
type ConsensusMetrics struct {
	requests     *prometheus.CounterVec
	decisions    *prometheus.CounterVec
	duration     prometheus.Histogram
	agreement    prometheus.Histogram
	participants prometheus.Histogram
	cost         prometheus.Counter
	tokens       prometheus.Counter
}

// NewConsensusMetrics creates and registers the consensus metrics.
func NewConsensusMetrics(opts Options, registry *prometheus.Registry) *ConsensusMetrics {
	cm := &ConsensusMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: opts.Namespace,
				Subsystem: opts.Subsystem,
				Name:      "consensus_requests_total",
				Help:      "Total consensus requests by outcome (success, insufficient, no_providers, error)",
			},
			[]string{"outcome"},
		),

		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: opts.Namespace,
				Subsystem: opts.Subsystem,
				Name:      "consensus_decisions_total",
				Help:      "Total consensus decisions by value (BUY, SELL, HOLD)",
			},
			[]string{"decision"},
		),

		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: opts.Namespace,
				Subsystem: opts.Subsystem,
				Name:      "consensus_duration_seconds",
				Help:      "End-to-end consensus latency in seconds",
				Buckets:   opts.LatencyBuckets,
			},
		),

		agreement: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: opts.Namespace,
				Subsystem: opts.Subsystem,
				Name:      "consensus_agreement_score",
				Help:      "Distribution of consensus agreement scores",
				Buckets:   []float64{0.25, 0.5, 0.75, 0.9, 1.0},
			},
		),

		participants: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: opts.Namespace,
				Subsystem: opts.Subsystem,
				Name:      "consensus_participants",
				Help:      "Number of providers participating per consensus",
				Buckets:   []float64{1, 2, 3, 4, 6, 8},
			},
		),

		cost: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: opts.Namespace,
				Subsystem: opts.Subsystem,
				Name:      "consensus_cost_usd_total",
				Help:      "Cumulative LLM spend in US dollars",
			},
		),

		tokens: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: opts.Namespace,
				Subsystem: opts.Subsystem,
				Name:      "consensus_tokens_total",
				Help:      "Cumulative token usage across all providers",
			},
		),
	}

	registry.MustRegister(
		cm.requests,
		cm.decisions,
		cm.duration,
		cm.agreement,
		cm.participants,
		cm.cost,
		cm.tokens,
	)
	return cm
}

// RecordOutcome counts one consensus request by its outcome.
func (cm *ConsensusMetrics) RecordOutcome(outcome string, duration time.Duration) {
	cm.requests.WithLabelValues(outcome).Inc()
	cm.duration.Observe(duration.Seconds())
}

// RecordConsensus records the shape of one successful consensus.
func (cm *ConsensusMetrics) RecordConsensus(decision string, agreement float64, participants int, costUSD float64, tokens int) {
	cm.decisions.WithLabelValues(decision).Inc()
	cm.agreement.Observe(agreement)
	cm.participants.Observe(float64(participants))
	cm.cost.Add(costUSD)
	cm.tokens.Add(float64(tokens))
}
