// Package orchestrator fans a market snapshot out to every available
// provider in parallel, collects the partial results under a shared
// deadline and hands the survivors to the aggregator.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/thalas777/thalas-trader-sub000/pkg/consensus"
	"github.com/thalas777/thalas-trader-sub000/pkg/providers"
	"github.com/thalas777/thalas-trader-sub000/pkg/telemetry/metrics"
)

// ProviderSource is the registry view the orchestrator needs.
type ProviderSource interface {
	Available() []providers.Provider
	Len() int
}

// Request is one consensus request.
type Request struct {
	// MarketData maps indicator names to values.
	MarketData map[string]float64

	// Pair is the trading pair.
	Pair string

	// Timeframe is the candle timeframe.
	Timeframe string

	// CurrentPrice is the current pair price.
	CurrentPrice float64

	// Weights optionally overrides provider vote weights for this request.
	// Missing providers fall back to their configured default weight.
	Weights map[string]float64
}

// Options tune the orchestrator.
type Options struct {
	// MinProviders is the minimum number of successful responses required.
	MinProviders int

	// MinConfidence filters responses below this confidence out of the vote.
	MinConfidence float64

	// Timeout is the total budget for one consensus request.
	Timeout time.Duration

	// ReasoningMaxLen bounds per-provider reasoning in results. Zero means
	// the aggregator default.
	ReasoningMaxLen int
}

// Orchestrator coordinates the fan-out/aggregate pipeline.
type Orchestrator struct {
	source    ProviderSource
	opts      Options
	collector *metrics.Collector

	mu              sync.Mutex
	totalRequests   int64
	successRequests int64
	failedRequests  int64
	latencies       []float64 // rolling sample, milliseconds
}

// latencySampleSize bounds the rolling latency sample.
const latencySampleSize = 100

// New creates an orchestrator over the given provider source. The collector
// may be nil, which disables metrics.
func New(source ProviderSource, opts Options, collector *metrics.Collector) *Orchestrator {
	if opts.MinProviders < 1 {
		opts.MinProviders = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Orchestrator{source: source, opts: opts, collector: collector}
}

// Options returns the orchestrator's configured options.
func (o *Orchestrator) Options() Options { return o.opts }

// GenerateConsensus fans the request out to every available provider, waits
// for all of them under the shared deadline and aggregates the successes.
//
// A provider failure is recoverable: it is logged, counted and carried in
// the error map, but consensus proceeds as long as MinProviders succeed.
func (o *Orchestrator) GenerateConsensus(ctx context.Context, req *Request) (*consensus.Result, error) {
	start := time.Now()

	available := o.source.Available()
	if len(available) < o.opts.MinProviders {
		o.recordOutcome("no_providers", start, false)
		return nil, &NoProvidersError{
			Registered: o.source.Len(),
			Available:  len(available),
			Required:   o.opts.MinProviders,
		}
	}

	slog.Info("consensus fan-out",
		"pair", req.Pair,
		"timeframe", req.Timeframe,
		"providers", len(available),
		"timeout", o.opts.Timeout,
	)

	weights := o.resolveWeights(available, req.Weights)

	ctx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	successes, failures := o.fanOut(ctx, available, req)

	if len(successes) < o.opts.MinProviders {
		o.recordOutcome("insufficient", start, false)
		return nil, &InsufficientError{
			Succeeded: len(successes),
			Required:  o.opts.MinProviders,
			Errors:    failures,
		}
	}

	result, err := consensus.Aggregate(successes, weights, consensus.Options{
		MinProviders:    o.opts.MinProviders,
		MinConfidence:   o.opts.MinConfidence,
		TotalProviders:  len(available),
		ReasoningMaxLen: o.opts.ReasoningMaxLen,
	})
	if err != nil {
		o.recordOutcome("error", start, false)
		return nil, &AggregateError{Cause: err}
	}

	o.recordOutcome("success", start, true)
	if o.collector != nil {
		o.collector.Consensus.RecordConsensus(
			string(result.Decision),
			result.Metadata.AgreementScore,
			result.Metadata.ParticipatingProviders,
			result.Metadata.TotalCostUSD,
			result.Metadata.TotalTokens,
		)
	}

	slog.Info("consensus reached",
		"pair", req.Pair,
		"decision", string(result.Decision),
		"confidence", result.Confidence,
		"agreement", result.Metadata.AgreementScore,
		"participants", result.Metadata.ParticipatingProviders,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}

// fanOut invokes every provider concurrently and partitions the results.
func (o *Orchestrator) fanOut(ctx context.Context, available []providers.Provider, req *Request) ([]providers.SignalResponse, map[string]error) {
	signal := &providers.SignalRequest{
		MarketData:   req.MarketData,
		Pair:         req.Pair,
		Timeframe:    req.Timeframe,
		CurrentPrice: req.CurrentPrice,
	}

	type outcome struct {
		name string
		resp *providers.SignalResponse
		err  error
	}

	results := make(chan outcome, len(available))
	for _, p := range available {
		go func(p providers.Provider) {
			callStart := time.Now()
			resp, err := p.GenerateSignal(ctx, signal)
			o.recordProviderCall(p, err, time.Since(callStart))
			results <- outcome{name: p.Name(), resp: resp, err: err}
		}(p)
	}

	var successes []providers.SignalResponse
	failures := make(map[string]error)
	for range available {
		out := <-results
		if out.err != nil {
			slog.Warn("provider failed during fan-out",
				"provider", out.name,
				"error", out.err,
			)
			failures[out.name] = out.err
			continue
		}
		successes = append(successes, *out.resp)
	}

	return successes, failures
}

// resolveWeights merges per-request overrides over the providers' default
// weights. Negative or non-finite overrides fall back to the default.
func (o *Orchestrator) resolveWeights(available []providers.Provider, overrides map[string]float64) map[string]float64 {
	weights := make(map[string]float64, len(available))
	for _, p := range available {
		weights[p.Name()] = p.Weight()
	}
	for name, w := range overrides {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			continue
		}
		weights[name] = w
	}
	return weights
}

// recordProviderCall updates per-provider metrics for one fan-out call.
func (o *Orchestrator) recordProviderCall(p providers.Provider, err error, latency time.Duration) {
	if o.collector == nil {
		return
	}
	model := ""
	if c, ok := p.(interface{ Model() string }); ok {
		model = c.Model()
	}
	o.collector.Provider.RecordRequest(p.Name(), model)
	o.collector.Provider.RecordLatency(p.Name(), model, latency.Seconds())
	if err != nil {
		var perr *providers.Error
		kind := string(providers.ErrorGeneric)
		if errors.As(err, &perr) {
			kind = string(perr.Kind)
		}
		o.collector.Provider.RecordError(p.Name(), kind)
	}
}

// recordOutcome updates the orchestrator-level counters and metrics.
func (o *Orchestrator) recordOutcome(outcome string, start time.Time, success bool) {
	elapsed := time.Since(start)

	o.mu.Lock()
	o.totalRequests++
	if success {
		o.successRequests++
	} else {
		o.failedRequests++
	}
	o.latencies = append(o.latencies, float64(elapsed.Milliseconds()))
	if len(o.latencies) > latencySampleSize {
		o.latencies = o.latencies[1:]
	}
	o.mu.Unlock()

	if o.collector != nil {
		o.collector.Consensus.RecordOutcome(outcome, elapsed)
	}
}

// Stats is a snapshot of the orchestrator's counters.
type Stats struct {
	TotalRequests      int64   `json:"total_requests"`
	SuccessfulRequests int64   `json:"successful_requests"`
	FailedRequests     int64   `json:"failed_requests"`
	AvgLatencyMs       float64 `json:"avg_latency_ms"`
}

// Stats returns the current counter snapshot.
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()

	var avg float64
	if len(o.latencies) > 0 {
		var sum float64
		for _, l := range o.latencies {
			sum += l
		}
		avg = sum / float64(len(o.latencies))
	}

	return Stats{
		TotalRequests:      o.totalRequests,
		SuccessfulRequests: o.successRequests,
		FailedRequests:     o.failedRequests,
		AvgLatencyMs:       avg,
	}
}
