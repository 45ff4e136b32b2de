// Package metrics exposes Prometheus instrumentation for the consensus
// pipeline and the provider fleet.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Options name the metric family and tune its buckets.
type Options struct {
	// Namespace is the metric namespace prefix.
	Namespace string

	// Subsystem is the metric subsystem prefix.
	Subsystem string

	// LatencyBuckets are the histogram buckets for request latencies in
	// seconds.
	LatencyBuckets []float64
}

// Collector bundles the metric subsystems over one Prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	// Provider holds the per-provider metrics.
	Provider *ProviderMetrics

	// Consensus holds the pipeline metrics.
	Consensus *ConsensusMetrics
}

// NewCollector creates a collector over the given registry. A nil registry
// gets a fresh one. Defaults: namespace "thalas", subsystem "trader",
// buckets tuned for LLM latencies (100ms to 60s).
func NewCollector(opts Options, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if opts.Namespace == "" {
		opts.Namespace = "thalas"
	}
	if opts.Subsystem == "" {
		opts.Subsystem = "trader"
	}
	if len(opts.LatencyBuckets) == 0 {
		opts.LatencyBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0}
	}

	return &Collector{
		registry:  registry,
		Provider:  NewProviderMetrics(opts, registry),
		Consensus: NewConsensusMetrics(opts, registry),
	}
}

// Registry returns the underlying Prometheus registry, for mounting the
// /metrics handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
