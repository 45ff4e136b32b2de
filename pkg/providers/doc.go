// Package providers implements the uniform adapter layer over LLM vendors.
//
// # Overview
//
// Every supported vendor (Anthropic, OpenAI, Gemini, Grok) is wrapped in an
// adapter satisfying the Provider interface: generate a trading signal from
// a market snapshot, answer health probes, and estimate call cost. Adapters
// differ only in wire protocol, authentication and pricing; everything else
// is shared here:
//
//   - HTTPClient: pooled transport, retry with exponential backoff and
//     jitter, deadline discipline, and a sony/gobreaker circuit breaker per
//     adapter
//   - StatusTracker: rolling error-rate and latency windows driving the
//     ACTIVE / DEGRADED / UNAVAILABLE / CIRCUIT_OPEN state machine
//   - ExtractSignal: tolerant JSON extraction from free-form model output
//     (raw JSON, fenced JSON, JSON embedded in prose) plus field
//     normalization
//   - PricingTable: per-model token pricing with prefix fallback and
//     hot-reloadable overrides
//
// Normalization is deliberately centralized: if the extraction rules
// diverged between adapters, identical model replies would produce different
// votes and consensus would stop being reproducible.
//
// # Error handling
//
// Adapters never panic and never surface transport-specific errors. Every
// failure is an *Error with a closed Kind taxonomy (timeout, rate_limited,
// authentication, validation, parse, transport, generic) and a Retryable
// derivation used by the retry loop. Classify with errors.As:
//
//	resp, err := provider.GenerateSignal(ctx, req)
//	var perr *providers.Error
//	if errors.As(err, &perr) && perr.Kind == providers.ErrorRateLimited {
//	    // back off
//	}
//
// # Thread safety
//
// All adapters and the shared machinery are safe for concurrent use; the
// orchestrator fans a single request out to every adapter in parallel.
package providers
