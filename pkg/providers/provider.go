package providers

import "context"

// Provider is the uniform contract every LLM provider adapter satisfies.
// Adapters are internally thread-safe; a single instance serves concurrent
// consensus requests.
//
// All blocking methods accept a context.Context carrying the caller's
// deadline. Implementations must not block past the deadline except for a
// final best-effort cleanup, and must return promptly on cancellation.
type Provider interface {
	// GenerateSignal queries the provider for a trading signal over the given
	// market snapshot. On success it returns a normalized SignalResponse; on
	// failure it returns a classified *Error and never panics.
	GenerateSignal(ctx context.Context, req *SignalRequest) (*SignalResponse, error)

	// HealthCheck sends a minimal one-token probe and reports reachability
	// plus authorization. A nil return means the provider is usable.
	HealthCheck(ctx context.Context) error

	// EstimateCost is a pure function over the adapter's pricing table,
	// returning the USD cost for the given token counts.
	EstimateCost(tokensIn, tokensOut int) float64

	// Name returns the unique lowercase provider identifier.
	Name() string

	// Weight returns the provider's default vote weight.
	Weight() float64

	// Enabled reports whether the provider participates in consensus.
	Enabled() bool

	// SetEnabled toggles participation. Idempotent.
	SetEnabled(enabled bool)

	// Status returns a snapshot of the provider's runtime state and counters.
	Status() Status

	// Close releases adapter-held resources (HTTP connection pools).
	// The provider must not be used after Close.
	Close() error
}
