package providers

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// State is the derived runtime state of a provider.
type State string

// Provider states.
const (
	// StateActive means the provider is serving requests normally.
	StateActive State = "ACTIVE"

	// StateDegraded means the provider is serving requests but its recent
	// error rate exceeds the degradation threshold, or its circuit breaker
	// is probing recovery.
	StateDegraded State = "DEGRADED"

	// StateUnavailable means the last health probe failed.
	StateUnavailable State = "UNAVAILABLE"

	// StateCircuitOpen means consecutive failures tripped the circuit
	// breaker; calls are refused until the cooldown elapses.
	StateCircuitOpen State = "CIRCUIT_OPEN"
)

// Status is a point-in-time snapshot of a provider's runtime state.
type Status struct {
	// State is the derived provider state.
	State State `json:"state"`

	// RequestsTotal is the number of signal requests issued.
	RequestsTotal int64 `json:"requests_total"`

	// ErrorsTotal is the number of failed signal requests.
	ErrorsTotal int64 `json:"errors_total"`

	// ErrorRate is the failure fraction over the rolling sample window.
	ErrorRate float64 `json:"error_rate"`

	// AvgLatencyMs is the mean latency over the rolling sample window.
	AvgLatencyMs float64 `json:"avg_latency_ms"`

	// ConsecutiveFailures counts sequential failures since the last success.
	ConsecutiveFailures int64 `json:"consecutive_failures"`

	// LastRequestAt is the time of the most recent request (zero if none).
	LastRequestAt time.Time `json:"last_request_at,omitzero"`
}

const (
	// statusWindow is the rolling sample window size for error-rate and
	// latency tracking.
	statusWindow = 50

	// degradedMinSamples is the minimum number of samples before the error
	// rate can mark a provider DEGRADED.
	degradedMinSamples = 10

	// degradedErrorRate is the error-rate threshold for DEGRADED.
	degradedErrorRate = 0.5

	// circuitFailureThreshold is the consecutive-failure count that opens
	// the circuit.
	circuitFailureThreshold = 5

	// circuitCooldown is how long an open circuit refuses calls before
	// probing recovery.
	circuitCooldown = 60 * time.Second
)

// StatusTracker owns a provider's runtime counters and its circuit breaker.
// All methods are safe for concurrent use.
type StatusTracker struct {
	name    string
	breaker *gobreaker.CircuitBreaker

	mu            sync.Mutex
	requests      int64
	errors        int64
	consecutive   int64
	lastRequestAt time.Time
	outcomes      []bool    // rolling window, true = failure
	latencies     []float64 // rolling window, milliseconds
	probeFailed   bool
}

// NewStatusTracker creates a tracker with the standard breaker policy:
// trip after 5 consecutive failures, refuse calls for 60 seconds, then allow
// a single probe request.
func NewStatusTracker(name string) *StatusTracker {
	t := &StatusTracker{name: name}
	t.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     circuitCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= circuitFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("provider circuit state changed",
				"provider", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return t
}

// Execute runs fn under the circuit breaker. When the circuit is open the
// call is refused immediately with a classified error.
func (t *StatusTracker) Execute(fn func() error) error {
	_, err := t.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &Error{
			Kind:     ErrorGeneric,
			Provider: t.name,
			Message:  "circuit breaker open, request refused",
			Cause:    err,
		}
	}
	return err
}

// Record updates the tracker's counters and rolling windows after a call.
func (t *StatusTracker) Record(success bool, latency time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.requests++
	t.lastRequestAt = time.Now()
	if success {
		t.consecutive = 0
	} else {
		t.errors++
		t.consecutive++
	}

	t.outcomes = append(t.outcomes, !success)
	if len(t.outcomes) > statusWindow {
		t.outcomes = t.outcomes[1:]
	}
	t.latencies = append(t.latencies, float64(latency.Milliseconds()))
	if len(t.latencies) > statusWindow {
		t.latencies = t.latencies[1:]
	}
}

// RecordProbe records the outcome of a health probe. A failed probe marks
// the provider UNAVAILABLE until the next successful one.
func (t *StatusTracker) RecordProbe(ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.probeFailed = !ok
}

// Status derives the current state snapshot. Breaker state wins over the
// rolling error rate: open means CIRCUIT_OPEN, half-open means DEGRADED.
func (t *StatusTracker) Status() Status {
	breakerState := t.breaker.State()

	t.mu.Lock()
	defer t.mu.Unlock()

	var failures int
	for _, failed := range t.outcomes {
		if failed {
			failures++
		}
	}
	var errorRate float64
	if len(t.outcomes) > 0 {
		errorRate = float64(failures) / float64(len(t.outcomes))
	}

	var avgLatency float64
	if len(t.latencies) > 0 {
		var sum float64
		for _, l := range t.latencies {
			sum += l
		}
		avgLatency = sum / float64(len(t.latencies))
	}

	state := StateActive
	switch {
	case breakerState == gobreaker.StateOpen:
		state = StateCircuitOpen
	case breakerState == gobreaker.StateHalfOpen:
		state = StateDegraded
	case t.probeFailed:
		state = StateUnavailable
	case len(t.outcomes) >= degradedMinSamples && errorRate > degradedErrorRate:
		state = StateDegraded
	}

	return Status{
		State:               state,
		RequestsTotal:       t.requests,
		ErrorsTotal:         t.errors,
		ErrorRate:           errorRate,
		AvgLatencyMs:        avgLatency,
		ConsecutiveFailures: t.consecutive,
		LastRequestAt:       t.lastRequestAt,
	}
}
