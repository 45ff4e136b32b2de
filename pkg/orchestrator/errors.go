package orchestrator

import (
	"fmt"
	"strings"
)

// NoProvidersError means fewer providers were available at fan-out time than
// the consensus minimum requires, because the registry is empty or providers
// are disabled or down. No provider is called, so nothing is billed.
type NoProvidersError struct {
	Registered int
	Available  int
	Required   int
}

func (e *NoProvidersError) Error() string {
	if e.Registered == 0 {
		return "no providers are registered"
	}
	return fmt.Sprintf("%d of %d registered providers are available, %d required",
		e.Available, e.Registered, e.Required)
}

// InsufficientError means fewer providers succeeded than the consensus
// minimum requires. Errors carries the per-provider causes.
type InsufficientError struct {
	Succeeded int
	Required  int
	Errors    map[string]error
}

func (e *InsufficientError) Error() string {
	var causes []string
	for name, err := range e.Errors {
		causes = append(causes, fmt.Sprintf("%s: %v", name, err))
	}
	return fmt.Sprintf("insufficient successful providers: %d of %d required (%s)",
		e.Succeeded, e.Required, strings.Join(causes, "; "))
}

// AggregateError wraps a failure from the aggregation step.
type AggregateError struct {
	Cause error
}

func (e *AggregateError) Error() string {
	return fmt.Sprintf("consensus aggregation failed: %v", e.Cause)
}

func (e *AggregateError) Unwrap() error { return e.Cause }
