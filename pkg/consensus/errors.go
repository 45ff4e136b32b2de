package consensus

import "errors"

// Aggregation failure modes. The orchestrator re-wraps these; the HTTP layer
// maps both to 503.
var (
	// ErrInsufficient means fewer responses survived filtering than
	// MinProviders requires.
	ErrInsufficient = errors.New("insufficient provider responses for consensus")

	// ErrEmptyVotes means every weighted vote summed to zero, typically
	// because all weights were zero.
	ErrEmptyVotes = errors.New("all weighted votes are zero")
)
