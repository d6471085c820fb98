package markov

import "errors"

// ModelNotBuiltMessage is the user-facing text for ErrModelNotBuilt.
const ModelNotBuiltMessage = "Error: Markov chain not built yet."

var (
	// ErrInputTooShort is returned by the Ingest functions when the corpus
	// has no more words than the chain order. The chain is left unchanged.
	ErrInputTooShort = errors.New("text too short to build chain with current order")
	// ErrSourceUnavailable wraps read, open and decode failures of file or
	// reader backed ingestion. The chain is left unchanged.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrModelNotBuilt is returned by generation on a chain with no states.
	ErrModelNotBuilt = errors.New("markov chain is empty")
	// ErrSeedNotFound is reported (logged, never returned) when the seed state
	// is absent and generation falls back to a random state.
	ErrSeedNotFound = errors.New("seed state not found in chain")
	// ErrInvalidOrder is returned by New and Import for an order below 1.
	ErrInvalidOrder = errors.New("order must be a positive integer")
	// ErrInvalidLength is returned by generation for a length below 1.
	ErrInvalidLength = errors.New("length must be a positive integer")
	// ErrOrderMismatch is returned when merging chains of different orders.
	ErrOrderMismatch = errors.New("chain orders do not match")
)
