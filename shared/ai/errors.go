package ai

import "errors"

// Failure taxonomy for the analysis pipeline. Callers classify with
// errors.Is; everything else wraps one of these.
var (
	// ErrInvalidInput means the video reference cannot be read or
	// dereferenced. Fatal: the run is aborted and never retried.
	ErrInvalidInput = errors.New("invalid video input")

	// ErrUpstreamUnavailable covers network errors, timeouts and rate
	// limits from the model. Transient: the invoking job runner may retry
	// the whole run with backoff.
	ErrUpstreamUnavailable = errors.New("upstream model unavailable")

	// ErrMalformedExtraction means the extraction response failed to parse.
	// The stage still returns a well-typed empty record alongside it.
	ErrMalformedExtraction = errors.New("malformed extraction response")

	// ErrMalformedFormatting means a JSON-contracted module returned
	// unparseable output. Scoped to that one module.
	ErrMalformedFormatting = errors.New("malformed formatting response")
)
