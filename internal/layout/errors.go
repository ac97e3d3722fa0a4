package layout

import "errors"

// Error kinds returned by the indexer, resolver and artifact providers.
// Callers match them with errors.Is and print the wrapped message as-is.
var (
	ErrMalformedInput         = errors.New("malformed input")
	ErrNotFound               = errors.New("not found")
	ErrAmbiguousName          = errors.New("ambiguous name")
	ErrUnresolvedReference    = errors.New("unresolved reference")
	ErrRecursionLimitExceeded = errors.New("recursion limit exceeded")
	ErrNotAvailable           = errors.New("not available")
)
