package align

import "errors"

var (
	// ErrReferenceUnavailable aborts a run: there is nothing to align against.
	ErrReferenceUnavailable = errors.New("reference text unavailable")

	// ErrNoCandidates is returned by SelectBest when the reference yields no
	// window for a line. The orchestrator recovers from it per line.
	ErrNoCandidates = errors.New("no candidate windows")

	// ErrMalformedEncoding marks input that is not valid text in its
	// declared encoding.
	ErrMalformedEncoding = errors.New("malformed input encoding")
)
