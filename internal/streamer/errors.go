package streamer

import "errors"

var (
	// ErrNotFound: the message is absent, empty, or carries no
	// streamable media.
	ErrNotFound = errors.New("file not found")
	// ErrUpstreamTimeout: a chunk request timed out after all retries.
	ErrUpstreamTimeout = errors.New("upstream request timed out")
	// ErrSessionFailure: the cross-DC media session could not be
	// established.
	ErrSessionFailure = errors.New("failed to establish media session")
)
