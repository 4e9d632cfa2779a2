package service

import "errors"

// Service error definitions.
var (
	// ErrUnauthorized means the upstream rejected the session's bearer token
	// on the identity read. It is the one upstream failure the aggregator
	// propagates instead of absorbing into a source state, so the HTTP layer
	// can answer 401 rather than serve an empty dashboard.
	ErrUnauthorized = errors.New("unauthorized session")

	// ErrNotStarted means an operation was invoked before Start.
	ErrNotStarted = errors.New("service not started")

	// errUnexpectedCacheEntry means a cache key resolved to a value of the
	// wrong type. It indicates a programming error in key construction.
	errUnexpectedCacheEntry = errors.New("unexpected cache entry type")
)
