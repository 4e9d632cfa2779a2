package upstream

import "errors"

// Client error definitions.
var (
	// ErrUnauthorized indicates the upstream rejected the bearer token.
	ErrUnauthorized = errors.New("upstream rejected credentials")

	// ErrNotFound indicates the requested resource does not exist upstream.
	ErrNotFound = errors.New("upstream resource not found")

	// ErrUpstreamStatus indicates a non-success status outside the mapped set.
	ErrUpstreamStatus = errors.New("unexpected upstream status")

	// ErrDecodeResponse indicates the response body was not the expected JSON.
	ErrDecodeResponse = errors.New("failed to decode upstream response")
)
