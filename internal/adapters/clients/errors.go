// Package clients fetches remote quote datasets over HTTP.
package clients

import "errors"

// Transport-level failures. DatasetFetcher translates them into domain errors.
var (
	// ErrCircuitOpen is returned without calling the source while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last failure once every attempt is used.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
