package types

import "errors"

var (
	// ErrInvalidRequest is returned when a request body cannot be bound
	ErrInvalidRequest = errors.New("invalid request body")

	// ErrEmptyMessage is returned at the API boundary; empty input never
	// reaches the classifier
	ErrEmptyMessage = errors.New("message is required")

	// ErrMessageTooLong is returned for messages over the accepted length
	ErrMessageTooLong = errors.New("message too long")

	// ErrNotFound indicates a missing record in a store
	ErrNotFound = errors.New("record not found")

	// ErrCacheMiss indicates a key absent from the cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrStoreUnavailable indicates a context or history store failure.
	// The pipeline logs it and continues with in-memory state.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrGatewayUnavailable indicates the CRM cannot be reached. The
	// pipeline treats the summary as absent.
	ErrGatewayUnavailable = errors.New("crm gateway unavailable")
)
