package domain

import "errors"

var (
	// ErrRecordNotFound signals a missing activity record.
	ErrRecordNotFound = errors.New("record not found")
	// ErrKnowledgeNotFound signals a missing knowledge entry.
	ErrKnowledgeNotFound = errors.New("knowledge entry not found")
	// ErrIndexUnavailable signals that a search index does not exist yet.
	// Keyword search degrades to a substring scan on this error.
	ErrIndexUnavailable = errors.New("search index unavailable")
	// ErrUpstreamUnavailable signals an embedding provider failure.
	// Vector search degrades to an empty contribution on this error.
	ErrUpstreamUnavailable = errors.New("embedding provider unavailable")
	// ErrPersistenceFailure signals a failed write to the record store.
	ErrPersistenceFailure = errors.New("persistence failure")
	// ErrInvalidInput signals a request that fails validation.
	ErrInvalidInput = errors.New("invalid input")
)
