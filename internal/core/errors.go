package core

import "errors"

var (
	// ErrStoreUnavailable marks connection refused, timeouts and query
	// failures against the vector store.
	ErrStoreUnavailable = errors.New("vector store unavailable")
	// ErrEmbedding marks failures of the embedding capability.
	ErrEmbedding = errors.New("embedding failed")
	// ErrNotConnected is returned when an operation needs a connected store.
	ErrNotConnected = errors.New("vector store not connected")
)
