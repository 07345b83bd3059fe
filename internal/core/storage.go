package core

import "context"

// VectorStore persists embedded records scoped by conversation.
// Implementations report transport failures wrapped in ErrStoreUnavailable.
type VectorStore interface {
	Name() string
	EnsureCollection(ctx context.Context, dims int) error
	Upsert(ctx context.Context, key string, rec Record, vector []float32) error
	Search(ctx context.Context, conversationID string, vector []float32, k int) ([]ScoredRecord, error)
	Recent(ctx context.Context, conversationID string, limit int) ([]StoredRecord, error)
	Coverage(ctx context.Context, conversationID string) (Coverage, error)
	Stats(ctx context.Context) (StoreStats, error)
	Health(ctx context.Context) error
	Close() error
}

// FlatLog is the append-only, size-bounded plain text history per conversation.
type FlatLog interface {
	Append(ctx context.Context, conversationID, line string) error
	Tail(ctx context.Context, conversationID string, n int) ([]string, error)
	Stats(ctx context.Context) (FlatStats, error)
}

type Coverage struct {
	Total int
	Bot   int
	User  int
}

type StoreStats struct {
	Records       int
	Conversations int
}

type FlatStats struct {
	Conversations int
	Lines         int
	Bytes         int64
}
