package driven

import (
	"context"

	"github.com/doclore/doclore/internal/core/domain"
)

// VectorIndex is the persistent store mapping chunk identity to
// (vector, text, metadata), with nearest-neighbour search over
// L2-normalized vectors.
type VectorIndex interface {
	// Upsert inserts entries, replacing any existing entry with the same
	// chunk ID. Repeated builds of the same source never grow the index.
	Upsert(ctx context.Context, entries []domain.IndexEntry) error

	// Replace atomically swaps the whole collection for the given
	// entries. Readers never observe a half-populated index.
	Replace(ctx context.Context, entries []domain.IndexEntry) error

	// Search returns the k entries most similar to the query vector,
	// best first, ties in insertion order. A k larger than the index
	// returns everything. A query vector whose length differs from the
	// collection's dimensions fails with domain.ErrDimensionMismatch.
	Search(ctx context.Context, vector []float32, k int) (domain.RetrievalResult, error)

	// Size returns the number of stored entries.
	Size(ctx context.Context) (int, error)

	// Dimensions returns the vector size the collection was created
	// with, or 0 when the collection is empty and unpinned.
	Dimensions(ctx context.Context) (int, error)

	// Drop discards all entries and the collection identity, so the next
	// build starts from nothing.
	Drop(ctx context.Context) error

	// Close releases the underlying storage.
	Close() error
}

// TurnSink records completed conversation turns for auditing.
// The bounded in-memory history used for prompts trims old turns; the
// sink keeps all of them.
type TurnSink interface {
	// RecordTurn appends a completed turn to the audit log.
	RecordTurn(ctx context.Context, turn domain.Turn) error
}
