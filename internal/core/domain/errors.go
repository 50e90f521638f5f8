package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates a file extension no loader handles.
	// Builds skip such files with a diagnostic; they never abort.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrIndexUnavailable indicates a query was issued before any
	// successful build. Reported to the user, never a crash.
	ErrIndexUnavailable = errors.New("knowledge base not built yet")

	// ErrDimensionMismatch indicates the query embedding space does not
	// match the one the collection was indexed with. Mixing embedding
	// models invalidates the index, so this is never recovered silently.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// reachable. Fatal for the current build or query.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationFailed indicates the model service was unreachable or
	// the stream was aborted mid-generation. Partial output is discarded
	// and conversational memory is not updated.
	ErrGenerationFailed = errors.New("generation failed")
)
