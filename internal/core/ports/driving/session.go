// Package driving provides interfaces for the application entrypoints
// (primary/inbound ports).
package driving

import (
	"context"

	"github.com/doclore/doclore/internal/core/domain"
	"github.com/doclore/doclore/internal/core/ports/driven"
)

// KnowledgeSession is the conversational knowledge-base surface exposed
// to the CLI and TUI. Each session owns its own index handle, embedder
// and conversation history; sessions do not share mutable state.
type KnowledgeSession interface {
	// BuildIndex runs the ingestion pipeline over sourceDir. When
	// rebuild is false and the persisted collection already holds
	// entries, the build short-circuits and reuses them. Returns the
	// number of chunks the index holds afterwards.
	BuildIndex(ctx context.Context, sourceDir string, rebuild bool) (int, error)

	// Query answers one question against the index, blocking until the
	// full answer is available, and records the turn in memory.
	Query(ctx context.Context, question string) (domain.Answer, error)

	// QueryStream answers one question incrementally. Sources are
	// resolved before generation starts; deltas arrive on the returned
	// channel. Memory is updated only after the stream completes, so an
	// abandoned or failed stream records nothing.
	QueryStream(ctx context.Context, question string) (domain.RetrievalResult, <-chan driven.StreamDelta, error)

	// ClearMemory forgets the conversation history.
	ClearMemory()
}
