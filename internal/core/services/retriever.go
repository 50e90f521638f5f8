package services

import (
	"context"
	"fmt"

	"github.com/doclore/doclore/internal/core/domain"
	"github.com/doclore/doclore/internal/core/ports/driven"
	"github.com/doclore/doclore/internal/logger"
)

// DefaultTopK is how many chunks a question retrieves when the config
// names no count.
const DefaultTopK = 4

// Retriever embeds a question and finds the most similar stored chunks.
type Retriever struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	topK     int
}

// NewRetriever creates a retriever. topK of zero or less means the
// default.
func NewRetriever(embedder driven.EmbeddingService, index driven.VectorIndex, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		topK:     topK,
	}
}

// Retrieve returns the topK most relevant chunks for the question,
// best first. An empty index fails with ErrIndexUnavailable.
func (r *Retriever) Retrieve(ctx context.Context, question string) (domain.RetrievalResult, error) {
	size, err := r.index.Size(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking index: %w", err)
	}
	if size == 0 {
		return nil, domain.ErrIndexUnavailable
	}

	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}

	hits, err := r.index.Search(ctx, vector, r.topK)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	logger.Debug("retrieved %d chunks for question (index size %d)", len(hits), size)
	return hits, nil
}
