package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclore/doclore/internal/core/domain"
)

func TestRetrieve_EmptyIndex(t *testing.T) {
	r := NewRetriever(newMockEmbedder(), &mockIndex{}, 4)

	_, err := r.Retrieve(context.Background(), "anything")
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestRetrieve_BestFirst(t *testing.T) {
	embedder := newMockEmbedder()
	embedder.vectors["what color is the sky"] = []float32{1, 0, 0}

	index := &mockIndex{}
	require.NoError(t, index.Replace(context.Background(), []domain.IndexEntry{
		indexEntry("sky", 1, 0, 0),
		indexEntry("grass", 0, 1, 0),
	}))

	r := NewRetriever(embedder, index, 4)
	hits, err := r.Retrieve(context.Background(), "what color is the sky")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "sky", hits[0].Chunk.ID)
}

func TestRetrieve_TopKLimit(t *testing.T) {
	index := &mockIndex{}
	require.NoError(t, index.Replace(context.Background(), []domain.IndexEntry{
		indexEntry("a", 1, 0, 0),
		indexEntry("b", 0, 1, 0),
		indexEntry("c", 0, 0, 1),
	}))

	r := NewRetriever(newMockEmbedder(), index, 2)
	hits, err := r.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestRetrieve_EmbedderDown(t *testing.T) {
	embedder := newMockEmbedder()
	embedder.embedErr = assert.AnError

	index := &mockIndex{}
	require.NoError(t, index.Replace(context.Background(), []domain.IndexEntry{indexEntry("a", 1, 0, 0)}))

	_, err := NewRetriever(embedder, index, 4).Retrieve(context.Background(), "q")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestRetrieve_DimensionMismatchSurfaces(t *testing.T) {
	embedder := newMockEmbedder()
	embedder.fallback = []float32{1, 0} // 2d query against a 3d index

	index := &mockIndex{}
	require.NoError(t, index.Replace(context.Background(), []domain.IndexEntry{indexEntry("a", 1, 0, 0)}))

	_, err := NewRetriever(embedder, index, 4).Retrieve(context.Background(), "q")
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}
