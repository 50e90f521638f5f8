package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclore/doclore/internal/core/domain"
	"github.com/doclore/doclore/internal/splitter"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestBuilder(index *mockIndex, loader DocumentLoader, embedder *mockEmbedder) *IndexBuilder {
	return NewIndexBuilder(loader, splitter.New(splitter.WithChunkSize(1000), splitter.WithOverlap(100)), embedder, index)
}

func TestBuild_IndexesSupportedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sky.txt", "The sky is blue.")
	writeFile(t, dir, "nested/grass.txt", "The grass is green.")
	writeFile(t, dir, "image.png", "\x89PNG not text")

	index := &mockIndex{}
	b := newTestBuilder(index, &mockLoader{}, newMockEmbedder())

	n, err := b.Build(context.Background(), dir, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "png must be skipped, both txt files indexed")

	size, _ := index.Size(context.Background())
	assert.Equal(t, 2, size)
}

func TestBuild_ShortCircuitsWhenIndexExists(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.txt", "content")

	index := &mockIndex{}
	require.NoError(t, index.Replace(context.Background(), []domain.IndexEntry{
		indexEntry("persisted", 1, 0, 0),
	}))

	loader := &mockLoader{}
	embedder := newMockEmbedder()
	b := newTestBuilder(index, loader, embedder)

	n, err := b.Build(context.Background(), dir, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "returns the persisted size")
	assert.Zero(t, loader.callCount(), "no loading on a short-circuited build")
	assert.Zero(t, embedder.callCount(), "no embedding on a short-circuited build")
}

func TestBuild_RebuildReplacesIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.txt", "fresh content")

	index := &mockIndex{}
	require.NoError(t, index.Replace(context.Background(), []domain.IndexEntry{
		indexEntry("stale-1", 1, 0, 0),
		indexEntry("stale-2", 0, 1, 0),
	}))

	b := newTestBuilder(index, &mockLoader{}, newMockEmbedder())
	n, err := b.Build(context.Background(), dir, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := index.Search(context.Background(), []float32{0, 0, 1}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.NotContains(t, hits[0].Chunk.ID, "stale")
}

func TestBuild_SkipsUnloadableFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.txt", "will fail to load")

	index := &mockIndex{}
	b := newTestBuilder(index, &mockLoader{err: assert.AnError}, newMockEmbedder())

	n, err := b.Build(context.Background(), dir, false)
	require.NoError(t, err, "a single bad file must not abort the build")
	assert.Equal(t, 0, n)
}

func TestBuild_EmptyDirectory(t *testing.T) {
	index := &mockIndex{}
	b := newTestBuilder(index, &mockLoader{}, newMockEmbedder())

	n, err := b.Build(context.Background(), t.TempDir(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestBuild_MissingDirectory(t *testing.T) {
	b := newTestBuilder(&mockIndex{}, &mockLoader{}, newMockEmbedder())
	_, err := b.Build(context.Background(), filepath.Join(t.TempDir(), "nope"), false)
	assert.Error(t, err)
}

func TestBuild_EmbedderDownAborts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.txt", "content")

	embedder := newMockEmbedder()
	embedder.embedErr = assert.AnError

	index := &mockIndex{}
	require.NoError(t, index.Replace(context.Background(), []domain.IndexEntry{
		indexEntry("previous", 1, 0, 0),
	}))

	b := newTestBuilder(index, &mockLoader{}, embedder)
	_, err := b.Build(context.Background(), dir, true)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	size, _ := index.Size(context.Background())
	assert.Equal(t, 1, size, "failed build leaves the previous index intact")
}

func TestIngestFile_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.txt", "some content here")

	index := &mockIndex{}
	b := newTestBuilder(index, &mockLoader{}, newMockEmbedder())

	n, err := b.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = b.IngestFile(context.Background(), path)
	require.NoError(t, err)

	size, _ := index.Size(context.Background())
	assert.Equal(t, 1, size, "stable chunk IDs keep re-ingest from growing the index")
}
