package services

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/doclore/doclore/internal/core/domain"
	"github.com/doclore/doclore/internal/core/ports/driven"
	"github.com/doclore/doclore/internal/logger"
	"github.com/doclore/doclore/internal/splitter"
)

// embedBatchSize is how many chunks go to the embedder per batch call.
const embedBatchSize = 16

// watchDebounce suppresses the bursts of write events editors fire
// when saving a file.
const watchDebounce = 500 * time.Millisecond

// DocumentLoader dispatches raw file bytes to a format-specific loader.
// *loaders.Registry satisfies this.
type DocumentLoader interface {
	Load(ctx context.Context, raw *domain.RawDocument) ([]domain.Document, error)
}

// IndexBuilder runs the ingestion pipeline: walk a source directory,
// load and split each supported file, embed the chunks and persist
// them in the vector index.
type IndexBuilder struct {
	loader   DocumentLoader
	splitter *splitter.Splitter
	embedder driven.EmbeddingService
	index    driven.VectorIndex
}

// NewIndexBuilder wires the ingestion pipeline.
func NewIndexBuilder(loader DocumentLoader, split *splitter.Splitter, embedder driven.EmbeddingService, index driven.VectorIndex) *IndexBuilder {
	return &IndexBuilder{
		loader:   loader,
		splitter: split,
		embedder: embedder,
		index:    index,
	}
}

// Build ingests sourceDir into the index. When rebuild is false and
// the persisted collection already holds entries, the build
// short-circuits and returns the existing size. A full build replaces
// the collection atomically, so a failed build leaves the previous
// index intact. Returns the number of chunks the index holds.
func (b *IndexBuilder) Build(ctx context.Context, sourceDir string, rebuild bool) (int, error) {
	size, err := b.index.Size(ctx)
	if err != nil {
		return 0, fmt.Errorf("checking index: %w", err)
	}
	if size > 0 && !rebuild {
		logger.Info("index already holds %d chunks, skipping build (use rebuild to force)", size)
		return size, nil
	}

	chunks, err := b.collectChunks(ctx, sourceDir)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		logger.Warn("no indexable content found under %s", sourceDir)
	}

	entries, err := b.embedChunks(ctx, chunks)
	if err != nil {
		return 0, err
	}

	if err := b.index.Replace(ctx, entries); err != nil {
		return 0, fmt.Errorf("persisting index: %w", err)
	}

	logger.Info("indexed %d chunks from %s", len(entries), sourceDir)
	return len(entries), nil
}

// IngestFile ingests a single file incrementally via upsert. Chunk IDs
// are stable, so re-ingesting an edited file overwrites its chunks in
// place. A file that shrank may leave stale tail chunks behind; a full
// rebuild clears those.
func (b *IndexBuilder) IngestFile(ctx context.Context, path string) (int, error) {
	chunks, err := b.fileChunks(ctx, path)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	entries, err := b.embedChunks(ctx, chunks)
	if err != nil {
		return 0, err
	}
	if err := b.index.Upsert(ctx, entries); err != nil {
		return 0, fmt.Errorf("upserting %s: %w", path, err)
	}
	return len(entries), nil
}

// Watch re-ingests supported files as they are created or modified
// under sourceDir, until ctx is cancelled. Removals are logged but not
// reflected until the next rebuild.
func (b *IndexBuilder) Watch(ctx context.Context, sourceDir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(sourceDir); err != nil {
		return fmt.Errorf("watching %s: %w", sourceDir, err)
	}
	// watch subdirectories too
	err = filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() || path == sourceDir {
			return err
		}
		return watcher.Add(path)
	})
	if err != nil {
		return fmt.Errorf("watching subdirectories: %w", err)
	}

	logger.Info("watching %s for changes", sourceDir)

	lastIngest := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			switch {
			case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					watcher.Add(event.Name)
					continue
				}
				if domain.DetectFormat(event.Name) == domain.FormatUnknown {
					continue
				}
				if t, ok := lastIngest[event.Name]; ok && time.Since(t) < watchDebounce {
					continue
				}
				lastIngest[event.Name] = time.Now()
				n, err := b.IngestFile(ctx, event.Name)
				if err != nil {
					logger.Warn("re-ingest %s failed: %v", event.Name, err)
					continue
				}
				if n > 0 {
					logger.Info("re-ingested %s (%d chunks)", event.Name, n)
				}

			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				logger.Info("%s removed; run a rebuild to drop its chunks", event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)
		}
	}
}

// collectChunks walks the tree and splits every supported file.
// Unsupported and unreadable files are skipped with a diagnostic; only
// an unwalkable tree aborts the build.
func (b *IndexBuilder) collectChunks(ctx context.Context, sourceDir string) ([]domain.Chunk, error) {
	var all []domain.Chunk

	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if domain.DetectFormat(path) == domain.FormatUnknown {
			logger.Debug("skipping %s: unsupported extension", path)
			return nil
		}

		chunks, err := b.fileChunks(ctx, path)
		if err != nil {
			logger.Warn("skipping %s: %v", path, err)
			return nil
		}
		all = append(all, chunks...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", sourceDir, err)
	}

	return all, nil
}

// fileChunks loads one file and splits it.
func (b *IndexBuilder) fileChunks(ctx context.Context, path string) ([]domain.Chunk, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	raw := &domain.RawDocument{
		Path:    path,
		Format:  domain.DetectFormat(path),
		Content: content,
	}

	docs, err := b.loader.Load(ctx, raw)
	if err != nil {
		return nil, err
	}

	chunks := b.splitter.SplitAll(docs)
	logger.Debug("split %s into %d chunks (%d units)", path, len(chunks), len(docs))
	return chunks, nil
}

// embedChunks turns chunks into index entries, batch by batch.
func (b *IndexBuilder) embedChunks(ctx context.Context, chunks []domain.Chunk) ([]domain.IndexEntry, error) {
	entries := make([]domain.IndexEntry, 0, len(chunks))

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		vectors, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
		}

		for i, c := range batch {
			entries = append(entries, domain.IndexEntry{Chunk: c, Embedding: vectors[i]})
		}
		logger.Debug("embedded %d/%d chunks", end, len(chunks))
	}

	return entries, nil
}
