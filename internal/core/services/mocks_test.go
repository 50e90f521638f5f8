package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/doclore/doclore/internal/core/domain"
	"github.com/doclore/doclore/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingService. Vectors come from a
// fixed table; unknown texts get a default vector.
type mockEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	embedErr error
	calls    int
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{
		vectors:  make(map[string][]float32),
		fallback: []float32{0, 0, 1},
	}
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return m.fallback, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int        { return 3 }
func (m *mockEmbedder) ModelName() string      { return "mock-embed" }
func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error           { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockIndex implements driven.VectorIndex in memory.
type mockIndex struct {
	mu        sync.Mutex
	entries   []domain.IndexEntry
	searchErr error
	sizeErr   error
}

func (m *mockIndex) Upsert(_ context.Context, entries []domain.IndexEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		replaced := false
		for i := range m.entries {
			if m.entries[i].Chunk.ID == e.Chunk.ID {
				m.entries[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			m.entries = append(m.entries, e)
		}
	}
	return nil
}

func (m *mockIndex) Replace(_ context.Context, entries []domain.IndexEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]domain.IndexEntry(nil), entries...)
	return nil
}

func (m *mockIndex) Search(_ context.Context, vector []float32, k int) (domain.RetrievalResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}

	scored := make(domain.RetrievalResult, 0, len(m.entries))
	for _, e := range m.entries {
		if len(e.Embedding) != len(vector) {
			return nil, domain.ErrDimensionMismatch
		}
		var score float64
		for i := range vector {
			score += float64(vector[i]) * float64(e.Embedding[i])
		}
		scored = append(scored, domain.ScoredChunk{Chunk: e.Chunk, Score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

func (m *mockIndex) Size(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sizeErr != nil {
		return 0, m.sizeErr
	}
	return len(m.entries), nil
}

func (m *mockIndex) Dimensions(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return 0, nil
	}
	return len(m.entries[0].Embedding), nil
}

func (m *mockIndex) Drop(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}

func (m *mockIndex) Close() error { return nil }

// mockLLM implements driven.LLMService with canned output.
type mockLLM struct {
	answer    string
	fragments []string
	genErr    error
	streamErr error
	prompts   []string
	mu        sync.Mutex
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.genErr != nil {
		return "", m.genErr
	}
	return m.answer, nil
}

func (m *mockLLM) GenerateStream(ctx context.Context, prompt string, _ driven.GenerateOptions) (<-chan driven.StreamDelta, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.genErr != nil {
		return nil, m.genErr
	}

	out := make(chan driven.StreamDelta)
	go func() {
		defer close(out)
		for _, f := range m.fragments {
			select {
			case out <- driven.StreamDelta{Text: f}:
			case <-ctx.Done():
				// mirror the real adapter: cancellation surfaces as a
				// terminal error delta if anyone is still listening
				select {
				case out <- driven.StreamDelta{Err: ctx.Err()}:
				default:
				}
				return
			}
		}
		if m.streamErr != nil {
			out <- driven.StreamDelta{Err: m.streamErr}
		}
	}()
	return out, nil
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// mockSink implements driven.TurnSink, recording every turn.
type mockSink struct {
	mu    sync.Mutex
	turns []domain.Turn
	err   error
}

func (m *mockSink) RecordTurn(_ context.Context, turn domain.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.turns = append(m.turns, turn)
	return nil
}

func (m *mockSink) recorded() []domain.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Turn(nil), m.turns...)
}

// mockLoader implements DocumentLoader, counting calls.
type mockLoader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockLoader) Load(_ context.Context, raw *domain.RawDocument) ([]domain.Document, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Document{{
		Source:  raw.Path,
		Ordinal: 0,
		Content: string(raw.Content),
	}}, nil
}

func (m *mockLoader) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// indexEntry is a test helper building an entry with a unit vector.
func indexEntry(id string, vec ...float32) domain.IndexEntry {
	return domain.IndexEntry{
		Chunk: domain.Chunk{
			ID:      id,
			Source:  fmt.Sprintf("docs/%s.txt", id),
			Content: "content of " + id,
		},
		Embedding: vec,
	}
}
