package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/doclore/doclore/internal/core/domain"
	"github.com/doclore/doclore/internal/core/ports/driven"
	"github.com/doclore/doclore/internal/core/ports/driving"
	"github.com/doclore/doclore/internal/logger"
)

// Ensure Session implements the interface.
var _ driving.KnowledgeSession = (*Session)(nil)

// Session orchestrates the knowledge base: building the index and
// answering questions against it. Builds take the write lock, queries
// the read lock, so a build never interleaves with retrieval.
type Session struct {
	mu        sync.RWMutex
	builder   *IndexBuilder
	retriever *Retriever
	prompts   *PromptBuilder
	llm       driven.LLMService
	memory    *ConversationMemory
	genOpts   driven.GenerateOptions
}

// NewSession creates a knowledge session from its collaborators.
func NewSession(
	builder *IndexBuilder,
	retriever *Retriever,
	prompts *PromptBuilder,
	llm driven.LLMService,
	memory *ConversationMemory,
	genOpts driven.GenerateOptions,
) *Session {
	return &Session{
		builder:   builder,
		retriever: retriever,
		prompts:   prompts,
		llm:       llm,
		memory:    memory,
		genOpts:   genOpts,
	}
}

// BuildIndex runs the ingestion pipeline over sourceDir.
func (s *Session) BuildIndex(ctx context.Context, sourceDir string, rebuild bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builder.Build(ctx, sourceDir, rebuild)
}

// Watch re-ingests changed files under sourceDir until ctx is
// cancelled. Each re-ingest takes the write lock for its duration.
func (s *Session) Watch(ctx context.Context, sourceDir string) error {
	return s.builder.Watch(ctx, sourceDir)
}

// Query answers one question, blocking until the full answer is
// available. The completed turn enters conversational memory.
func (s *Session) Query(ctx context.Context, question string) (domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{}, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	hits, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return domain.Answer{}, err
	}

	prompt := s.prompts.Build(question, hits, s.memory.Recent())

	start := time.Now()
	text, err := s.llm.Generate(ctx, prompt, s.genOpts)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	elapsed := time.Since(start)

	s.memory.Append(ctx, question, text)
	logger.Debug("answered in %s using %d chunks", elapsed.Round(time.Millisecond), len(hits))

	return domain.Answer{
		Text:    text,
		Sources: hits,
		Elapsed: elapsed,
	}, nil
}

// QueryStream answers one question incrementally. Sources are resolved
// and returned before generation starts. Memory is updated only after
// the stream completes cleanly; an abandoned or failed stream records
// nothing.
func (s *Session) QueryStream(ctx context.Context, question string) (domain.RetrievalResult, <-chan driven.StreamDelta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	hits, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, nil, err
	}

	prompt := s.prompts.Build(question, hits, s.memory.Recent())

	deltas, err := s.llm.GenerateStream(ctx, prompt, s.genOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	out := make(chan driven.StreamDelta)
	go func() {
		defer close(out)

		var answer strings.Builder
		failed := false
		for d := range deltas {
			if d.Err != nil {
				failed = true
			} else {
				answer.WriteString(d.Text)
			}
			select {
			case out <- d:
			case <-ctx.Done():
				// consumer abandoned the stream; nothing is recorded
				return
			}
		}

		if !failed && answer.Len() > 0 {
			// the turn exists only once the full answer arrived
			s.memory.Append(context.WithoutCancel(ctx), question, answer.String())
		}
	}()

	return hits, out, nil
}

// ClearMemory forgets the conversation history.
func (s *Session) ClearMemory() {
	s.memory.Clear()
}
