package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	embedollama "github.com/doclore/doclore/internal/adapters/embedding/ollama"
	embedopenai "github.com/doclore/doclore/internal/adapters/embedding/openai"
	"github.com/doclore/doclore/internal/adapters/index/sqlite"
	llmollama "github.com/doclore/doclore/internal/adapters/llm/ollama"
	"github.com/doclore/doclore/internal/config"
	"github.com/doclore/doclore/internal/core/ports/driven"
	"github.com/doclore/doclore/internal/core/services"
	"github.com/doclore/doclore/internal/loaders"
	"github.com/doclore/doclore/internal/splitter"
)

// wireSession assembles the knowledge session from the loaded
// configuration and registers the adapters for cleanup.
func wireSession() error {
	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		return err
	}
	closers = append(closers, embedder.Close)

	store, err := sqlite.NewStore(sqlite.Config{
		Path:       filepath.Join(cfg.PersistPath, "index.db"),
		Collection: cfg.CollectionName,
		Model:      embedder.ModelName(),
	})
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	closers = append(closers, store.Close)

	llm := llmollama.NewLLMService(llmollama.Config{
		BaseURL: cfg.Generation.BaseURL,
		Model:   cfg.Generation.Model,
		Timeout: time.Duration(cfg.Generation.TimeoutSecs) * time.Second,
	})
	closers = append(closers, llm.Close)

	split := splitter.New(
		splitter.WithChunkSize(cfg.Chunking.ChunkSize),
		splitter.WithOverlap(cfg.Chunking.ChunkOverlap),
		splitter.WithSeparators(cfg.Chunking.Separators),
	)

	builder := services.NewIndexBuilder(loaders.Defaults(), split, embedder, store)
	retriever := services.NewRetriever(embedder, store, cfg.Retrieval.TopK)
	prompts := services.NewPromptBuilder(cfg.Retrieval.MaxContextChars)
	memory := services.NewConversationMemory(cfg.Memory.MaxTurns, store)

	s := services.NewSession(builder, retriever, prompts, llm, memory, driven.GenerateOptions{
		Temperature: cfg.Generation.Temperature,
		TopP:        cfg.Generation.TopP,
	})
	session = s
	sessionWatcher = s
	return nil
}

func newEmbedder(ec config.EmbeddingConfig) (driven.EmbeddingService, error) {
	switch ec.Provider {
	case "openai":
		baseURL := ec.BaseURL
		if baseURL == config.DefaultBaseURL {
			// the packaged default points at ollama; keep the client's
			// own default instead
			baseURL = ""
		}
		return embedopenai.NewEmbeddingService(embedopenai.Config{
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			BaseURL:    baseURL,
			Model:      ec.Model,
			Timeout:    time.Duration(ec.TimeoutSecs) * time.Second,
			Dimensions: ec.Dimensions,
		})
	default:
		return embedollama.NewEmbeddingService(embedollama.Config{
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Timeout:    time.Duration(ec.TimeoutSecs) * time.Second,
			Dimensions: ec.Dimensions,
			RateLimit:  ec.RateLimit,
		}), nil
	}
}
