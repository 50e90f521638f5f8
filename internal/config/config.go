// Package config loads and validates the doclore configuration file.
// Configuration lives in a TOML file, by default ~/.doclore/config.toml;
// a missing file yields the defaults. Validation failures are fatal at
// startup, before any pipeline runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Default values applied when the file omits a key.
const (
	DefaultChunkSize       = 1000
	DefaultChunkOverlap    = 200
	DefaultTopK            = 4
	DefaultMaxContextChars = 8000
	DefaultMaxTurns        = 6

	DefaultEmbeddingProvider = "ollama"
	DefaultEmbeddingModel    = "nomic-embed-text"
	DefaultGenerationModel   = "llama3.2"
	DefaultBaseURL           = "http://localhost:11434"
	DefaultEmbedTimeoutSecs  = 30
	DefaultGenTimeoutSecs    = 120
	DefaultEmbedRateLimit    = 10 // requests per second during builds
)

// ChunkingConfig controls how normalized text is split.
type ChunkingConfig struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int `toml:"chunk_size"`

	// ChunkOverlap is how many tail characters consecutive chunks share.
	ChunkOverlap int `toml:"chunk_overlap"`

	// Separators are tried highest priority first when picking a break
	// point. An empty string means split anywhere.
	Separators []string `toml:"separators"`
}

// EmbeddingConfig selects and configures the embedding service.
type EmbeddingConfig struct {
	// Provider is "ollama" or "openai".
	Provider string `toml:"provider"`

	// Model is the embedding model identifier.
	Model string `toml:"model"`

	// BaseURL is the service endpoint. For openai it overrides the
	// default API base (Azure or compatible endpoints).
	BaseURL string `toml:"base_url"`

	// Device selects where a local model runs: "cpu" or "gpu".
	Device string `toml:"device"`

	// Dimensions overrides the model's vector size. Required for
	// models the provider adapter does not know; openai 3-series
	// models honour a reduction server-side.
	Dimensions int `toml:"dimensions"`

	// TimeoutSecs is the per-request timeout.
	TimeoutSecs int `toml:"timeout_secs"`

	// RateLimit caps embedding requests per second during batch builds.
	RateLimit float64 `toml:"rate_limit"`
}

// GenerationConfig configures the answer-generating model.
type GenerationConfig struct {
	// Model is the generation model identifier.
	Model string `toml:"model"`

	// BaseURL is the service endpoint.
	BaseURL string `toml:"base_url"`

	// Temperature controls sampling randomness.
	Temperature float64 `toml:"temperature"`

	// TopP is the nucleus sampling cutoff.
	TopP float64 `toml:"top_p"`

	// TimeoutSecs is the per-request timeout.
	TimeoutSecs int `toml:"timeout_secs"`
}

// RetrievalConfig controls how much context reaches the prompt.
type RetrievalConfig struct {
	// TopK is how many chunks are retrieved per question.
	TopK int `toml:"top_k"`

	// MaxContextChars bounds the concatenated context; lowest-ranked
	// chunks are dropped first when it is exceeded.
	MaxContextChars int `toml:"max_context_chars"`
}

// MemoryConfig bounds the prompt-visible conversation history.
type MemoryConfig struct {
	// MaxTurns is how many recent turns prompts may include.
	MaxTurns int `toml:"max_turns"`
}

// Config is the root configuration.
type Config struct {
	// CollectionName identifies the persisted index. Distinct
	// collections are isolated from each other.
	CollectionName string `toml:"collection_name"`

	// PersistPath is the directory holding the persisted index.
	PersistPath string `toml:"persist_path"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	Chunking   ChunkingConfig   `toml:"chunking"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Generation GenerationConfig `toml:"generation"`
	Retrieval  RetrievalConfig  `toml:"retrieval"`
	Memory     MemoryConfig     `toml:"memory"`
}

// Load reads the config from path. A missing file returns the defaults;
// a malformed file or failed validation returns an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath returns ~/.doclore/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".doclore", "config.toml"), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		CollectionName: "default",
		PersistPath:    filepath.Join(home, ".doclore", "data"),
		LogLevel:       "info",
		Chunking: ChunkingConfig{
			ChunkSize:    DefaultChunkSize,
			ChunkOverlap: DefaultChunkOverlap,
			Separators:   []string{"\n\n", "\n", ". ", " ", ""},
		},
		Embedding: EmbeddingConfig{
			Provider:    DefaultEmbeddingProvider,
			Model:       DefaultEmbeddingModel,
			BaseURL:     DefaultBaseURL,
			Device:      "cpu",
			TimeoutSecs: DefaultEmbedTimeoutSecs,
			RateLimit:   DefaultEmbedRateLimit,
		},
		Generation: GenerationConfig{
			Model:       DefaultGenerationModel,
			BaseURL:     DefaultBaseURL,
			Temperature: 0.7,
			TopP:        0.9,
			TimeoutSecs: DefaultGenTimeoutSecs,
		},
		Retrieval: RetrievalConfig{
			TopK:            DefaultTopK,
			MaxContextChars: DefaultMaxContextChars,
		},
		Memory: MemoryConfig{
			MaxTurns: DefaultMaxTurns,
		},
	}
}

// applyDefaults fills keys the file left zero-valued.
func (c *Config) applyDefaults() {
	d := Default()
	if c.CollectionName == "" {
		c.CollectionName = d.CollectionName
	}
	if c.PersistPath == "" {
		c.PersistPath = d.PersistPath
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Chunking.ChunkSize == 0 {
		c.Chunking.ChunkSize = d.Chunking.ChunkSize
	}
	if c.Chunking.Separators == nil {
		c.Chunking.Separators = d.Chunking.Separators
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = d.Embedding.Provider
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = d.Embedding.Model
	}
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = d.Embedding.BaseURL
	}
	if c.Embedding.Device == "" {
		c.Embedding.Device = d.Embedding.Device
	}
	if c.Embedding.TimeoutSecs == 0 {
		c.Embedding.TimeoutSecs = d.Embedding.TimeoutSecs
	}
	if c.Embedding.RateLimit == 0 {
		c.Embedding.RateLimit = d.Embedding.RateLimit
	}
	if c.Generation.Model == "" {
		c.Generation.Model = d.Generation.Model
	}
	if c.Generation.BaseURL == "" {
		c.Generation.BaseURL = d.Generation.BaseURL
	}
	if c.Generation.TimeoutSecs == 0 {
		c.Generation.TimeoutSecs = d.Generation.TimeoutSecs
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = d.Retrieval.TopK
	}
	if c.Retrieval.MaxContextChars == 0 {
		c.Retrieval.MaxContextChars = d.Retrieval.MaxContextChars
	}
	if c.Memory.MaxTurns == 0 {
		c.Memory.MaxTurns = d.Memory.MaxTurns
	}
}

// Validate reports the first invalid or inconsistent setting.
func (c *Config) Validate() error {
	if c.CollectionName == "" {
		return errors.New("config: collection_name is required")
	}
	if c.PersistPath == "" {
		return errors.New("config: persist_path is required")
	}
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("config: chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.ChunkOverlap < 0 {
		return fmt.Errorf("config: chunking.chunk_overlap must not be negative, got %d", c.Chunking.ChunkOverlap)
	}
	if c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("config: chunking.chunk_overlap (%d) must be smaller than chunk_size (%d)",
			c.Chunking.ChunkOverlap, c.Chunking.ChunkSize)
	}
	switch c.Embedding.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("config: embedding.provider must be ollama or openai, got %q", c.Embedding.Provider)
	}
	switch c.Embedding.Device {
	case "cpu", "gpu":
	default:
		return fmt.Errorf("config: embedding.device must be cpu or gpu, got %q", c.Embedding.Device)
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("config: embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("config: retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Generation.Temperature < 0 {
		return fmt.Errorf("config: generation.temperature must not be negative, got %g", c.Generation.Temperature)
	}
	if c.Memory.MaxTurns <= 0 {
		return fmt.Errorf("config: memory.max_turns must be positive, got %d", c.Memory.MaxTurns)
	}
	return nil
}
