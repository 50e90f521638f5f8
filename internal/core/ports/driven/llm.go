package driven

import "context"

// LLMService produces answers from an instruction-following language model.
//
// Implementations may include:
//   - Ollama (local models)
//   - OpenAI-compatible inference servers
type LLMService interface {
	// Generate produces the complete text for a prompt, blocking until
	// the model finishes.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// GenerateStream produces text incrementally. The returned channel
	// yields deltas in order and is closed when generation completes or
	// fails; a delta with Err set is terminal. Abandoning the stream is
	// done by cancelling ctx. The concatenation of all deltas equals
	// what Generate would return for the same request, up to sampling
	// nondeterminism when the temperature is above zero.
	GenerateStream(ctx context.Context, prompt string, opts GenerateOptions) (<-chan StreamDelta, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// Temperature controls randomness (0.0 = deterministic output).
	Temperature float64

	// TopP is the nucleus sampling cutoff.
	TopP float64

	// MaxTokens caps the number of tokens generated. Zero means the
	// model default.
	MaxTokens int
}

// StreamDelta is one increment of a streaming generation.
type StreamDelta struct {
	// Text is the next fragment of the answer. Fragments concatenate in
	// channel order.
	Text string

	// Err terminates the stream when non-nil; any text accumulated so
	// far must be discarded by the consumer.
	Err error
}
