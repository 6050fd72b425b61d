package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in one
	// request. The returned slice contains embeddings in the same order as the
	// input texts; callers must verify the count before relying on position.
	// Returns an error if the embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatModel produces a single chat completion from a system instruction and a
// user prompt. Implementations must be thread-safe for concurrent use.
type ChatModel interface {
	// Complete sends the request to the chat completion service and returns
	// the trimmed text of the first completion choice.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages the Embedder and ChatModel
// instances, ensuring they share configuration.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// ChatModel returns the chat completion service.
	ChatModel() ChatModel

	// Close releases resources held by the provider and its services.
	Close() error
}
