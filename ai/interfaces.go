package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedQuery generates a vector embedding for a single text string.
	// The returned vector has exactly the configured embedding dimension.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input
	// texts, every vector with exactly the configured embedding dimension.
	// A batch either succeeds completely or fails with ErrEmbeddingBackend;
	// partial results are never returned.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces a conversational response conditioned on a system prompt.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate invokes the generation backend with a system prompt and the
	// raw user message and returns the generated text.
	// Returns ErrGenerationBackend if the backend is unreachable or returns
	// an unusable result.
	Generate(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder and Generator instances,
// ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the response generation service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
