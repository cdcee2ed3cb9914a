package driven

import "context"

// EmbeddingService generates vector embeddings from text. Label and target
// embeddings must come from the same model: the catalog records ModelName
// alongside cached embeddings and refuses to mix embedding spaces.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// Deterministic for a fixed model and fixed input.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 384, 768, 1536).
	Dimensions() int

	// ModelName returns the embedding model identifier, used for the
	// embedding-space consistency check.
	ModelName() string

	// Ping validates the provider is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
