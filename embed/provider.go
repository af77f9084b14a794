package embed

import "context"

// Provider generates vector embeddings from text for semantic similarity
// search. Implementations must be thread-safe for concurrent use.
type Provider interface {
	// EmbedQuery generates a vector embedding for a single text string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedDocuments generates embeddings for multiple texts in a batch.
	// The returned slice is in input order and has one vector per text.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// VectorSize returns the dimension of the vectors this provider
	// produces. Collections are created with exactly this size.
	VectorSize() int

	// Fingerprint returns a stable description of the backend and model
	// configuration. It is stamped into collection metadata so a serving
	// process can detect that the index was built with a different
	// provider.
	Fingerprint() string
}
