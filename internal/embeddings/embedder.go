package embeddings

import "context"

// Embedder defines the interface for generating text embeddings.
type Embedder interface {
	// Embed generates document-side embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates a query-side embedding for a single text.
	// Some providers distinguish document and query task types; the
	// dimensionality is always identical to Embed's.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}
