package vectorindex

import "context"

// Payload is the metadata stored alongside each vector. The same payload
// is recorded in the chunk metadata table, linked by the point ID.
type Payload struct {
	DocumentID   string
	DocumentName string
	Text         string
	PageNumber   int
	Owner        string
}

// Point is one vector index entry: an embedded chunk with its payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// Match is a search hit ordered by descending similarity.
type Match struct {
	ID         string
	Similarity float32
	Payload    Payload
}

// Index is the vector similarity index over the configured collection.
// Implementations must use cosine distance and create the collection on
// first use with the embedder's dimensionality.
type Index interface {
	// Ensure creates the collection if it does not exist yet.
	Ensure(ctx context.Context, dimensions int) error

	// Upsert writes points into the collection.
	Upsert(ctx context.Context, points []Point) error

	// Search returns up to k matches ordered by descending similarity.
	// An unavailable index returns an error; an empty result slice with
	// a nil error means the corpus genuinely had no matches.
	Search(ctx context.Context, vector []float32, k int) ([]Match, error)

	// DeleteByDocument removes every point belonging to the document.
	DeleteByDocument(ctx context.Context, documentID string) error
}
