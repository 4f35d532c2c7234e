package vectorindex

import (
	"context"
	"fmt"
	"strconv"

	chromem "github.com/philippgille/chromem-go"
)

// ChromemIndex implements Index using an embedded chromem-go database.
// Vectors are supplied precomputed, so no embedding function is wired;
// chromem only ranks by cosine similarity. Useful for local runs and tests
// where an external Qdrant is not available.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
}

// NewChromemIndex creates an in-memory chromem-backed index.
func NewChromemIndex(collection string) *ChromemIndex {
	return &ChromemIndex{
		db:   chromem.NewDB(),
		name: collection,
	}
}

// noEmbedFunc guards against accidental text queries: every point in this
// index carries a precomputed vector.
func noEmbedFunc(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("chromem index stores precomputed vectors only")
}

func (x *ChromemIndex) Ensure(ctx context.Context, dimensions int) error {
	if x.collection != nil {
		return nil
	}
	col, err := x.db.GetOrCreateCollection(x.name, nil, noEmbedFunc)
	if err != nil {
		return fmt.Errorf("create collection %q: %w", x.name, err)
	}
	x.collection = col
	return nil
}

func (x *ChromemIndex) Upsert(ctx context.Context, points []Point) error {
	if x.collection == nil {
		return fmt.Errorf("collection %q not initialized", x.name)
	}
	if len(points) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(points))
	for i, p := range points {
		docs[i] = chromem.Document{
			ID:        p.ID,
			Content:   p.Payload.Text,
			Embedding: p.Vector,
			Metadata:  payloadToMap(p.Payload),
		}
	}
	return x.collection.AddDocuments(ctx, docs, 1)
}

func (x *ChromemIndex) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if x.collection == nil {
		return nil, fmt.Errorf("collection %q not initialized", x.name)
	}
	if k <= 0 {
		k = 10
	}

	// chromem-go requires nResults <= collection size.
	count := x.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := x.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{
			ID:         r.ID,
			Similarity: r.Similarity,
			Payload:    mapToPayload(r.Metadata, r.Content),
		}
	}
	return matches, nil
}

func (x *ChromemIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	if x.collection == nil {
		return nil
	}
	return x.collection.Delete(ctx, map[string]string{"document_id": documentID}, nil)
}

// payloadToMap converts a Payload to the flat map[string]string chromem stores.
func payloadToMap(p Payload) map[string]string {
	return map[string]string{
		"document_id":   p.DocumentID,
		"document_name": p.DocumentName,
		"page_number":   strconv.Itoa(p.PageNumber),
		"owner":         p.Owner,
	}
}

// mapToPayload converts a flat map[string]string back to a Payload.
func mapToPayload(m map[string]string, content string) Payload {
	page, _ := strconv.Atoi(m["page_number"])
	return Payload{
		DocumentID:   m["document_id"],
		DocumentName: m["document_name"],
		Text:         content,
		PageNumber:   page,
		Owner:        m["owner"],
	}
}
