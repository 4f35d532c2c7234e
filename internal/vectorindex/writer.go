package vectorindex

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/casefind/casefind/internal/chunker"
)

// Writer dual-writes embedded chunks: the vector goes to the Index, the
// payload twin goes to the chunk metadata store, both under the same
// freshly generated point ID.
//
// The two writes are not transactional. An index failure aborts the
// ingestion job; a metadata failure is logged and tolerated, leaving the
// relational side to catch up on the next reingest. Delete-by-document
// stays consistent because both sides key on document_id.
type Writer struct {
	index  Index
	chunks *ChunkStore
}

// NewWriter creates a dual-store writer.
func NewWriter(index Index, chunks *ChunkStore) *Writer {
	return &Writer{index: index, chunks: chunks}
}

// Write persists one document's embedded chunks and returns the number of
// points inserted. Chunks and vectors are parallel slices.
func (w *Writer) Write(ctx context.Context, documentID, documentName, owner string, chunks []chunker.Chunk, vectors [][]float32) (int, error) {
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	points := make([]Point, len(chunks))
	records := make([]ChunkRecord, len(chunks))
	for i, c := range chunks {
		pointID := uuid.New().String()
		payload := Payload{
			DocumentID:   documentID,
			DocumentName: documentName,
			Text:         c.Text,
			PageNumber:   c.PageNumber,
			Owner:        owner,
		}
		points[i] = Point{ID: pointID, Vector: vectors[i], Payload: payload}
		records[i] = ChunkRecord{
			PointID:      pointID,
			DocumentID:   documentID,
			DocumentName: documentName,
			PageNumber:   c.PageNumber,
			Owner:        owner,
			Text:         c.Text,
		}
	}

	if err := w.index.Upsert(ctx, points); err != nil {
		return 0, fmt.Errorf("upserting %d points for %s: %w", len(points), documentName, err)
	}

	// Best-effort metadata write; the vector index is the source of truth
	// for retrieval.
	if err := w.chunks.Insert(ctx, records); err != nil {
		log.Printf("vectorindex: chunk metadata write for %s failed: %v", documentName, err)
	}

	return len(points), nil
}

// DeleteDocument removes a document's points from both stores.
func (w *Writer) DeleteDocument(ctx context.Context, documentID string) error {
	if err := w.index.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("deleting points for document %s: %w", documentID, err)
	}
	if err := w.chunks.DeleteByDocument(ctx, documentID); err != nil {
		log.Printf("vectorindex: chunk metadata delete for %s failed: %v", documentID, err)
	}
	return nil
}
