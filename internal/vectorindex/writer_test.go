package vectorindex

import (
	"context"
	"testing"

	"github.com/casefind/casefind/internal/chunker"
	"github.com/casefind/casefind/internal/db"
)

func setupWriter(t *testing.T) (*Writer, *ChromemIndex, *ChunkStore) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	index := NewChromemIndex("legal_knowledge")
	if err := index.Ensure(context.Background(), 3); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	chunks := NewChunkStore(database)
	return NewWriter(index, chunks), index, chunks
}

func TestWriterDualWrite(t *testing.T) {
	writer, index, store := setupWriter(t)
	ctx := context.Background()

	chunks := []chunker.Chunk{
		{Text: "limitation period is ninety days", PageNumber: 1},
		{Text: "condonation of delay under section 5", PageNumber: 2},
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
	}

	n, err := writer.Write(ctx, "doc-1", "Limitation_Act.pdf", "alice@example.com", chunks, vectors)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted = %d, want 2", n)
	}

	// Vector side is searchable.
	matches, err := index.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
	if matches[0].Payload.DocumentName != "Limitation_Act.pdf" {
		t.Errorf("document_name = %q", matches[0].Payload.DocumentName)
	}
	if matches[0].Payload.PageNumber != 1 {
		t.Errorf("best match page = %d, want 1", matches[0].Payload.PageNumber)
	}

	// Metadata side carries the same point IDs.
	records, err := store.ListByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("ListByDocument: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	ids := map[string]bool{matches[0].ID: true, matches[1].ID: true}
	for _, rec := range records {
		if !ids[rec.PointID] {
			t.Errorf("metadata point_id %s has no vector index twin", rec.PointID)
		}
		if rec.Owner != "alice@example.com" {
			t.Errorf("owner = %q", rec.Owner)
		}
	}
}

func TestWriterLengthMismatch(t *testing.T) {
	writer, _, _ := setupWriter(t)

	_, err := writer.Write(context.Background(), "doc-1", "a.pdf", "",
		[]chunker.Chunk{{Text: "x", PageNumber: 1}}, nil)
	if err == nil {
		t.Fatal("expected error for mismatched chunks/vectors")
	}
}

func TestWriterDeleteDocument(t *testing.T) {
	writer, index, store := setupWriter(t)
	ctx := context.Background()

	chunks := []chunker.Chunk{{Text: "some text", PageNumber: 1}}
	if _, err := writer.Write(ctx, "doc-1", "a.pdf", "", chunks, [][]float32{{0, 0, 1}}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := writer.DeleteDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}

	matches, err := index.Search(ctx, []float32{0, 0, 1}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("matches after delete = %d, want 0", len(matches))
	}

	n, err := store.CountByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("CountByDocument: %v", err)
	}
	if n != 0 {
		t.Errorf("metadata rows after delete = %d, want 0", n)
	}
}
