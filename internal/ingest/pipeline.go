package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/casefind/casefind/internal/audit"
	"github.com/casefind/casefind/internal/chunker"
	"github.com/casefind/casefind/internal/documents"
	"github.com/casefind/casefind/internal/embeddings"
	"github.com/casefind/casefind/internal/extract"
	"github.com/casefind/casefind/internal/vectorindex"
)

// Pipeline turns an uploaded PDF into searchable chunks: extract page
// text, window into overlapping chunks, embed, and dual-write to the
// vector index and the chunk metadata table. The document finishes in
// exactly one of the ready or failed states.
type Pipeline struct {
	extractor    extract.Extractor
	embedder     embeddings.Embedder
	writer       *vectorindex.Writer
	index        vectorindex.Index
	docs         *documents.Store
	audit        *audit.Store
	overlapRatio float64
}

// NewPipeline wires the ingestion stages. audit may be nil.
func NewPipeline(
	extractor extract.Extractor,
	embedder embeddings.Embedder,
	writer *vectorindex.Writer,
	index vectorindex.Index,
	docs *documents.Store,
	auditStore *audit.Store,
	overlapRatio float64,
) *Pipeline {
	return &Pipeline{
		extractor:    extractor,
		embedder:     embedder,
		writer:       writer,
		index:        index,
		docs:         docs,
		audit:        auditStore,
		overlapRatio: overlapRatio,
	}
}

// Enqueue starts ingestion of doc in the background. The upload request
// that triggered it has already returned; completion is observed by
// polling the document status.
func (p *Pipeline) Enqueue(doc documents.Document, filePath string) {
	go func() {
		ctx := context.Background()
		if err := p.Process(ctx, doc, filePath); err != nil {
			log.Printf("ingest: document %s (%s) failed: %v", doc.ID, doc.StoredName, err)
		}
	}()
}

// Process runs the full pipeline for one document synchronously. On any
// failure the document is marked failed with the cause and nothing is
// persisted to the index.
func (p *Pipeline) Process(ctx context.Context, doc documents.Document, filePath string) error {
	start := time.Now()

	chunkCount, err := p.run(ctx, doc, filePath)
	if err != nil {
		if markErr := p.docs.MarkFailed(ctx, doc.ID, err.Error()); markErr != nil {
			log.Printf("ingest: marking %s failed: %v", doc.ID, markErr)
		}
		if p.audit != nil {
			p.audit.Record(ctx, audit.Entry{
				Action:    audit.ActionDocumentFailed,
				SubjectID: doc.ID,
				Actor:     "ingest",
				Summary:   doc.StoredName,
				Detail:    err.Error(),
			})
		}
		return err
	}

	if err := p.docs.MarkReady(ctx, doc.ID, chunkCount); err != nil {
		return fmt.Errorf("marking document ready: %w", err)
	}

	log.Printf("ingest: document %s ready, %d chunks in %s", doc.StoredName, chunkCount, time.Since(start).Round(time.Millisecond))
	if p.audit != nil {
		p.audit.Record(ctx, audit.Entry{
			Action:    audit.ActionDocumentIngested,
			SubjectID: doc.ID,
			Actor:     "ingest",
			Summary:   doc.StoredName,
			Detail:    fmt.Sprintf("%d chunks", chunkCount),
		})
	}
	return nil
}

func (p *Pipeline) run(ctx context.Context, doc documents.Document, filePath string) (int, error) {
	pages, err := p.extractor.ExtractPages(ctx, filePath)
	if err != nil {
		return 0, fmt.Errorf("extracting text: %w", err)
	}

	chunkPages := make([]chunker.PageText, len(pages))
	for i, pg := range pages {
		chunkPages[i] = chunker.PageText{Page: pg.Page, Text: pg.Text}
	}

	chunks := chunker.ChunkPages(chunkPages, p.overlapRatio)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no extractable text in document")
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding chunks: %w", err)
	}

	if err := p.index.Ensure(ctx, p.embedder.Dimensions()); err != nil {
		return 0, fmt.Errorf("ensuring collection: %w", err)
	}

	count, err := p.writer.Write(ctx, doc.ID, doc.StoredName, doc.Owner, chunks, vectors)
	if err != nil {
		return 0, fmt.Errorf("writing chunks: %w", err)
	}
	return count, nil
}

// embed calls the embedder, retrying once on failure before giving up.
func (p *Pipeline) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := p.embedder.Embed(ctx, texts)
	if err == nil {
		return vectors, nil
	}
	log.Printf("ingest: embed failed, retrying once: %v", err)

	vectors, retryErr := p.embedder.Embed(ctx, texts)
	if retryErr != nil {
		return nil, retryErr
	}
	return vectors, nil
}
