package vectorindex

import (
	"context"
	"fmt"
	"time"

	"github.com/casefind/casefind/internal/db"
)

// ChunkRecord mirrors one vector index point in the relational metadata
// store, for audit, listing and delete-by-document.
type ChunkRecord struct {
	PointID      string    `json:"point_id"`
	DocumentID   string    `json:"document_id"`
	DocumentName string    `json:"document_name"`
	PageNumber   int       `json:"page_number"`
	Owner        string    `json:"owner"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChunkStore persists chunk metadata in SQLite.
type ChunkStore struct {
	db *db.DB
}

// NewChunkStore creates a chunk metadata store.
func NewChunkStore(database *db.DB) *ChunkStore {
	return &ChunkStore{db: database}
}

// Insert writes the metadata twins of a batch of index points.
func (s *ChunkStore) Insert(ctx context.Context, records []ChunkRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunk insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (point_id, document_id, document_name, page_number, owner, text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.PointID, rec.DocumentID, rec.DocumentName, rec.PageNumber, rec.Owner, rec.Text, now,
		); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", rec.PointID, err)
		}
	}

	return tx.Commit()
}

// ListByDocument returns the chunk metadata rows for one document,
// ordered by page.
func (s *ChunkStore) ListByDocument(ctx context.Context, documentID string) ([]ChunkRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT point_id, document_id, document_name, page_number, owner, text, created_at
		 FROM chunks WHERE document_id = ? ORDER BY page_number`, documentID)
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	defer rows.Close()

	var records []ChunkRecord
	for rows.Next() {
		var rec ChunkRecord
		if err := rows.Scan(&rec.PointID, &rec.DocumentID, &rec.DocumentName, &rec.PageNumber, &rec.Owner, &rec.Text, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountByDocument returns how many chunks are recorded for the document.
func (s *ChunkStore) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunks WHERE document_id = ?`, documentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// DeleteByDocument removes the metadata rows for one document.
func (s *ChunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}
