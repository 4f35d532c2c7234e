package documents

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/casefind/casefind/internal/db"
)

// Store manages document records in SQLite.
type Store struct {
	db *db.DB
}

// NewStore creates a document store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a new record with status processing.
func (s *Store) Create(ctx context.Context, title, storedName, owner string) (*Document, error) {
	doc := Document{
		ID:         uuid.New().String(),
		Title:      title,
		StoredName: storedName,
		Owner:      owner,
		Status:     StatusProcessing,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, title, stored_name, owner, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.StoredName, doc.Owner, doc.Status, doc.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}
	return &doc, nil
}

// GetByID retrieves a record, or nil if absent.
func (s *Store) GetByID(ctx context.Context, id string) (*Document, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT id, title, stored_name, owner, status, chunk_count, error, created_at, processed_at
		 FROM documents WHERE id = ?`, id))
}

// GetByStoredName retrieves a record by its stored filename, or nil if absent.
func (s *Store) GetByStoredName(ctx context.Context, storedName string) (*Document, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT id, title, stored_name, owner, status, chunk_count, error, created_at, processed_at
		 FROM documents WHERE stored_name = ?`, storedName))
}

// List returns all records, newest first.
func (s *Store) List(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, stored_name, owner, status, chunk_count, error, created_at, processed_at
		 FROM documents ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// MarkReady transitions a processing record to ready. A record already in
// a terminal state is left untouched and an error is returned, keeping
// status transitions monotone.
func (s *Store) MarkReady(ctx context.Context, id string, chunkCount int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, chunk_count = ?, processed_at = ?
		 WHERE id = ? AND status = ?`,
		StatusReady, chunkCount, time.Now().UTC(), id, StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("marking document ready: %w", err)
	}
	return requireTransition(res, id)
}

// MarkFailed transitions a processing record to failed with the error text.
func (s *Store) MarkFailed(ctx context.Context, id string, cause string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, error = ?, processed_at = ?
		 WHERE id = ? AND status = ?`,
		StatusFailed, cause, time.Now().UTC(), id, StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("marking document failed: %w", err)
	}
	return requireTransition(res, id)
}

// Delete removes a record. Vector points and chunk metadata are the
// caller's responsibility (see vectorindex.Writer.DeleteDocument).
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

func requireTransition(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("document %s is not in processing state", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanOne(row *sql.Row) (*Document, error) {
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return doc, err
}

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var processedAt sql.NullTime
	err := row.Scan(&doc.ID, &doc.Title, &doc.StoredName, &doc.Owner, &doc.Status,
		&doc.ChunkCount, &doc.Error, &doc.CreatedAt, &processedAt)
	if err != nil {
		return nil, err
	}
	if processedAt.Valid {
		doc.ProcessedAt = &processedAt.Time
	}
	return &doc, nil
}
