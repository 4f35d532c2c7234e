package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/casefind/casefind/internal/db"
)

// Store provides read and append operations for the audit trail.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log inserts a new audit entry. If entry.ID is empty a UUID is generated.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (id, timestamp, action, subject_id, actor, summary, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp,
		string(entry.Action),
		entry.SubjectID,
		entry.Actor,
		entry.Summary,
		entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// Record logs an entry and only reports failures to the log. The audit
// trail must never break the operation it describes.
func (s *Store) Record(ctx context.Context, entry Entry) {
	if err := s.Log(ctx, entry); err != nil {
		log.Printf("audit: recording %s failed: %v", entry.Action, err)
	}
}

// GetByID retrieves a single audit entry. Returns nil if not found.
func (s *Store) GetByID(ctx context.Context, id string) (*Entry, error) {
	var e Entry
	var action string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, timestamp, action, subject_id, actor, summary, detail
		FROM audit_entries WHERE id = ?`, id,
	).Scan(&e.ID, &e.Timestamp, &action, &e.SubjectID, &e.Actor, &e.Summary, &e.Detail)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting audit entry: %w", err)
	}
	e.Action = Action(action)
	return &e, nil
}

// QueryFilter controls which audit entries are returned by Query.
type QueryFilter struct {
	Action    Action
	SubjectID string
	Actor     string
	Since     *time.Time
	Until     *time.Time
	Limit     int
	Offset    int
}

// Query returns audit entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.Action != "" {
		clauses = append(clauses, "action = ?")
		args = append(args, string(filter.Action))
	}
	if filter.SubjectID != "" {
		clauses = append(clauses, "subject_id = ?")
		args = append(args, filter.SubjectID)
	}
	if filter.Actor != "" {
		clauses = append(clauses, "actor = ?")
		args = append(args, filter.Actor)
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC())
	}
	if filter.Until != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, filter.Until.UTC())
	}

	query := "SELECT id, timestamp, action, subject_id, actor, summary, detail FROM audit_entries"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var action string
		if err := rows.Scan(&e.ID, &e.Timestamp, &action, &e.SubjectID, &e.Actor, &e.Summary, &e.Detail); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.Action = Action(action)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteBefore removes all audit entries older than the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM audit_entries WHERE timestamp < ?",
		before.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old audit entries: %w", err)
	}
	return res.RowsAffected()
}
