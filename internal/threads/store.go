package threads

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/casefind/casefind/internal/db"
	"github.com/casefind/casefind/internal/llm"
)

// Store manages persistence of conversation threads.
type Store struct {
	db *db.DB
}

// NewStore creates a new thread store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// CreateThread creates a new thread with the given title and owner.
func (s *Store) CreateThread(ctx context.Context, title, owner string) (*Thread, error) {
	now := time.Now().UTC()
	t := Thread{
		ID:        uuid.New().String(),
		Title:     title,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO threads (id, title, owner, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Owner, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating thread: %w", err)
	}
	return &t, nil
}

// GetThread retrieves a thread by ID. Returns nil if not found.
func (s *Store) GetThread(ctx context.Context, id string) (*Thread, error) {
	var t Thread
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, owner, created_at, updated_at FROM threads WHERE id = ?`, id,
	).Scan(&t.ID, &t.Title, &t.Owner, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting thread: %w", err)
	}
	return &t, nil
}

// ListThreads returns all threads, most recently updated first.
func (s *Store) ListThreads(ctx context.Context) ([]Thread, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, owner, created_at, updated_at FROM threads ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying threads: %w", err)
	}
	defer rows.Close()

	var out []Thread
	for rows.Next() {
		var t Thread
		if err := rows.Scan(&t.ID, &t.Title, &t.Owner, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning thread: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteThread removes a thread and its messages.
func (s *Store) DeleteThread(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting thread: %w", err)
	}
	return nil
}

// AppendMessages appends messages to a thread in order, assigning
// sequence numbers after the current maximum. All messages are written
// in one transaction so a failed reasoning turn leaves no partial
// history behind.
func (s *Store) AppendMessages(ctx context.Context, threadID string, msgs []llm.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM thread_messages WHERE thread_id = ?`, threadID,
	).Scan(&seq)
	if err != nil {
		return fmt.Errorf("reading message sequence: %w", err)
	}

	now := time.Now().UTC()
	for _, m := range msgs {
		seq++
		toolCalls := ""
		if len(m.ToolCalls) > 0 {
			b, err := json.Marshal(m.ToolCalls)
			if err != nil {
				return fmt.Errorf("encoding tool calls: %w", err)
			}
			toolCalls = string(b)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO thread_messages (id, thread_id, seq, role, content, tool_calls, tool_call_id, tool_name, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), threadID, seq, string(m.Role), m.Content, toolCalls, m.ToolCallID, m.ToolName, now,
		)
		if err != nil {
			return fmt.Errorf("inserting message: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `UPDATE threads SET updated_at = ? WHERE id = ?`, now, threadID)
	if err != nil {
		return fmt.Errorf("updating thread timestamp: %w", err)
	}

	return tx.Commit()
}

// GetMessages returns all messages for a thread in sequence order.
func (s *Store) GetMessages(ctx context.Context, threadID string) ([]StoredMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, thread_id, seq, role, content, tool_calls, tool_call_id, tool_name, created_at
		 FROM thread_messages WHERE thread_id = ? ORDER BY seq ASC`,
		threadID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var out []StoredMessage
	for rows.Next() {
		var m StoredMessage
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.Seq, &m.Role, &m.Content, &m.ToolCalls, &m.ToolCallID, &m.ToolName, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// History returns a thread's messages converted to llm.Message form,
// ready to prepend to a new reasoning turn.
func (s *Store) History(ctx context.Context, threadID string) ([]llm.Message, error) {
	stored, err := s.GetMessages(ctx, threadID)
	if err != nil {
		return nil, err
	}

	out := make([]llm.Message, 0, len(stored))
	for _, m := range stored {
		msg := llm.Message{
			Role:       llm.Role(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			ToolName:   m.ToolName,
		}
		if m.ToolCalls != "" {
			if err := json.Unmarshal([]byte(m.ToolCalls), &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("decoding tool calls for message %s: %w", m.ID, err)
			}
		}
		out = append(out, msg)
	}
	return out, nil
}
