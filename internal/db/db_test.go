package db

import (
	"path/filepath"
	"testing"
)

func TestOpenCreatesDatabaseAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "casefind.db")

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	for _, table := range []string{"documents", "chunks", "threads", "thread_messages", "audit_entries"} {
		var name string
		err := d.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing after migration: %v", table, err)
		}
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "casefind.db")

	d1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	d1.Close()

	d2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	d2.Close()
}

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	if _, err := d.Exec("INSERT INTO threads (id, title) VALUES ('t1', 'test')"); err != nil {
		t.Fatalf("inserting thread: %v", err)
	}

	var title string
	if err := d.QueryRow("SELECT title FROM threads WHERE id = 't1'").Scan(&title); err != nil {
		t.Fatalf("querying thread: %v", err)
	}
	if title != "test" {
		t.Errorf("expected title 'test', got %q", title)
	}
}

func TestForeignKeyCascade(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	if _, err := d.Exec("INSERT INTO threads (id) VALUES ('t1')"); err != nil {
		t.Fatalf("inserting thread: %v", err)
	}
	if _, err := d.Exec("INSERT INTO thread_messages (id, thread_id, seq, role, content) VALUES ('m1', 't1', 1, 'user', 'hi')"); err != nil {
		t.Fatalf("inserting message: %v", err)
	}

	if _, err := d.Exec("DELETE FROM threads WHERE id = 't1'"); err != nil {
		t.Fatalf("deleting thread: %v", err)
	}

	var count int
	if err := d.QueryRow("SELECT COUNT(*) FROM thread_messages").Scan(&count); err != nil {
		t.Fatalf("counting messages: %v", err)
	}
	if count != 0 {
		t.Errorf("expected cascade to remove messages, %d remain", count)
	}
}

func TestStatusCheckConstraint(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	_, err = d.Exec("INSERT INTO documents (id, title, stored_name, status) VALUES ('d1', 'x', 'x.pdf', 'bogus')")
	if err == nil {
		t.Error("expected CHECK constraint to reject unknown status")
	}
}
