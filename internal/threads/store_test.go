package threads

import (
	"context"
	"testing"

	"github.com/casefind/casefind/internal/db"
	"github.com/casefind/casefind/internal/llm"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestCreateAndGetThread(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	created, err := store.CreateThread(ctx, "What is adverse possession?", "alice")
	if err != nil {
		t.Fatalf("creating thread: %v", err)
	}

	got, err := store.GetThread(ctx, created.ID)
	if err != nil {
		t.Fatalf("getting thread: %v", err)
	}
	if got == nil {
		t.Fatal("expected thread, got nil")
	}
	if got.Title != "What is adverse possession?" {
		t.Errorf("title = %q, want %q", got.Title, "What is adverse possession?")
	}
	if got.Owner != "alice" {
		t.Errorf("owner = %q, want 'alice'", got.Owner)
	}
}

func TestGetMissingThreadReturnsNil(t *testing.T) {
	store := setupStore(t)

	got, err := store.GetThread(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing thread, got %+v", got)
	}
}

func TestAppendAndHistoryRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	thread, err := store.CreateThread(ctx, "test", "")
	if err != nil {
		t.Fatalf("creating thread: %v", err)
	}

	msgs := []llm.Message{
		{Role: llm.RoleUser, Content: "What is the limitation period for contracts?"},
		{
			Role: llm.RoleAssistant,
			ToolCalls: []llm.ToolCall{
				{ID: "call-1", Name: "search_legal_documents", Arguments: `{"query":"limitation period contracts"}`},
			},
		},
		{Role: llm.RoleTool, Content: "Source: Limitation_Act.pdf", ToolCallID: "call-1", ToolName: "search_legal_documents"},
		{Role: llm.RoleAssistant, Content: "Six years. Source: Limitation_Act.pdf"},
	}

	if err := store.AppendMessages(ctx, thread.ID, msgs); err != nil {
		t.Fatalf("appending messages: %v", err)
	}

	history, err := store.History(ctx, thread.ID)
	if err != nil {
		t.Fatalf("loading history: %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(history))
	}

	if history[1].Role != llm.RoleAssistant {
		t.Errorf("message 1 role = %q, want assistant", history[1].Role)
	}
	if len(history[1].ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call on message 1, got %d", len(history[1].ToolCalls))
	}
	if history[1].ToolCalls[0].Name != "search_legal_documents" {
		t.Errorf("tool call name = %q", history[1].ToolCalls[0].Name)
	}
	if history[2].ToolCallID != "call-1" {
		t.Errorf("tool message ToolCallID = %q, want 'call-1'", history[2].ToolCallID)
	}
	if history[2].ToolName != "search_legal_documents" {
		t.Errorf("tool message ToolName = %q", history[2].ToolName)
	}
}

func TestAppendAssignsSequentialSeq(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	thread, err := store.CreateThread(ctx, "test", "")
	if err != nil {
		t.Fatalf("creating thread: %v", err)
	}

	first := []llm.Message{{Role: llm.RoleUser, Content: "one"}}
	second := []llm.Message{{Role: llm.RoleAssistant, Content: "two"}, {Role: llm.RoleUser, Content: "three"}}

	if err := store.AppendMessages(ctx, thread.ID, first); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := store.AppendMessages(ctx, thread.ID, second); err != nil {
		t.Fatalf("second append: %v", err)
	}

	stored, err := store.GetMessages(ctx, thread.ID)
	if err != nil {
		t.Fatalf("getting messages: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(stored))
	}
	for i, m := range stored {
		if m.Seq != i+1 {
			t.Errorf("message %d seq = %d, want %d", i, m.Seq, i+1)
		}
	}
}

func TestDeleteThreadCascadesMessages(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	thread, err := store.CreateThread(ctx, "test", "")
	if err != nil {
		t.Fatalf("creating thread: %v", err)
	}
	if err := store.AppendMessages(ctx, thread.ID, []llm.Message{{Role: llm.RoleUser, Content: "hi"}}); err != nil {
		t.Fatalf("appending: %v", err)
	}

	if err := store.DeleteThread(ctx, thread.ID); err != nil {
		t.Fatalf("deleting thread: %v", err)
	}

	stored, err := store.GetMessages(ctx, thread.ID)
	if err != nil {
		t.Fatalf("getting messages: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("expected no messages after thread delete, got %d", len(stored))
	}
}
