package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/casefind/casefind/internal/agent"
	"github.com/casefind/casefind/internal/cache"
	"github.com/casefind/casefind/internal/db"
	"github.com/casefind/casefind/internal/llm"
	"github.com/casefind/casefind/internal/threads"
)

// scriptedProvider pops canned responses in order.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []*llm.CompletionResponse
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.responses) == 0 {
		return &llm.CompletionResponse{Content: "exhausted"}, nil
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	return resp, nil
}

// cannedTool returns a fixed result for every call.
type cannedTool struct {
	name   string
	result string
}

func (t cannedTool) Definition() llm.Tool {
	return llm.Tool{Name: t.name, Description: "canned"}
}

func (t cannedTool) Execute(ctx context.Context, arguments string) string {
	return t.result
}

type fixture struct {
	orch    *Orchestrator
	threads *threads.Store
}

func setup(t *testing.T, provider llm.Provider, tool agent.Tool) fixture {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	threadStore := threads.NewStore(database)
	answerCache := cache.NewAnswerCache(cache.NewMemoryStore(), time.Minute, 0)

	var tools []agent.Tool
	if tool != nil {
		tools = append(tools, tool)
	}
	loop := agent.NewLoop(provider, tools, agent.Options{MaxIterations: 6, Timeout: time.Minute})

	return fixture{
		orch:    NewOrchestrator(loop, answerCache, threadStore, nil),
		threads: threadStore,
	}
}

func newThread(t *testing.T, f fixture) string {
	t.Helper()
	thread, err := f.threads.CreateThread(context.Background(), "test", "")
	if err != nil {
		t.Fatalf("creating thread: %v", err)
	}
	return thread.ID
}

func TestAnswerAttributesCitedDocument(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{{ID: "c1", Name: "search_legal_documents", Arguments: `{"query":"limitation period"}`}}},
		{Content: "The limitation period for simple contracts is six years. Source: Limitation_Act.pdf"},
	}}
	tool := cannedTool{
		name:   "search_legal_documents",
		result: "Source: Limitation_Act.pdf\nPage: 3\nContent: Actions founded on simple contract shall not be brought after six years.",
	}
	f := setup(t, provider, tool)
	threadID := newThread(t, f)

	result, err := f.orch.Answer(context.Background(), "What is the limitation period for contracts?", threadID)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}

	if result.Source != "Document: Limitation_Act.pdf" {
		t.Errorf("Source = %q, want 'Document: Limitation_Act.pdf'", result.Source)
	}
	if result.Link != "/api/view-pdf/Limitation_Act.pdf" {
		t.Errorf("Link = %q", result.Link)
	}
	if result.Truncated {
		t.Error("unexpected truncation")
	}
}

func TestAnswerFallsBackToLLMSource(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.CompletionResponse{
		{Content: "A tort is a civil wrong."},
	}}
	f := setup(t, provider, nil)
	threadID := newThread(t, f)

	result, err := f.orch.Answer(context.Background(), "What is a tort?", threadID)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if result.Source != "llm" {
		t.Errorf("Source = %q, want 'llm'", result.Source)
	}
	if result.Link != "" {
		t.Errorf("Link = %q, want empty", result.Link)
	}
}

func TestAnswerUsesCacheOnRepeat(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.CompletionResponse{
		{Content: "first answer"},
	}}
	f := setup(t, provider, nil)
	threadID := newThread(t, f)
	ctx := context.Background()

	first, err := f.orch.Answer(ctx, "What is a tort?", threadID)
	if err != nil {
		t.Fatalf("first Answer: %v", err)
	}
	if first.Source == "cache" {
		t.Fatal("first answer should not come from cache")
	}

	// Same query modulo case hits the cache; the exhausted provider would
	// otherwise return a different answer.
	second, err := f.orch.Answer(ctx, "  what is a TORT?  ", threadID)
	if err != nil {
		t.Fatalf("second Answer: %v", err)
	}
	if second.Source != "cache" {
		t.Errorf("second Source = %q, want 'cache'", second.Source)
	}
	if second.Answer != "first answer" {
		t.Errorf("second Answer = %q, want 'first answer'", second.Answer)
	}
}

func TestAnswerPersistsTurns(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.CompletionResponse{
		{ToolCalls: []llm.ToolCall{{ID: "c1", Name: "search_legal_documents", Arguments: `{"query":"q"}`}}},
		{Content: "answer. Source: Evidence_Act.pdf"},
	}}
	tool := cannedTool{name: "search_legal_documents", result: "Source: Evidence_Act.pdf\nPage: 1\nContent: text"}
	f := setup(t, provider, tool)
	threadID := newThread(t, f)

	if _, err := f.orch.Answer(context.Background(), "question", threadID); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	msgs, err := f.threads.GetMessages(context.Background(), threadID)
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	// user, assistant(tool call), tool result, assistant(answer)
	if len(msgs) != 4 {
		t.Fatalf("expected 4 persisted messages, got %d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[3].Role != "assistant" {
		t.Errorf("unexpected roles: first %q last %q", msgs[0].Role, msgs[3].Role)
	}
}

func TestCitationPattern(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Source: Limitation_Act.pdf", "Limitation_Act.pdf"},
		{"see Source:   my-doc.pdf for details", "my-doc.pdf"},
		{"Source: not a pdf", ""},
		{"no citation here", ""},
	}

	for _, tt := range tests {
		m := citationPattern.FindStringSubmatch(tt.text)
		got := ""
		if m != nil {
			got = m[1]
		}
		if got != tt.want {
			t.Errorf("citation in %q = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestLastCitedDocumentScansBackward(t *testing.T) {
	turns := []llm.Message{
		{Role: llm.RoleUser, Content: "q"},
		{Role: llm.RoleTool, Content: "Source: First.pdf\nPage: 1\nContent: a"},
		{Role: llm.RoleTool, Content: "Source: Second.pdf\nPage: 2\nContent: b"},
		{Role: llm.RoleAssistant, Content: "answer"},
	}

	file, ok := lastCitedDocument(turns)
	if !ok {
		t.Fatal("expected a citation")
	}
	if file != "Second.pdf" {
		t.Errorf("file = %q, want 'Second.pdf' (most recent tool turn wins)", file)
	}
}

func TestChatRouteCreatesThread(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.CompletionResponse{
		{Content: "answer"},
	}}
	f := setup(t, provider, nil)

	r := chi.NewRouter()
	RegisterRoutes(r, f.orch, f.threads)

	longMessage := strings.Repeat("What is the statute of limitations for torts? ", 3)
	body, _ := json.Marshal(chatRequest{Message: longMessage})

	req := httptest.NewRequest(http.MethodPost, "/api/assistant/chat", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp chatResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ThreadID == "" {
		t.Fatal("expected a new thread ID")
	}
	if resp.Answer != "answer" {
		t.Errorf("answer = %q", resp.Answer)
	}

	thread, err := f.threads.GetThread(context.Background(), resp.ThreadID)
	if err != nil || thread == nil {
		t.Fatalf("thread not created: %v", err)
	}
	if len(thread.Title) > 50 {
		t.Errorf("title length = %d, want <= 50", len(thread.Title))
	}
}

func TestTitleForTruncatesOnRuneBoundary(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{"ascii", strings.Repeat("limitation period ", 10)},
		{"accented", strings.Repeat("prescription trentenaire é ", 5)},
		{"greek", strings.Repeat("παραγραφή αξιώσεων ", 5)},
		{"cjk", strings.Repeat("訴訟時効について教えて", 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title := titleFor(tt.message)
			if !utf8.ValidString(title) {
				t.Errorf("titleFor produced invalid UTF-8: %q", title)
			}
			if n := utf8.RuneCountInString(title); n > maxTitleLen {
				t.Errorf("title is %d runes, want at most %d", n, maxTitleLen)
			}
		})
	}
}

func TestDeleteThreadReapsLock(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.CompletionResponse{
		{Content: "answer"},
	}}
	f := setup(t, provider, nil)
	threadID := newThread(t, f)

	if _, err := f.orch.Answer(context.Background(), "q", threadID); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	f.orch.mu.Lock()
	_, held := f.orch.locks[threadID]
	f.orch.mu.Unlock()
	if !held {
		t.Fatal("expected a lock entry after answering")
	}

	r := chi.NewRouter()
	RegisterRoutes(r, f.orch, f.threads)

	req := httptest.NewRequest(http.MethodDelete, "/api/assistant/threads/"+threadID, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	f.orch.mu.Lock()
	_, held = f.orch.locks[threadID]
	f.orch.mu.Unlock()
	if held {
		t.Error("lock entry should be removed with the thread")
	}
}

func TestChatRouteRejectsUnknownThread(t *testing.T) {
	f := setup(t, &scriptedProvider{}, nil)

	r := chi.NewRouter()
	RegisterRoutes(r, f.orch, f.threads)

	body, _ := json.Marshal(chatRequest{ThreadID: "missing", Message: "hi"})
	req := httptest.NewRequest(http.MethodPost, "/api/assistant/chat", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
