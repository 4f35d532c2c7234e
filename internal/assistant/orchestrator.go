package assistant

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/casefind/casefind/internal/agent"
	"github.com/casefind/casefind/internal/audit"
	"github.com/casefind/casefind/internal/cache"
	"github.com/casefind/casefind/internal/llm"
	"github.com/casefind/casefind/internal/threads"
)

// citationPattern matches the mandatory citation format the system
// prompt imposes on retrieved material.
var citationPattern = regexp.MustCompile(`Source:\s*([\w-]+\.pdf)`)

// Result is a finished answer with its provenance.
type Result struct {
	Answer    string `json:"answer"`
	Source    string `json:"source"`
	Link      string `json:"link,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Orchestrator answers queries by consulting the cache, running the
// reasoning loop, and attributing the answer to a source document.
// Turns within one thread are serialized; different threads proceed
// concurrently.
type Orchestrator struct {
	loop    *agent.Loop
	cache   *cache.AnswerCache
	threads *threads.Store
	audit   *audit.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewOrchestrator wires the answer path. audit may be nil.
func NewOrchestrator(loop *agent.Loop, answerCache *cache.AnswerCache, threadStore *threads.Store, auditStore *audit.Store) *Orchestrator {
	return &Orchestrator{
		loop:    loop,
		cache:   answerCache,
		threads: threadStore,
		audit:   auditStore,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Answer resolves a query within a thread. The cache is consulted
// first; on a miss the reasoning loop runs with the thread's history,
// the new turns are persisted, and the answer is attributed to the most
// recently cited source document.
func (o *Orchestrator) Answer(ctx context.Context, query, threadID string) (*Result, error) {
	unlock := o.lockThread(threadID)
	defer unlock()

	if answer, ok := o.cache.Lookup(ctx, query); ok {
		return &Result{Answer: answer, Source: "cache"}, nil
	}

	history, err := o.threads.History(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("loading thread history: %w", err)
	}

	outcome, err := o.loop.Run(ctx, history, query)
	if err != nil {
		return nil, err
	}

	if err := o.threads.AppendMessages(ctx, threadID, outcome.Turns); err != nil {
		return nil, fmt.Errorf("persisting turns: %w", err)
	}

	result := &Result{
		Answer:    outcome.Answer,
		Truncated: outcome.Truncated,
	}
	if file, ok := lastCitedDocument(outcome.Turns); ok {
		result.Source = "Document: " + file
		result.Link = "/api/view-pdf/" + file
	} else {
		result.Source = "llm"
	}

	o.cache.Save(ctx, query, outcome.Answer)

	if o.audit != nil {
		o.audit.Record(ctx, audit.Entry{
			Action:    audit.ActionQueryAnswered,
			SubjectID: threadID,
			Actor:     "assistant",
			Summary:   truncate(query, 120),
			Detail:    result.Source,
		})
	}

	return result, nil
}

// lastCitedDocument scans tool results newest-first for a document
// citation, so the answer links to the material the model saw last.
func lastCitedDocument(turns []llm.Message) (string, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role != llm.RoleTool {
			continue
		}
		if m := citationPattern.FindStringSubmatch(turns[i].Content); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// forgetThread drops the serialization lock of a deleted thread so the
// lock map does not grow with every thread ever seen. A racing Answer
// on the same ID would just mint a fresh lock, which is harmless for a
// thread that no longer exists.
func (o *Orchestrator) forgetThread(threadID string) {
	o.mu.Lock()
	delete(o.locks, threadID)
	o.mu.Unlock()
}

func (o *Orchestrator) lockThread(threadID string) func() {
	o.mu.Lock()
	lock, ok := o.locks[threadID]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[threadID] = lock
	}
	o.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
