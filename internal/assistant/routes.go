package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/casefind/casefind/internal/threads"
)

const maxTitleLen = 50

// chatRequest is the body of POST /api/assistant/chat. An empty
// thread_id starts a new thread titled after the first message.
type chatRequest struct {
	ThreadID string `json:"thread_id"`
	Message  string `json:"message"`
}

// chatResponse carries the answer together with the thread it now
// belongs to.
type chatResponse struct {
	ThreadID string `json:"thread_id"`
	Result
}

// RegisterRoutes mounts the assistant API routes.
func RegisterRoutes(r chi.Router, orch *Orchestrator, threadStore *threads.Store) {
	r.Route("/api/assistant", func(r chi.Router) {
		r.Post("/chat", handleChat(orch, threadStore))
		r.Get("/threads", handleListThreads(threadStore))
		r.Get("/threads/{id}", handleGetThread(threadStore))
		r.Delete("/threads/{id}", handleDeleteThread(orch, threadStore))
		r.Get("/ws", handleWebSocket(orch, threadStore))
	})
}

func handleChat(orch *Orchestrator, threadStore *threads.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			http.Error(w, `{"error":"message is required"}`, http.StatusBadRequest)
			return
		}

		threadID, err := resolveThread(r.Context(), threadStore, req.ThreadID, req.Message, r.Header.Get("X-User"))
		if err != nil {
			status := http.StatusInternalServerError
			if err == errThreadNotFound {
				status = http.StatusNotFound
			}
			http.Error(w, `{"error":"`+err.Error()+`"}`, status)
			return
		}

		result, err := orch.Answer(r.Context(), req.Message, threadID)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse{ThreadID: threadID, Result: *result})
	}
}

func handleListThreads(threadStore *threads.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := threadStore.ListThreads(r.Context())
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []threads.Thread{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(list)
	}
}

func handleGetThread(threadStore *threads.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		thread, err := threadStore.GetThread(r.Context(), id)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if thread == nil {
			http.Error(w, `{"error":"thread not found"}`, http.StatusNotFound)
			return
		}

		msgs, err := threadStore.GetMessages(r.Context(), id)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if msgs == nil {
			msgs = []threads.StoredMessage{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"thread":   thread,
			"messages": msgs,
		})
	}
}

func handleDeleteThread(orch *Orchestrator, threadStore *threads.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		thread, err := threadStore.GetThread(r.Context(), id)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if thread == nil {
			http.Error(w, `{"error":"thread not found"}`, http.StatusNotFound)
			return
		}
		if err := threadStore.DeleteThread(r.Context(), id); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		orch.forgetThread(id)
		w.WriteHeader(http.StatusNoContent)
	}
}

var errThreadNotFound = errThread("thread not found")

type errThread string

func (e errThread) Error() string { return string(e) }

// resolveThread returns the ID of the thread the message belongs to,
// creating a new one titled after the message when none was given.
func resolveThread(ctx context.Context, store *threads.Store, threadID, message, owner string) (string, error) {
	if threadID != "" {
		thread, err := store.GetThread(ctx, threadID)
		if err != nil {
			return "", err
		}
		if thread == nil {
			return "", errThreadNotFound
		}
		return threadID, nil
	}

	thread, err := store.CreateThread(ctx, titleFor(message), owner)
	if err != nil {
		return "", err
	}
	return thread.ID, nil
}

// titleFor derives a thread title from its first message, truncated on
// a rune boundary so multi-byte text stays valid UTF-8.
func titleFor(message string) string {
	title := strings.TrimSpace(message)
	if runes := []rune(title); len(runes) > maxTitleLen {
		return string(runes[:maxTitleLen])
	}
	return title
}
