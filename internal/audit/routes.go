package audit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

const defaultQueryLimit = 100

// queryResponse envelopes a page of audit entries.
type queryResponse struct {
	Entries []Entry `json:"entries"`
	Count   int     `json:"count"`
}

// RegisterRoutes mounts the read-only audit trail API.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/audit", func(r chi.Router) {
		r.Get("/", handleQuery(store))
		r.Get("/{id}", handleGetByID(store))
	})
}

func handleQuery(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := filterFromQuery(r)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
			return
		}

		entries, err := store.Query(r.Context(), filter)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []Entry{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(queryResponse{Entries: entries, Count: len(entries)})
	}
}

func handleGetByID(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := store.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if entry == nil {
			http.Error(w, `{"error":"audit entry not found"}`, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entry)
	}
}

// filterFromQuery builds a QueryFilter from URL parameters. Malformed
// timestamps and numbers are rejected rather than silently ignored.
func filterFromQuery(r *http.Request) (QueryFilter, error) {
	q := r.URL.Query()

	filter := QueryFilter{
		Action:    Action(q.Get("action")),
		SubjectID: q.Get("subject_id"),
		Actor:     q.Get("actor"),
		Limit:     defaultQueryLimit,
	}

	var err error
	if filter.Since, err = parseTimeParam(q.Get("since")); err != nil {
		return filter, err
	}
	if filter.Until, err = parseTimeParam(q.Get("until")); err != nil {
		return filter, err
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return filter, errBadParam("limit must be a positive integer")
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, errBadParam("offset must be a non-negative integer")
		}
		filter.Offset = n
	}

	return filter, nil
}

func parseTimeParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, errBadParam("timestamps must be RFC 3339")
	}
	return &t, nil
}

type errBadParam string

func (e errBadParam) Error() string { return string(e) }
