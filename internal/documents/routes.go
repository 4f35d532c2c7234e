package documents

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/casefind/casefind/internal/audit"
	"github.com/casefind/casefind/internal/vectorindex"
)

// Ingestor starts background ingestion of an uploaded document.
type Ingestor interface {
	Enqueue(doc Document, filePath string)
}

const maxUploadBytes = 64 << 20

// RegisterRoutes mounts the document library API routes.
func RegisterRoutes(r chi.Router, store *Store, writer *vectorindex.Writer, ingestor Ingestor, auditor *audit.Store, storageDir string) {
	r.Route("/api/library", func(r chi.Router) {
		r.Post("/upload", handleUpload(store, ingestor, auditor, storageDir))
		r.Get("/", handleList(store))
		r.Get("/{id}", handleGet(store))
		r.Delete("/{id}", handleDelete(store, writer, auditor, storageDir))
	})
	r.Get("/api/view-pdf/{filename}", handleViewPDF(store, storageDir))
}

func handleUpload(store *Store, ingestor Ingestor, auditor *audit.Store, storageDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, `{"error":"invalid multipart form"}`, http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, `{"error":"file field is required"}`, http.StatusBadRequest)
			return
		}
		defer file.Close()

		// Malformed input is rejected synchronously, before any
		// background work starts.
		filename := sanitizeFilename(header.Filename)
		if filename == "" || !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
			http.Error(w, `{"error":"only .pdf files are accepted"}`, http.StatusBadRequest)
			return
		}

		if existing, err := store.GetByStoredName(r.Context(), filename); err == nil && existing != nil {
			http.Error(w, `{"error":"a document with this filename already exists"}`, http.StatusConflict)
			return
		}

		if err := os.MkdirAll(storageDir, 0o755); err != nil {
			http.Error(w, `{"error":"storage unavailable"}`, http.StatusInternalServerError)
			return
		}

		path := filepath.Join(storageDir, filename)
		dst, err := os.Create(path)
		if err != nil {
			http.Error(w, `{"error":"storage unavailable"}`, http.StatusInternalServerError)
			return
		}
		if _, err := io.Copy(dst, file); err != nil {
			dst.Close()
			os.Remove(path)
			http.Error(w, `{"error":"failed to store file"}`, http.StatusInternalServerError)
			return
		}
		dst.Close()

		title := strings.TrimSuffix(filename, filepath.Ext(filename))
		owner := r.Header.Get("X-User")

		doc, err := store.Create(r.Context(), title, filename, owner)
		if err != nil {
			os.Remove(path)
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}

		if auditor != nil {
			auditor.Record(r.Context(), audit.Entry{
				Action:    audit.ActionDocumentUploaded,
				SubjectID: doc.ID,
				Actor:     owner,
				Summary:   filename,
			})
		}

		// The upload request returns immediately; the pipeline runs in the
		// background and completion is observed by polling GET /{id}.
		ingestor.Enqueue(*doc, path)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(doc)
	}
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := store.List(r.Context())
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if docs == nil {
			docs = []Document{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(docs)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := store.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if doc == nil {
			http.Error(w, `{"error":"document not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(doc)
	}
}

func handleDelete(store *Store, writer *vectorindex.Writer, auditor *audit.Store, storageDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		doc, err := store.GetByID(r.Context(), id)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if doc == nil {
			http.Error(w, `{"error":"document not found"}`, http.StatusNotFound)
			return
		}

		if err := writer.DeleteDocument(r.Context(), id); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if err := store.Delete(r.Context(), id); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		os.Remove(filepath.Join(storageDir, doc.StoredName))

		if auditor != nil {
			auditor.Record(r.Context(), audit.Entry{
				Action:    audit.ActionDocumentDeleted,
				SubjectID: doc.ID,
				Actor:     r.Header.Get("X-User"),
				Summary:   doc.StoredName,
			})
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func handleViewPDF(store *Store, storageDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := sanitizeFilename(chi.URLParam(r, "filename"))
		if filename == "" {
			http.Error(w, `{"error":"invalid filename"}`, http.StatusBadRequest)
			return
		}

		doc, err := store.GetByStoredName(r.Context(), filename)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if doc == nil {
			http.Error(w, `{"error":"document not found"}`, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
		http.ServeFile(w, r, filepath.Join(storageDir, filename))
	}
}

// sanitizeFilename strips any path components from an uploaded filename.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}
