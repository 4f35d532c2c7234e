package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/casefind/casefind/internal/audit"
	"github.com/casefind/casefind/internal/db"
	"github.com/casefind/casefind/internal/vectorindex"
)

type stubIngestor struct {
	enqueued []Document
}

func (s *stubIngestor) Enqueue(doc Document, filePath string) {
	s.enqueued = append(s.enqueued, doc)
}

type routesFixture struct {
	router   chi.Router
	store    *Store
	audit    *audit.Store
	ingestor *stubIngestor
	storage  string
}

func setupRoutes(t *testing.T) *routesFixture {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := NewStore(database)
	auditStore := audit.NewStore(database)
	writer := vectorindex.NewWriter(vectorindex.NewChromemIndex("test"), vectorindex.NewChunkStore(database))
	ingestor := &stubIngestor{}
	storage := t.TempDir()

	r := chi.NewRouter()
	RegisterRoutes(r, store, writer, ingestor, auditStore, storage)

	return &routesFixture{router: r, store: store, audit: auditStore, ingestor: ingestor, storage: storage}
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/library/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadAcceptsPDFAndEnqueues(t *testing.T) {
	f := setupRoutes(t)

	req := uploadRequest(t, "Limitation_Act.pdf", []byte("%PDF-1.4 fake"))
	req.Header.Set("X-User", "alice@example.com")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	var doc Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if doc.Status != StatusProcessing {
		t.Errorf("status = %q, want processing", doc.Status)
	}
	if doc.Owner != "alice@example.com" {
		t.Errorf("owner = %q", doc.Owner)
	}

	if len(f.ingestor.enqueued) != 1 {
		t.Fatalf("enqueued = %d, want 1", len(f.ingestor.enqueued))
	}
	if _, err := os.Stat(filepath.Join(f.storage, "Limitation_Act.pdf")); err != nil {
		t.Errorf("uploaded file not stored: %v", err)
	}

	entries, err := f.audit.Query(context.Background(), audit.QueryFilter{Action: audit.ActionDocumentUploaded})
	if err != nil {
		t.Fatalf("querying audit: %v", err)
	}
	if len(entries) != 1 || entries[0].SubjectID != doc.ID {
		t.Errorf("audit entries = %+v", entries)
	}
}

func TestUploadRejectsNonPDF(t *testing.T) {
	f := setupRoutes(t)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, uploadRequest(t, "notes.txt", []byte("plain text")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(f.ingestor.enqueued) != 0 {
		t.Error("nothing should be enqueued for a rejected upload")
	}
}

func TestUploadRejectsDuplicateFilename(t *testing.T) {
	f := setupRoutes(t)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, uploadRequest(t, "act.pdf", []byte("%PDF")))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first upload: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, uploadRequest(t, "act.pdf", []byte("%PDF")))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate upload: status = %d, want 409", rec.Code)
	}
}

func TestDeleteRemovesDocumentAndRecordsAudit(t *testing.T) {
	f := setupRoutes(t)
	ctx := context.Background()

	doc, err := f.store.Create(ctx, "Act", "act.pdf", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := os.WriteFile(filepath.Join(f.storage, "act.pdf"), []byte("%PDF"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/library/"+doc.ID, nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204: %s", rec.Code, rec.Body.String())
	}

	got, _ := f.store.GetByID(ctx, doc.ID)
	if got != nil {
		t.Error("document should be gone")
	}
	if _, err := os.Stat(filepath.Join(f.storage, "act.pdf")); !os.IsNotExist(err) {
		t.Error("stored file should be removed")
	}

	entries, err := f.audit.Query(ctx, audit.QueryFilter{Action: audit.ActionDocumentDeleted})
	if err != nil {
		t.Fatalf("querying audit: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("audit entries = %d, want 1", len(entries))
	}
}

func TestDeleteMissingDocumentReturns404(t *testing.T) {
	f := setupRoutes(t)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/library/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestViewPDFServesInline(t *testing.T) {
	f := setupRoutes(t)
	ctx := context.Background()

	if _, err := f.store.Create(ctx, "Act", "act.pdf", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := os.WriteFile(filepath.Join(f.storage, "act.pdf"), []byte("%PDF-1.4"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/view-pdf/act.pdf", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestViewPDFUnknownDocumentReturns404(t *testing.T) {
	f := setupRoutes(t)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/view-pdf/nope.pdf", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
