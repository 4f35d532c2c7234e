package documents

import "time"

// Status is the ingestion state of a document. Transitions are monotone:
// processing -> ready or processing -> failed, both terminal.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// Document is one ingested PDF's record.
type Document struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	StoredName  string     `json:"stored_name"`
	Owner       string     `json:"owner"`
	Status      Status     `json:"status"`
	ChunkCount  int        `json:"chunk_count"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}
