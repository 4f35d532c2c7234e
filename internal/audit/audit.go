package audit

import "time"

// Action describes what was done.
type Action string

const (
	ActionDocumentUploaded Action = "document_uploaded"
	ActionDocumentIngested Action = "document_ingested"
	ActionDocumentFailed   Action = "document_failed"
	ActionDocumentDeleted  Action = "document_deleted"
	ActionQueryAnswered    Action = "query_answered"
)

// Entry is a single audit trail record. SubjectID identifies what the
// action applied to (a document ID, a thread ID).
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	SubjectID string    `json:"subject_id,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	Summary   string    `json:"summary"`
	Detail    string    `json:"detail,omitempty"`
}
