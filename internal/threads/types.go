package threads

import "time"

// Thread is a persistent conversation between a user and the assistant.
type Thread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoredMessage is a single turn in a thread. Assistant turns may carry
// tool call requests (serialized as JSON in ToolCalls); tool turns carry
// the result of one call.
type StoredMessage struct {
	ID         string    `json:"id"`
	ThreadID   string    `json:"thread_id"`
	Seq        int       `json:"seq"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	ToolCalls  string    `json:"tool_calls,omitempty"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
	ToolName   string    `json:"tool_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
