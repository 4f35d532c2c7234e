package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/casefind/casefind/internal/embeddings"
	"github.com/casefind/casefind/internal/llm"
	"github.com/casefind/casefind/internal/vectorindex"
)

// Tool is a capability the reasoning loop can offer to the model. Execute
// returns its result as text; failures are reported in the text itself so
// the model can recover rather than aborting the whole turn.
type Tool interface {
	Definition() llm.Tool
	Execute(ctx context.Context, arguments string) string
}

// NoResultsMessage is returned by the retrieval tool when the knowledge
// base has no relevant documents.
const NoResultsMessage = "No relevant legal documents found in the knowledge base."

const retrievalToolName = "search_legal_documents"

var retrievalToolSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"query": {
			"type": "string",
			"description": "The search query describing the legal topic or question"
		}
	},
	"required": ["query"]
}`)

// RetrievalTool searches the vector index for document chunks relevant
// to a query.
type RetrievalTool struct {
	embedder embeddings.Embedder
	index    vectorindex.Index
	limit    int
}

// NewRetrievalTool creates the knowledge base search tool. limit caps
// the number of matches returned per search.
func NewRetrievalTool(embedder embeddings.Embedder, index vectorindex.Index, limit int) *RetrievalTool {
	if limit <= 0 {
		limit = 10
	}
	return &RetrievalTool{embedder: embedder, index: index, limit: limit}
}

func (t *RetrievalTool) Definition() llm.Tool {
	return llm.Tool{
		Name:        retrievalToolName,
		Description: "Search the legal document knowledge base for passages relevant to a query. Returns matching excerpts with their source document and page number.",
		Parameters:  retrievalToolSchema,
	}
}

func (t *RetrievalTool) Execute(ctx context.Context, arguments string) string {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return fmt.Sprintf("Error searching knowledge base: invalid arguments: %v", err)
	}
	if strings.TrimSpace(args.Query) == "" {
		return "Error searching knowledge base: empty query"
	}

	vector, err := t.embedder.EmbedQuery(ctx, args.Query)
	if err != nil {
		return fmt.Sprintf("Error searching knowledge base: %v", err)
	}

	matches, err := t.index.Search(ctx, vector, t.limit)
	if err != nil {
		return fmt.Sprintf("Error searching knowledge base: %v", err)
	}
	if len(matches) == 0 {
		return NoResultsMessage
	}

	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, fmt.Sprintf("Source: %s\nPage: %d\nContent: %s",
			m.Payload.DocumentName, m.Payload.PageNumber, m.Payload.Text))
	}
	return strings.Join(parts, "\n\n---\n\n")
}
