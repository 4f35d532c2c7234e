package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// handleSearchLegalDocuments performs semantic search over the knowledge base.
func (s *Server) handleSearchLegalDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	args, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding query: %v", err)), nil
	}

	result := s.search.Execute(ctx, string(args))
	if strings.HasPrefix(result, "Error searching knowledge base:") {
		return mcp.NewToolResultError(result), nil
	}
	return mcp.NewToolResultText(result), nil
}

// handleListDocuments returns the document library with ingestion statuses.
func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.docs.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing documents: %v", err)), nil
	}
	if len(docs) == 0 {
		return mcp.NewToolResultText("The knowledge base is empty. Upload PDFs via the library API or `casefind ingest`."), nil
	}

	var b strings.Builder
	for _, d := range docs {
		fmt.Fprintf(&b, "%s  %s  status=%s  chunks=%d\n", d.ID, d.StoredName, d.Status, d.ChunkCount)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// handleGetDocument returns metadata for one document as JSON.
func (s *Server) handleGetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("getting document: %v", err)), nil
	}
	if doc == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no document with ID %q", id)), nil
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding document: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
