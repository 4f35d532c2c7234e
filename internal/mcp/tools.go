package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchLegalDocumentsTool defines the search_legal_documents MCP tool.
var searchLegalDocumentsTool = mcp.NewTool("search_legal_documents",
	mcp.WithDescription("Search the legal document knowledge base semantically. Returns matching excerpts with their source document and page number."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language description of the legal topic or question"),
	),
)

// listDocumentsTool defines the list_documents MCP tool.
var listDocumentsTool = mcp.NewTool("list_documents",
	mcp.WithDescription("List every document in the knowledge base with its ingestion status."),
)

// getDocumentTool defines the get_document MCP tool.
var getDocumentTool = mcp.NewTool("get_document",
	mcp.WithDescription("Get metadata for one document: title, status, chunk count, and timestamps."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("The document ID"),
	),
)
