package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/casefind/casefind/internal/agent"
	"github.com/casefind/casefind/internal/documents"
)

// Version is the server version reported to MCP clients, set by the CLI.
var Version = "dev"

// Server wraps an MCP server that exposes the legal knowledge base to
// external AI agents over stdio.
type Server struct {
	search *agent.RetrievalTool
	docs   *documents.Store
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(search *agent.RetrievalTool, docs *documents.Store) *Server {
	s := &Server{
		search: search,
		docs:   docs,
	}

	s.mcp = server.NewMCPServer(
		"casefind",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchLegalDocumentsTool, s.handleSearchLegalDocuments)
	s.mcp.AddTool(listDocumentsTool, s.handleListDocuments)
	s.mcp.AddTool(getDocumentTool, s.handleGetDocument)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
