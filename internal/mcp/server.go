package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/adurand/docchat/internal/rag"
)

// Server wraps the MCP server with its pipeline dependency.
type Server struct {
	server   *mcp.Server
	pipeline *rag.Pipeline
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(pipeline *rag.Pipeline) *Server {
	impl := &mcp.Implementation{
		Name:    "docchat-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the ingested PDF documents. Returns a cited answer plus the source passages it is grounded in.",
	}, makeAskHandler(pipeline))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Ingest a PDF document (base64-encoded) into the index so it becomes answerable. Returns the document id and chunk counts.",
	}, makeIngestHandler(pipeline))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List all ingested documents with page and chunk counts, newest first.",
	}, makeListHandler(pipeline))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_document",
		Description: "Get one ingested document by id, including its indexed pages and chunk previews.",
	}, makeGetHandler(pipeline))

	return &Server{server: server, pipeline: pipeline}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
