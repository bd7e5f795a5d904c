// Package mcpserver exposes refscan analyses as MCP tools over stdio.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server and registers the refscan tools.
type Server struct {
	server *mcp.Server
}

// NewServer creates a new MCP server with all refscan tools registered.
func NewServer(version string) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "refscan",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server}
	s.registerTools()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// registerTools adds the refscan analysis tools to the server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_references",
		Description: describeReferences(),
	}, handleAnalyzeReferences)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_classes",
		Description: describeClasses(),
	}, handleListClasses)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "extract_layouts",
		Description: describeLayouts(),
	}, handleExtractLayouts)
}
