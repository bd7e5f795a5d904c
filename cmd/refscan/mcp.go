package main

import (
	"context"

	"github.com/refscan/refscan/internal/mcpserver"
	"github.com/urfave/cli/v2"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes refscan's
analyses as tools an LLM can invoke.

To use with an MCP client, register:
  {
    "mcpServers": {
      "refscan": {
        "command": "refscan",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_references  Aggregate external class references of a build output
  - list_classes        Classes declared by compiled class files
  - extract_layouts     Class names referenced by XML layout descriptors`,
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	server := mcpserver.NewServer(version)
	return server.Run(context.Background())
}
