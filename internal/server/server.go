// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"github.com/elphin/memorylane-sub000/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPServer wraps the mcp-go server with the library tools registered
type MCPServer struct {
	mcpServer *server.MCPServer
	toolCtx   *tools.ToolContext
	names     []string
}

// NewMCPServer creates a new MCP server instance and registers all tools
func NewMCPServer(toolCtx *tools.ToolContext, version string) *MCPServer {
	if version == "" {
		version = "dev"
	}
	mcpServer := server.NewMCPServer(
		"Memorylane",
		version,
		server.WithToolCapabilities(true),
	)

	srv := &MCPServer{
		mcpServer: mcpServer,
		toolCtx:   toolCtx,
	}
	srv.registerTools()
	return srv
}

func (s *MCPServer) registerTools() {
	// maintenance
	s.add(tools.NewRebuildTool(), tools.RebuildHandler(s.toolCtx))
	s.add(tools.NewStatusTool(), tools.StatusHandler(s.toolCtx))
	s.add(tools.NewCleanupTool(), tools.CleanupHandler(s.toolCtx))
	s.add(tools.NewRecoverTool(), tools.RecoverHandler(s.toolCtx))

	// queries
	s.add(tools.NewTimelineTool(), tools.TimelineHandler(s.toolCtx))
	s.add(tools.NewSearchTool(), tools.SearchHandler(s.toolCtx))

	if s.toolCtx.HasHistory() {
		s.add(tools.NewHistoryTool(), tools.HistoryHandler(s.toolCtx))
	}
}

func (s *MCPServer) add(tool mcp.Tool, handler tools.Handler) {
	s.mcpServer.AddTool(tool, handler)
	s.names = append(s.names, tool.Name)
}

// ToolNames returns the registered tool names in registration order
func (s *MCPServer) ToolNames() []string {
	return append([]string(nil), s.names...)
}

// GetMCPServer returns the underlying MCP server
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves MCP over stdin/stdout until the input closes
func (s *MCPServer) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
