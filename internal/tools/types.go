// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package tools exposes the library engine and index as MCP tools.
package tools

import (
	"context"

	"github.com/elphin/memorylane-sub000/internal/database"
	"github.com/elphin/memorylane-sub000/internal/history"
	"github.com/elphin/memorylane-sub000/internal/rebuild"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handler is the mcp-go tool handler signature
type Handler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ToolContext holds shared dependencies for all tools
type ToolContext struct {
	Engine  *rebuild.Engine
	History *history.Repository // nil when the library is not under git
}

// NewToolContext creates a tool context over an engine
func NewToolContext(engine *rebuild.Engine, hist *history.Repository) *ToolContext {
	return &ToolContext{Engine: engine, History: hist}
}

// Store returns the index store
func (tc *ToolContext) Store() *database.Store {
	return tc.Engine.Store()
}

// HasHistory returns true if library commits can be queried
func (tc *ToolContext) HasHistory() bool {
	return tc.History != nil
}
