// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// NewRebuildTool creates the memorylane_rebuild tool definition
func NewRebuildTool() mcp.Tool {
	return mcp.NewTool("memorylane_rebuild",
		mcp.WithDescription("Rebuild the memory index from the library folder. Adopts media without a metadata file and moves loose photos in year folders into new dated events. Safe to run repeatedly."),
	)
}

// RebuildHandler handles the memorylane_rebuild tool
func RebuildHandler(ctx *ToolContext) Handler {
	return func(c context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := ctx.Engine.Rebuild(c)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("rebuild failed: %v", err)), nil
		}
		return mcp.NewToolResultText(FormatRebuild(result)), nil
	}
}

// NewCleanupTool creates the memorylane_cleanup tool definition
func NewCleanupTool() mcp.Tool {
	return mcp.NewTool("memorylane_cleanup",
		mcp.WithDescription("Remove duplicate metadata files inside event folders: files sharing a slug, and auto-generated <name>_<hex>.md files whose <name>.md exists. Media files are never touched. Run memorylane_rebuild afterwards to refresh the index."),
	)
}

// CleanupHandler handles the memorylane_cleanup tool
func CleanupHandler(ctx *ToolContext) Handler {
	return func(c context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := ctx.Engine.CleanupDuplicates(c)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("cleanup failed: %v", err)), nil
		}
		return mcp.NewToolResultText(FormatCleanup(result)), nil
	}
}

// NewRecoverTool creates the memorylane_recover tool definition
func NewRecoverTool() mcp.Tool {
	return mcp.NewTool("memorylane_recover",
		mcp.WithDescription("Recreate missing _event.md files and item files for media that has none, then rebuild the index. Use after metadata was lost."),
	)
}

// RecoverHandler handles the memorylane_recover tool
func RecoverHandler(ctx *ToolContext) Handler {
	return func(c context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := ctx.Engine.RecoverFromMedia(c)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("recovery failed: %v", err)), nil
		}
		return mcp.NewToolResultText(FormatRecovery(result)), nil
	}
}
