// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"
)

// NewHistoryTool creates the memorylane_history tool definition
func NewHistoryTool() mcp.Tool {
	return mcp.NewTool("memorylane_history",
		mcp.WithDescription("Show recent commits to the library, optionally limited to one year or event folder. Only available when the library is a git repository."),
		mcp.WithString("path",
			mcp.Description("Library-relative folder, e.g. '2023/Birthday Party'"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum entries to return. Default: 10"),
		),
	)
}

// HistoryHandler handles the memorylane_history tool
func HistoryHandler(ctx *ToolContext) Handler {
	return func(c context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !ctx.HasHistory() {
			return mcp.NewToolResultError("library history is not enabled"), nil
		}
		path := strings.Trim(request.GetString("path", ""), "/")
		limit := int(request.GetFloat("limit", 10))

		commits, err := ctx.History.Log(path, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get history: %v", err)), nil
		}
		if len(commits) == 0 {
			return mcp.NewToolResultText("No commits found."), nil
		}

		var sb strings.Builder
		sb.WriteString("# Library history\n\n")
		for _, commit := range commits {
			sb.WriteString(fmt.Sprintf("- `%s` %s (%s, %s)\n", commit.Hash[:7], commit.Message, commit.Author, humanize.Time(commit.Timestamp)))
			for _, f := range commit.Files {
				sb.WriteString(fmt.Sprintf("  - %s\n", f))
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}
