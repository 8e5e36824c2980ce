// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/elphin/memorylane-sub000/internal/database"
	"github.com/mark3labs/mcp-go/mcp"
)

// NewSearchTool creates the memorylane_search tool definition
func NewSearchTool() mcp.Tool {
	return mcp.NewTool("memorylane_search",
		mcp.WithDescription("Find events and items by free text, by tag, or by a person who appears in them. Give at least one of query, tag or person."),
		mcp.WithString("query",
			mcp.Description("Text matched against titles, captions, descriptions and places"),
		),
		mcp.WithString("tag",
			mcp.Description("Items carrying this tag"),
		),
		mcp.WithString("person",
			mcp.Description("Items this person appears in"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results per kind. Default: 20"),
		),
	)
}

// SearchHandler handles the memorylane_search tool
func SearchHandler(ctx *ToolContext) Handler {
	return func(c context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := strings.TrimSpace(request.GetString("query", ""))
		tag := strings.TrimSpace(request.GetString("tag", ""))
		person := strings.TrimSpace(request.GetString("person", ""))
		limit := int(request.GetFloat("limit", 20))
		if limit <= 0 {
			limit = 20
		}

		if query == "" && tag == "" && person == "" {
			return mcp.NewToolResultError("give at least one of query, tag or person"), nil
		}

		store := ctx.Store()
		var sb strings.Builder

		if query != "" {
			res, err := store.Search(c, query, limit)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
			}
			sb.WriteString(fmt.Sprintf("# Results for \"%s\"\n\n", query))
			sb.WriteString(fmt.Sprintf("## Events (%d)\n\n", len(res.Events)))
			for i := range res.Events {
				sb.WriteString(formatEventLine(&res.Events[i]))
			}
			writeItems(&sb, "Items", res.Items, limit)
		}

		if tag != "" {
			items, err := store.ItemsByTag(c, tag)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("tag lookup failed: %v", err)), nil
			}
			writeItems(&sb, fmt.Sprintf("Tagged #%s", strings.ToLower(tag)), items, limit)
		}

		if person != "" {
			items, err := store.ItemsByPerson(c, person)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("person lookup failed: %v", err)), nil
			}
			writeItems(&sb, fmt.Sprintf("With %s", person), items, limit)
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func writeItems(sb *strings.Builder, heading string, items []database.Item, limit int) {
	sb.WriteString(fmt.Sprintf("\n## %s (%d)\n\n", heading, len(items)))
	for i := range items {
		if i == limit {
			sb.WriteString(fmt.Sprintf("- ... and %d more\n", len(items)-limit))
			break
		}
		sb.WriteString(formatItemLine(&items[i]))
	}
}
