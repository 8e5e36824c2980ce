// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/elphin/memorylane-sub000/internal/database"
	"github.com/mark3labs/mcp-go/mcp"
)

// NewTimelineTool creates the memorylane_timeline tool definition
func NewTimelineTool() mcp.Tool {
	return mcp.NewTool("memorylane_timeline",
		mcp.WithDescription("Browse the indexed timeline. Without arguments lists the years; with a year lists its events; with an event id lists the event's items and canvas placement."),
		mcp.WithNumber("year",
			mcp.Description("Year to list events for, e.g. 2023"),
		),
		mcp.WithString("event_id",
			mcp.Description("Event to list items for"),
		),
	)
}

// TimelineHandler handles the memorylane_timeline tool
func TimelineHandler(ctx *ToolContext) Handler {
	return func(c context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		eventID := request.GetString("event_id", "")
		year := int(request.GetFloat("year", 0))

		var (
			out string
			err error
		)
		switch {
		case eventID != "":
			out, err = eventDetail(c, ctx.Store(), eventID)
		case year != 0:
			out, err = yearEvents(c, ctx.Store(), year)
		default:
			out, err = yearList(c, ctx.Store())
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

func yearList(c context.Context, store *database.Store) (string, error) {
	years, err := store.Years(c)
	if err != nil {
		return "", err
	}
	if len(years) == 0 {
		return "The index is empty. Run `memorylane_rebuild` first.", nil
	}

	var sb strings.Builder
	sb.WriteString("# Years\n\n")
	for i := range years {
		events, err := store.EventsForYear(c, years[i].ID)
		if err != nil {
			return "", err
		}
		sb.WriteString(fmt.Sprintf("- **%s** `%s`: %d events\n", years[i].Title, years[i].FolderPath, len(events)))
	}
	return sb.String(), nil
}

func yearEvents(c context.Context, store *database.Store, year int) (string, error) {
	years, err := store.Years(c)
	if err != nil {
		return "", err
	}
	folder := strconv.Itoa(year)
	for i := range years {
		if years[i].FolderPath != folder {
			continue
		}
		events, err := store.EventsForYear(c, years[i].ID)
		if err != nil {
			return "", err
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("# %s\n\n", years[i].Title))
		if years[i].Description != "" {
			sb.WriteString(years[i].Description + "\n\n")
		}
		if len(events) == 0 {
			sb.WriteString("No events.\n")
		}
		for j := range events {
			sb.WriteString(formatEventLine(&events[j]))
		}
		return sb.String(), nil
	}
	return "", fmt.Errorf("year not indexed: %d", year)
}

func eventDetail(c context.Context, store *database.Store, eventID string) (string, error) {
	event, err := store.GetEvent(c, eventID)
	if err != nil {
		return "", err
	}
	items, err := store.ItemsForEvent(c, eventID)
	if err != nil {
		return "", err
	}
	layout, err := store.LayoutForEvent(c, eventID)
	if err != nil {
		return "", err
	}
	placed := make(map[string]database.CanvasItem, len(layout))
	for _, row := range layout {
		placed[row.ItemID] = row
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", event.Title))
	sb.WriteString(fmt.Sprintf("**Date**: %s\n", formatDate(event.StartAt)))
	if event.Location != "" {
		sb.WriteString(fmt.Sprintf("**Location**: %s\n", event.Location))
	}
	if len(event.Tags) > 0 {
		tags := make([]string, 0, len(event.Tags))
		for _, t := range event.Tags {
			tags = append(tags, t.Tag)
		}
		sb.WriteString(fmt.Sprintf("**Tags**: %s\n", strings.Join(tags, ", ")))
	}
	sb.WriteString(fmt.Sprintf("**Folder**: `%s`\n\n", event.FolderPath))
	if event.Description != "" {
		sb.WriteString(event.Description + "\n\n")
	}

	sb.WriteString(fmt.Sprintf("## Items (%d)\n\n", len(items)))
	for i := range items {
		sb.WriteString(formatItemLine(&items[i]))
		if row, ok := placed[items[i].ID]; ok {
			sb.WriteString(fmt.Sprintf("  - canvas: x=%.0f y=%.0f scale=%.2f z=%d\n", row.X, row.Y, row.Scale, row.ZIndex))
		}
	}
	return sb.String(), nil
}
