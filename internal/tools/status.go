// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/elphin/memorylane-sub000/internal/database"
	"github.com/elphin/memorylane-sub000/internal/rebuild"
	"github.com/mark3labs/mcp-go/mcp"
)

// Status summarizes the library and its index
type Status struct {
	Root          string           `json:"root"`
	Counts        *database.Counts `json:"counts"`
	SchemaVersion string           `json:"schema_version,omitempty"`
	LastRebuild   *time.Time       `json:"last_rebuild,omitempty"`
	NeedsRebuild  bool             `json:"needs_rebuild"`
}

// GetStatus reads the index counts and rebuild metadata
func GetStatus(c context.Context, engine *rebuild.Engine) (*Status, error) {
	store := engine.Store()
	counts, err := store.Counts(c)
	if err != nil {
		return nil, err
	}
	needs, err := engine.NeedsRebuild(c)
	if err != nil {
		return nil, err
	}

	st := &Status{Counts: counts, NeedsRebuild: needs}
	if root := engine.Root(); root != nil {
		st.Root = root.Root()
	}
	if v, ok, err := store.GetMeta(c, database.MetaSchemaVersion); err == nil && ok {
		st.SchemaVersion = v
	}
	if v, ok, err := store.GetMeta(c, database.MetaLastRebuild); err == nil && ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			st.LastRebuild = &t
		}
	}
	return st, nil
}

// NewStatusTool creates the memorylane_status tool definition
func NewStatusTool() mcp.Tool {
	return mcp.NewTool("memorylane_status",
		mcp.WithDescription("Show the library root, how many years, events and items are indexed, when the index was last rebuilt, and whether it needs a rebuild."),
	)
}

// StatusHandler handles the memorylane_status tool
func StatusHandler(ctx *ToolContext) Handler {
	return func(c context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		st, err := GetStatus(c, ctx.Engine)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read index status: %v", err)), nil
		}

		var sb strings.Builder
		sb.WriteString("# Library status\n\n")
		root := st.Root
		if root == "" {
			root = "(not configured)"
		}
		sb.WriteString(fmt.Sprintf("- **Root**: `%s`\n", root))
		sb.WriteString(fmt.Sprintf("- **Years**: %d\n", st.Counts.Years))
		sb.WriteString(fmt.Sprintf("- **Events**: %d\n", st.Counts.Events))
		sb.WriteString(fmt.Sprintf("- **Items**: %d\n", st.Counts.Items))
		if st.LastRebuild != nil {
			sb.WriteString(fmt.Sprintf("- **Last rebuild**: %s (%s)\n", humanize.Time(*st.LastRebuild), st.LastRebuild.Format(time.RFC3339)))
		} else {
			sb.WriteString("- **Last rebuild**: never\n")
		}
		if ctx.HasHistory() {
			if log, err := ctx.History.Log("", 1); err == nil && len(log) > 0 {
				sb.WriteString(fmt.Sprintf("- **Last library commit**: %s (%s)\n", log[0].Message, humanize.Time(log[0].Timestamp)))
			}
		}
		if st.NeedsRebuild {
			sb.WriteString("\nThe index is missing or out of date. Run `memorylane_rebuild`.\n")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}
