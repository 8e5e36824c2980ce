// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/elphin/memorylane-sub000/internal/database"
	"github.com/elphin/memorylane-sub000/internal/rebuild"
)

// maxListedErrors caps how many unit errors a summary prints
const maxListedErrors = 20

// FormatRebuild renders a rebuild result as markdown
func FormatRebuild(r *rebuild.RebuildResult) string {
	var sb strings.Builder
	sb.WriteString("# Rebuild complete\n\n")
	sb.WriteString(fmt.Sprintf("- **Years**: %d\n", r.YearsIndexed))
	sb.WriteString(fmt.Sprintf("- **Events**: %d\n", r.EventsIndexed))
	sb.WriteString(fmt.Sprintf("- **Items**: %d\n", r.ItemsIndexed))
	if r.Adopted > 0 {
		sb.WriteString(fmt.Sprintf("- **Orphan media adopted**: %d\n", r.Adopted))
	}
	if len(r.Promoted) > 0 {
		sb.WriteString(fmt.Sprintf("- **Loose media moved into events**: %d\n", len(r.Promoted)))
		for _, folder := range r.Promoted {
			sb.WriteString(fmt.Sprintf("  - `%s`\n", folder))
		}
	}
	sb.WriteString(fmt.Sprintf("- **Duration**: %s\n", r.Duration.Round(time.Millisecond)))
	writeErrors(&sb, r.Errors)
	return sb.String()
}

// FormatCleanup renders a cleanup result as markdown
func FormatCleanup(r *rebuild.CleanupResult) string {
	var sb strings.Builder
	sb.WriteString("# Cleanup complete\n\n")
	sb.WriteString(fmt.Sprintf("- **Files removed**: %d\n", r.FilesRemoved))
	sb.WriteString(fmt.Sprintf("- **Sidecars updated**: %d\n", r.SidecarsUpdated))
	for _, path := range r.Removed {
		sb.WriteString(fmt.Sprintf("  - `%s`\n", path))
	}
	writeErrors(&sb, r.Errors)
	return sb.String()
}

// FormatRecovery renders a recovery result as markdown
func FormatRecovery(r *rebuild.RecoveryResult) string {
	var sb strings.Builder
	sb.WriteString("# Recovery complete\n\n")
	sb.WriteString(fmt.Sprintf("- **Event descriptors created**: %d\n", r.EventsCreated))
	sb.WriteString(fmt.Sprintf("- **Item files created**: %d\n", r.ItemsCreated))
	writeErrors(&sb, r.Errors)
	if r.Rebuild != nil {
		sb.WriteString("\n")
		sb.WriteString(strings.Replace(FormatRebuild(r.Rebuild), "# ", "## ", 1))
	} else {
		sb.WriteString("\nNothing was missing; the index was left as is.\n")
	}
	return sb.String()
}

func writeErrors(sb *strings.Builder, errs []rebuild.UnitError) {
	if len(errs) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("\n**Problems (%d)**:\n", len(errs)))
	for i, e := range errs {
		if i == maxListedErrors {
			sb.WriteString(fmt.Sprintf("- ... and %d more\n", len(errs)-maxListedErrors))
			break
		}
		sb.WriteString(fmt.Sprintf("- `%s`: %v\n", e.Path, e.Err))
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "undated"
	}
	return t.Format("2006-01-02")
}

func formatEventLine(e *database.Event) string {
	line := fmt.Sprintf("- **%s** (%s) `%s`", e.Title, formatDate(e.StartAt), e.ID)
	if e.Location != "" {
		line += " @ " + e.Location
	}
	return line + "\n"
}

func formatItemLine(it *database.Item) string {
	label := it.Caption
	if label == "" {
		label = it.Slug
	}
	line := fmt.Sprintf("- [%s] **%s**", it.ItemType, label)
	if it.HappenedAt != nil {
		line += fmt.Sprintf(" (%s)", humanize.Time(*it.HappenedAt))
	}
	if it.MediaPath != "" {
		line += fmt.Sprintf(" `%s`", it.MediaPath)
	} else if it.ItemType == "link" {
		line += " " + it.Content
	}
	return line + "\n"
}
