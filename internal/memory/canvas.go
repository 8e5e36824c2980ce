// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// LayoutEntry is one item's placement on an event canvas. Entries are
// keyed by slug so the sidecar survives index rebuilds.
type LayoutEntry struct {
	Slug     string   `json:"slug"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Scale    float64  `json:"scale"`
	Rotation float64  `json:"rotation"`
	ZIndex   int      `json:"zIndex"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
}

// ParseLayout parses a _canvas.json sidecar. An empty file is an empty layout.
func ParseLayout(data []byte) ([]LayoutEntry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var entries []LayoutEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}
	return entries, nil
}

// EncodeLayout renders a _canvas.json sidecar
func EncodeLayout(entries []LayoutEntry) ([]byte, error) {
	if entries == nil {
		entries = []LayoutEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal layout: %w", err)
	}
	return append(data, '\n'), nil
}

// DropSlugs removes entries whose slug matches any of slugs, case-insensitively.
// It returns the remaining entries and whether anything was removed.
func DropSlugs(entries []LayoutEntry, slugs []string) ([]LayoutEntry, bool) {
	drop := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		drop[strings.ToLower(s)] = true
	}

	kept := make([]LayoutEntry, 0, len(entries))
	for _, e := range entries {
		if drop[strings.ToLower(e.Slug)] {
			continue
		}
		kept = append(kept, e)
	}
	return kept, len(kept) != len(entries)
}
