// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

var (
	// separatorRegex matches filename word separators
	separatorRegex = regexp.MustCompile(`[\s_.-]+`)
	// suffixedSlugRegex matches auto-generated <base>_<8 hex> slugs
	suffixedSlugRegex = regexp.MustCompile(`^(.+)_([0-9a-fA-F]{8})$`)
	// unsafeTitleRegex matches control characters and characters no
	// filesystem accepts in a folder name
	unsafeTitleRegex = regexp.MustCompile(`[\x00-\x1F\x7F<>:"/\\|?*]`)
)

// SlugFromFilename strips the extension. This is the join key between
// metadata files, media files and layout entries; callers compare it
// case-insensitively.
func SlugFromFilename(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

// SlugKey is the case-folded form of a slug used for matching
func SlugKey(slug string) string {
	return strings.ToLower(slug)
}

// CaptionFromFilename turns "beach_day-01.jpg" into "beach day 01"
func CaptionFromFilename(name string) string {
	caption := separatorRegex.ReplaceAllString(SlugFromFilename(name), " ")
	return strings.TrimSpace(caption)
}

// SuffixedSlug builds the auto-generated <base>_<hex> slug used when the
// plain base slug is already taken
func SuffixedSlug(base, hex string) string {
	return fmt.Sprintf("%s_%s", base, hex)
}

// ParseSuffixedSlug reports whether slug looks auto-generated and returns
// its base slug
func ParseSuffixedSlug(slug string) (string, bool) {
	m := suffixedSlugRegex.FindStringSubmatch(slug)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// SanitizeTitle removes control characters and path separators so the
// title can be used as a folder name
func SanitizeTitle(title string) string {
	title = unsafeTitleRegex.ReplaceAllString(title, "")
	title = strings.Join(strings.Fields(title), " ")
	return strings.Trim(title, " .")
}
