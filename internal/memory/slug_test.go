// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugFromFilename(t *testing.T) {
	assert.Equal(t, "cake", SlugFromFilename("cake.jpg"))
	assert.Equal(t, "Cake", SlugFromFilename("Cake.md"))
	assert.Equal(t, "my.photo", SlugFromFilename("my.photo.jpeg"))
	assert.Equal(t, "noext", SlugFromFilename("noext"))
	assert.Equal(t, "cake", SlugKey("CAKE"))
}

func TestCaptionFromFilename(t *testing.T) {
	assert.Equal(t, "beach day 01", CaptionFromFilename("beach_day-01.jpg"))
	assert.Equal(t, "IMG 2041", CaptionFromFilename("IMG_2041.HEIC"))
	assert.Equal(t, "extra", CaptionFromFilename("extra.jpg"))
}

func TestParseSuffixedSlug(t *testing.T) {
	base, ok := ParseSuffixedSlug("cake_1a2b3c4d")
	assert.True(t, ok)
	assert.Equal(t, "cake", base)

	base, ok = ParseSuffixedSlug(SuffixedSlug("my_trip", "DEADBEEF"))
	assert.True(t, ok)
	assert.Equal(t, "my_trip", base)

	_, ok = ParseSuffixedSlug("cake_1a2b3c")
	assert.False(t, ok)
	_, ok = ParseSuffixedSlug("cake_zzzzzzzz")
	assert.False(t, ok)
	_, ok = ParseSuffixedSlug("cake")
	assert.False(t, ok)
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		title    string
		expected string
	}{
		{"  beach   day ", "beach day"},
		{"a/b", "ab"},
		{"what?", "what"},
		{"trailing...", "trailing"},
		{"bell\x07 tab\tend", "bell tabend"},
		{`<in> "quotes" a:b|c*d\e`, "in quotes abcde"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeTitle(tt.title))
		})
	}
}
