// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package rebuild

import (
	"strings"
	"testing"

	"github.com/elphin/memorylane-sub000/internal/memory"
	"github.com/elphin/memorylane-sub000/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storageEntry(name string) storage.Entry {
	return storage.Entry{Name: name}
}

func TestOrphanMetadataName(t *testing.T) {
	assert.Equal(t, "beach.md", orphanMetadataName("beach", map[string]bool{"beach.jpg": true}))
	// the plain name wins whenever it is free, even with other suffixed files around
	assert.Equal(t, "beach.md", orphanMetadataName("beach", map[string]bool{"beach_0a1b2c3d.md": true}))
	assert.Equal(t, "Beach.md", orphanMetadataName("Beach", map[string]bool{}))

	name := orphanMetadataName("beach", map[string]bool{"beach.md": true})
	base, ok := memory.ParseSuffixedSlug(strings.TrimSuffix(name, ".md"))
	require.True(t, ok, name)
	assert.Equal(t, "beach", base)

	// a photo called _event.jpg must not overwrite the descriptor
	name = orphanMetadataName("_event", map[string]bool{})
	assert.NotEqual(t, "_event.md", name)
	assert.True(t, strings.HasPrefix(name, "_event_"))
}

func TestLayoutGrid(t *testing.T) {
	t.Run("empty layout starts at origin", func(t *testing.T) {
		g := newLayoutGrid(nil)
		var got []memory.LayoutEntry
		for i := 0; i < 5; i++ {
			got = append(got, g.place(memory.LayoutEntry{Scale: 1}))
		}
		assert.Equal(t, 0.0, got[0].X)
		assert.Equal(t, 0.0, got[0].Y)
		assert.Equal(t, 0, got[0].ZIndex)
		assert.Equal(t, 960.0, got[3].X)
		assert.Equal(t, 0.0, got[4].X)
		assert.Equal(t, 320.0, got[4].Y)
		assert.Equal(t, 4, got[4].ZIndex)
	})

	t.Run("below existing entries", func(t *testing.T) {
		g := newLayoutGrid([]memory.LayoutEntry{
			{Slug: "a", Y: 100, ZIndex: 7},
			{Slug: "b", Y: -50, ZIndex: 2},
		})
		p := g.place(memory.LayoutEntry{Slug: "c", Scale: 1})
		assert.Equal(t, 420.0, p.Y)
		assert.Equal(t, 8, p.ZIndex)
		assert.Equal(t, "c", p.Slug)
	})
}

func TestUniqueFolderName(t *testing.T) {
	taken := map[string]bool{"2023-01-01 snow": true, "2023-01-01 snow (2)": true}
	assert.Equal(t, "2023-01-01 Snow (3)", uniqueFolderName("2023-01-01 Snow", taken))
	assert.Equal(t, "2023-01-02 snow", uniqueFolderName("2023-01-02 snow", taken))
}

func TestStableID(t *testing.T) {
	a := stableID("item", "2023/x/a.md")
	assert.Equal(t, a, stableID("item", "2023/x/a.md"))
	assert.NotEqual(t, a, stableID("event", "2023/x/a.md"))
	assert.Len(t, a, 36)
}
