// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package rebuild

import (
	"testing"

	"github.com/elphin/memorylane-sub000/internal/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupDuplicates(t *testing.T) {
	history := &fakeCommitter{}
	f := newFixture(t, WithHistory(history))
	f.write("2023/Party/_event.md", "---\nid: party\n---\n")
	f.write("2023/Party/cake.jpg", "jpeg")
	f.write("2023/Party/Cake.md", "---\ncaption: upper\n---\n")
	f.write("2023/Party/cake.md", cakeMD)
	f.write("2023/Party/cake_0a1b2c3d.md", "---\nmedia: cake.jpg\n---\n")
	f.write("2023/Party/Note.md", "---\ntype: text\n---\nfirst")
	f.write("2023/Party/note.md", "---\ntype: text\n---\nsecond")
	f.write("2023/Party/_canvas.json", `[
  {"slug":"cake","x":0,"y":0,"scale":1,"rotation":0,"zIndex":1},
  {"slug":"cake_0a1b2c3d","x":320,"y":0,"scale":1,"rotation":0,"zIndex":2},
  {"slug":"note","x":640,"y":0,"scale":1,"rotation":0,"zIndex":3}
]`)
	f.write("2024/Trip/trip_deadbeef.md", "---\ntype: text\n---\nalone")

	result, err := f.engine.CleanupDuplicates(f.ctx)
	require.NoError(t, err)

	assert.Empty(t, result.Errors)
	assert.Equal(t, 3, result.FilesRemoved)
	assert.Equal(t, 1, result.SidecarsUpdated)
	assert.Equal(t, []string{
		"2023/Party/Cake.md",
		"2023/Party/cake_0a1b2c3d.md",
		"2023/Party/note.md",
	}, result.Removed)

	assert.Equal(t, []string{"Note.md", "cake.md"}, f.metadataFiles("2023/Party"))
	assert.True(t, f.exists("2023/Party/cake.jpg"))
	assert.True(t, f.exists("2024/Trip/trip_deadbeef.md"))

	layout, err := memory.ParseLayout([]byte(f.read("2023/Party/_canvas.json")))
	require.NoError(t, err)
	require.Len(t, layout, 2)
	assert.Equal(t, "cake", layout[0].Slug)
	assert.Equal(t, "note", layout[1].Slug)

	require.Len(t, history.messages, 1)
	assert.Equal(t, "memorylane: cleanup", history.messages[0])
	assert.Contains(t, history.paths[0], "2023/Party/_canvas.json")

	again, err := f.engine.CleanupDuplicates(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, again.FilesRemoved)
	assert.Zero(t, again.SidecarsUpdated)
	assert.Len(t, history.messages, 1)
}

func TestCleanupDuplicates_FolderFailureIsIsolated(t *testing.T) {
	f := newFixture(t)
	for _, dir := range []string{"2023/A", "2023/B"} {
		f.write(dir+"/cake.jpg", "jpeg")
		f.write(dir+"/cake.md", cakeMD)
		f.write(dir+"/cake_0a1b2c3d.md", "---\nmedia: cake.jpg\n---\n")
	}
	f.write("2023/B/_canvas.json", `[
  {"slug":"cake","x":0,"y":0,"scale":1,"rotation":0,"zIndex":1},
  {"slug":"cake_0a1b2c3d","x":320,"y":0,"scale":1,"rotation":0,"zIndex":2}
]`)
	f.engine = f.newEngine(failUnder{Library: f.lib, dir: "2023/A"})

	result, err := f.engine.CleanupDuplicates(f.ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"2023/A/cake_0a1b2c3d.md"}, unitPaths(result.Errors))
	assert.Equal(t, []string{"2023/B/cake_0a1b2c3d.md"}, result.Removed)
	assert.Equal(t, 1, result.FilesRemoved)
	assert.Equal(t, 1, result.SidecarsUpdated)

	assert.True(t, f.exists("2023/A/cake_0a1b2c3d.md"))
	assert.Equal(t, []string{"cake.md"}, f.metadataFiles("2023/B"))

	layout, err := memory.ParseLayout([]byte(f.read("2023/B/_canvas.json")))
	require.NoError(t, err)
	require.Len(t, layout, 1)
	assert.Equal(t, "cake", layout[0].Slug)
}

func TestCleanupDuplicates_ThenRebuild(t *testing.T) {
	f := newFixture(t)
	f.write("2023/Party/_event.md", "---\nid: party\n---\n")
	f.write("2023/Party/cake.jpg", "jpeg")
	f.write("2023/Party/cake.md", cakeMD)
	f.write("2023/Party/cake_0a1b2c3d.md", "---\nmedia: cake.jpg\n---\n")

	_, err := f.engine.CleanupDuplicates(f.ctx)
	require.NoError(t, err)

	result := f.rebuild()
	assert.Equal(t, 1, result.ItemsIndexed)
	assert.Zero(t, result.Adopted)
	assert.Equal(t, "The cake", f.item("cake").Caption)
}

func TestCleanupDuplicates_Busy(t *testing.T) {
	f := newFixture(t, WithLocker(&fakeLocker{busy: true}))
	_, err := f.engine.CleanupDuplicates(f.ctx)
	assert.ErrorIs(t, err, ErrLibraryBusy)
}

func TestDuplicatesIn(t *testing.T) {
	tests := []struct {
		name     string
		metadata []string
		media    []string
		want     []string
	}{
		{
			name:     "no duplicates",
			metadata: []string{"a.md", "b.md"},
			want:     []string{},
		},
		{
			name:     "first in name order survives without media",
			metadata: []string{"Trip.md", "trip.md"},
			want:     []string{"trip.md"},
		},
		{
			name:     "exact media base survives",
			metadata: []string{"Beach.md", "beach.md"},
			media:    []string{"beach.jpg"},
			want:     []string{"Beach.md"},
		},
		{
			name:     "suffixed file with surviving base",
			metadata: []string{"dog.md", "dog_12ab34cd.md"},
			want:     []string{"dog_12ab34cd.md"},
		},
		{
			name:     "suffixed file without base is kept",
			metadata: []string{"dog_12ab34cd.md"},
			want:     []string{},
		},
		{
			name:     "suffix must be eight hex digits",
			metadata: []string{"dog.md", "dog_party.md", "dog_12ab34c.md"},
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scan := &folderScan{dir: "2023/x", metadata: tt.metadata}
			for _, name := range tt.media {
				scan.media = append(scan.media, storageEntry(name))
			}
			assert.Equal(t, tt.want, duplicatesIn(scan))
		})
	}
}
