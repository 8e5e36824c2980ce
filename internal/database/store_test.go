// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(&Config{
		Type:       TypeSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "index.db"),
		LogLevel:   logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func ptr[T any](v T) *T { return &v }

// seed writes one year, one event with two items, and a layout row
func seed(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	party := time.Date(2023, 6, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertEvent(ctx, &Event{
		ID: "year-2023", Type: EventTypeYear, Title: "2023", StartAt: &start, FolderPath: "2023",
	}, nil))
	require.NoError(t, store.InsertEvent(ctx, &Event{
		ID: "ev-1", Type: EventTypeEvent, ParentID: ptr("year-2023"), Title: "Birthday Party",
		StartAt: &party, Location: "Utrecht", FolderPath: "2023/Birthday Party",
	}, []string{"Family", "family", " party "}))
	require.NoError(t, store.InsertItem(ctx, &Item{
		ID: "it-cake", EventID: "ev-1", ItemType: "photo", Content: "2023/Birthday Party/cake.jpg",
		Caption: "The cake", Slug: "cake", SourcePath: "2023/Birthday Party/cake.md",
		MediaPath: "2023/Birthday Party/cake.jpg",
	}, []string{"Food"}, []string{"Anna", "Bram", "Anna"}))
	require.NoError(t, store.InsertItem(ctx, &Item{
		ID: "it-note", EventID: "ev-1", ItemType: "text", Content: "50% of the guests sang",
		Slug: "note", SourcePath: "2023/Birthday Party/note.md",
	}, nil, []string{"Bram"}))
	require.NoError(t, store.UpsertLayout(ctx, &CanvasItem{
		EventID: "ev-1", ItemID: "it-cake", X: 10, Y: 20, Scale: 1, ZIndex: 2,
	}))
}

func TestStore_InsertAndRead(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seed(t, store)

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Counts{Years: 1, Events: 1, Items: 2}, counts)

	years, err := store.Years(ctx)
	require.NoError(t, err)
	require.Len(t, years, 1)
	assert.Equal(t, "year-2023", years[0].ID)

	events, err := store.EventsForYear(ctx, "year-2023")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Birthday Party", events[0].Title)
	require.Len(t, events[0].Tags, 2)

	items, err := store.ItemsForEvent(ctx, "ev-1")
	require.NoError(t, err)
	require.Len(t, items, 2)

	var cake Item
	for _, it := range items {
		if it.ID == "it-cake" {
			cake = it
		}
	}
	assert.Len(t, cake.People, 2)
	require.Len(t, cake.Tags, 1)
	assert.Equal(t, "food", cake.Tags[0].Tag)
}

func TestStore_UpsertLayoutReplaces(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seed(t, store)

	require.NoError(t, store.UpsertLayout(ctx, &CanvasItem{
		EventID: "ev-1", ItemID: "it-cake", X: 99, Y: 1, Scale: 2, Width: ptr(640.0),
	}))

	layout, err := store.LayoutForEvent(ctx, "ev-1")
	require.NoError(t, err)
	require.Len(t, layout, 1)
	assert.Equal(t, 99.0, layout[0].X)
	assert.Equal(t, 2.0, layout[0].Scale)
	require.NotNil(t, layout[0].Width)
	assert.Equal(t, 640.0, *layout[0].Width)
}

func TestStore_TagPersonSearch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seed(t, store)

	items, err := store.ItemsByTag(ctx, "FOOD")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "it-cake", items[0].ID)

	items, err = store.ItemsByPerson(ctx, "bram")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	result, err := store.Search(ctx, "utrecht", 0)
	require.NoError(t, err)
	assert.Len(t, result.Events, 1)
	assert.Empty(t, result.Items)

	result, err = store.Search(ctx, "50%", 0)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "it-note", result.Items[0].ID)

	result, err = store.Search(ctx, "  ", 0)
	require.NoError(t, err)
	assert.Empty(t, result.Items)
}

func TestStore_Meta(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, ok, err := store.GetMeta(ctx, MetaSchemaVersion)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetMeta(ctx, MetaSchemaVersion, "1"))
	require.NoError(t, store.SetMeta(ctx, MetaSchemaVersion, "2"))

	value, ok, err := store.GetMeta(ctx, MetaSchemaVersion)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", value)
}

func TestStore_RecordFileUpserts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	now := time.Now().UTC()
	require.NoError(t, store.RecordFile(ctx, &FileIndexEntry{Path: "2023/_year.md", RecordType: RecordYear, IndexedAt: now}))
	require.NoError(t, store.RecordFile(ctx, &FileIndexEntry{Path: "2023/_year.md", RecordType: RecordYear, Size: 12, IndexedAt: now}))

	var entries []FileIndexEntry
	require.NoError(t, store.DB().Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(12), entries[0].Size)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seed(t, store)
	require.NoError(t, store.SetMeta(ctx, MetaSchemaVersion, "1"))

	require.NoError(t, store.Clear(ctx))

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Counts{}, counts)
	_, ok, err := store.GetMeta(ctx, MetaSchemaVersion)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_TransactionRollback(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seed(t, store)

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(tx *Store) error {
		require.NoError(t, tx.Clear(ctx))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.Items)
}

func TestStore_SnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := newTestStore(t)
	seed(t, source)
	require.NoError(t, source.SetMeta(ctx, MetaSchemaVersion, "1"))

	data, err := source.ExportSnapshot(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	target := newTestStore(t)
	require.NoError(t, target.ImportSnapshot(ctx, data))

	counts, err := target.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Counts{Years: 1, Events: 1, Items: 2}, counts)

	value, ok, err := target.GetMeta(ctx, MetaSchemaVersion)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", value)

	items, err := target.ItemsByPerson(ctx, "anna")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
