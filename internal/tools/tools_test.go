// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/elphin/memorylane-sub000/internal/database"
	"github.com/elphin/memorylane-sub000/internal/logging"
	"github.com/elphin/memorylane-sub000/internal/rebuild"
	"github.com/elphin/memorylane-sub000/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func newTestContext(t *testing.T) (*ToolContext, *storage.Library) {
	t.Helper()
	store, err := database.Open(&database.Config{
		Type:       database.TypeSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "index.db"),
		LogLevel:   logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	lib := storage.NewMemoryLibrary()
	engine := rebuild.New(lib, store, nil, rebuild.WithLogger(logging.Discard()))
	return NewToolContext(engine, nil), lib
}

func seedLibrary(t *testing.T, lib *storage.Library) {
	t.Helper()
	ctx := context.Background()
	files := map[string]string{
		"2023/_year.md":                       "---\nid: y2023\ntitle: The year of cake\n---\n",
		"2023/Birthday Party/_event.md":       "---\nid: party\ntitle: Birthday Party\nstart: 2023-06-10\nlocation: Utrecht\ntags: [family]\n---\nA big one.",
		"2023/Birthday Party/cake.md":         "---\ntype: photo\ncaption: The cake\ntags: [food]\npeople: [Anna]\n---\n",
		"2023/Birthday Party/cake.jpg":        "jpeg",
		"2023/Birthday Party/speech.md":       "---\ntype: text\ncaption: Speech\n---\nThank you all.",
		"2023/Birthday Party/_canvas.json":    `[{"slug":"cake","x":10,"y":20,"scale":1,"rotation":0,"zIndex":1}]`,
		"2024/2024-01-02 Snow day/_event.md": "---\nid: snow\n---\n",
	}
	for rel, content := range files {
		require.NoError(t, lib.WriteFile(ctx, rel, []byte(content)))
	}
}

func call(t *testing.T, h Handler, args map[string]interface{}) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, result.IsError
}

func TestRebuildAndStatus(t *testing.T) {
	tc, lib := newTestContext(t)
	seedLibrary(t, lib)

	out, isErr := call(t, StatusHandler(tc), nil)
	assert.False(t, isErr)
	assert.Contains(t, out, "mem://library")
	assert.Contains(t, out, "Last rebuild**: never")
	assert.Contains(t, out, "Run `memorylane_rebuild`")

	out, isErr = call(t, RebuildHandler(tc), nil)
	assert.False(t, isErr)
	assert.Contains(t, out, "**Years**: 2")
	assert.Contains(t, out, "**Events**: 2")
	assert.Contains(t, out, "**Items**: 2")

	out, isErr = call(t, StatusHandler(tc), nil)
	assert.False(t, isErr)
	assert.Contains(t, out, "**Items**: 2")
	assert.NotContains(t, out, "never")
	assert.NotContains(t, out, "out of date")
}

func TestRebuild_NoRoot(t *testing.T) {
	tc, _ := newTestContext(t)
	tc.Engine = rebuild.New(nil, tc.Store(), nil, rebuild.WithLogger(logging.Discard()))

	out, isErr := call(t, RebuildHandler(tc), nil)
	assert.True(t, isErr)
	assert.Contains(t, out, "no library root configured")
}

func TestTimeline(t *testing.T) {
	tc, lib := newTestContext(t)
	seedLibrary(t, lib)
	call(t, RebuildHandler(tc), nil)

	out, isErr := call(t, TimelineHandler(tc), nil)
	assert.False(t, isErr)
	assert.Contains(t, out, "**The year of cake** `2023`: 1 events")
	assert.Contains(t, out, "`2024`: 1 events")

	out, isErr = call(t, TimelineHandler(tc), map[string]interface{}{"year": float64(2023)})
	assert.False(t, isErr)
	assert.Contains(t, out, "**Birthday Party** (2023-06-10) `party` @ Utrecht")

	out, isErr = call(t, TimelineHandler(tc), map[string]interface{}{"event_id": "party"})
	assert.False(t, isErr)
	assert.Contains(t, out, "**Tags**: family")
	assert.Contains(t, out, "A big one.")
	assert.Contains(t, out, "## Items (2)")
	assert.Contains(t, out, "[photo] **The cake**")
	assert.Contains(t, out, "canvas: x=10 y=20 scale=1.00 z=1")

	_, isErr = call(t, TimelineHandler(tc), map[string]interface{}{"year": float64(1999)})
	assert.True(t, isErr)

	_, isErr = call(t, TimelineHandler(tc), map[string]interface{}{"event_id": "missing"})
	assert.True(t, isErr)
}

func TestTimeline_EmptyIndex(t *testing.T) {
	tc, _ := newTestContext(t)
	out, isErr := call(t, TimelineHandler(tc), nil)
	assert.False(t, isErr)
	assert.Contains(t, out, "index is empty")
}

func TestSearch(t *testing.T) {
	tc, lib := newTestContext(t)
	seedLibrary(t, lib)
	call(t, RebuildHandler(tc), nil)

	_, isErr := call(t, SearchHandler(tc), nil)
	assert.True(t, isErr)

	out, isErr := call(t, SearchHandler(tc), map[string]interface{}{"query": "cake"})
	assert.False(t, isErr)
	assert.Contains(t, out, "The cake")

	out, isErr = call(t, SearchHandler(tc), map[string]interface{}{"tag": "FOOD"})
	assert.False(t, isErr)
	assert.Contains(t, out, "Tagged #food (1)")

	out, isErr = call(t, SearchHandler(tc), map[string]interface{}{"person": "Anna"})
	assert.False(t, isErr)
	assert.Contains(t, out, "With Anna (1)")
	assert.Contains(t, out, "The cake")
}

func TestCleanupAndRecover(t *testing.T) {
	tc, lib := newTestContext(t)
	ctx := context.Background()
	require.NoError(t, lib.WriteFile(ctx, "2023/Trip/view.jpg", []byte("jpeg")))
	require.NoError(t, lib.WriteFile(ctx, "2023/Trip/view_0a1b2c3d.md", []byte("---\nmedia: view.jpg\n---\n")))

	out, isErr := call(t, RecoverHandler(tc), nil)
	assert.False(t, isErr)
	assert.Contains(t, out, "**Event descriptors created**: 1")
	assert.Contains(t, out, "## Rebuild complete")

	out, isErr = call(t, CleanupHandler(tc), nil)
	assert.False(t, isErr)
	assert.Contains(t, out, "**Files removed**: 0")

	out, isErr = call(t, RecoverHandler(tc), nil)
	assert.False(t, isErr)
	assert.Contains(t, out, "Nothing was missing")
}

func TestHistory_Disabled(t *testing.T) {
	tc, _ := newTestContext(t)
	out, isErr := call(t, HistoryHandler(tc), nil)
	assert.True(t, isErr)
	assert.Contains(t, out, "not enabled")
}

func TestFormatRebuild_CapsErrors(t *testing.T) {
	r := &rebuild.RebuildResult{}
	for i := 0; i < maxListedErrors+5; i++ {
		r.Errors = append(r.Errors, rebuild.UnitError{Path: "2023/x.md", Err: assert.AnError})
	}
	out := FormatRebuild(r)
	assert.Contains(t, out, "**Problems (25)**")
	assert.Contains(t, out, "... and 5 more")
}
