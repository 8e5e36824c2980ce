// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package rebuild

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elphin/memorylane-sub000/internal/capture"
	"github.com/elphin/memorylane-sub000/internal/database"
	"github.com/elphin/memorylane-sub000/internal/logging"
	"github.com/elphin/memorylane-sub000/internal/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

// fakeExtractor returns fixed capture data
type fakeExtractor struct {
	shot   time.Time
	width  int
	height int
}

func (f fakeExtractor) CaptureTime([]byte) (time.Time, error) {
	if f.shot.IsZero() {
		return time.Time{}, capture.ErrNoCaptureTime
	}
	return f.shot, nil
}

func (f fakeExtractor) Dimensions([]byte) (int, int, error) {
	if f.width == 0 {
		return 0, 0, errors.New("not an image")
	}
	return f.width, f.height, nil
}

// fakeLocker is a Locker that is either free or held elsewhere
type fakeLocker struct {
	busy     bool
	unlocked int
}

func (l *fakeLocker) TryLock() (bool, error) { return !l.busy, nil }

func (l *fakeLocker) Unlock() error {
	l.unlocked++
	return nil
}

// fakeCommitter captures history commits
type fakeCommitter struct {
	messages []string
	paths    [][]string
}

func (c *fakeCommitter) Commit(_ context.Context, message string, paths []string) error {
	c.messages = append(c.messages, message)
	c.paths = append(c.paths, paths)
	return nil
}

// failingDelete refuses to delete one path
type failingDelete struct {
	*storage.Library
	path string
}

func (f failingDelete) Delete(ctx context.Context, name string) error {
	if name == f.path {
		return errors.New("permission denied")
	}
	return f.Library.Delete(ctx, name)
}

// failUnder refuses writes and deletes below one folder
type failUnder struct {
	*storage.Library
	dir string
}

func (f failUnder) denied(name string) bool {
	return strings.HasPrefix(name, f.dir+"/")
}

func (f failUnder) WriteFile(ctx context.Context, name string, data []byte) error {
	if f.denied(name) {
		return errors.New("read-only folder")
	}
	return f.Library.WriteFile(ctx, name, data)
}

func (f failUnder) Delete(ctx context.Context, name string) error {
	if f.denied(name) {
		return errors.New("read-only folder")
	}
	return f.Library.Delete(ctx, name)
}

// cancelAfterCopy cancels the run right after the first copy succeeds
type cancelAfterCopy struct {
	*storage.Library
	cancel context.CancelFunc
}

func (c cancelAfterCopy) Copy(ctx context.Context, src, dst string) error {
	err := c.Library.Copy(ctx, src, dst)
	c.cancel()
	return err
}

// pausedList holds the first root listing until released
type pausedList struct {
	*storage.Library
	entered chan struct{}
	release chan struct{}
	once    *sync.Once
}

func newPausedList(lib *storage.Library) pausedList {
	return pausedList{
		Library: lib,
		entered: make(chan struct{}),
		release: make(chan struct{}),
		once:    &sync.Once{},
	}
}

func (p pausedList) List(ctx context.Context, dir string) ([]storage.Entry, error) {
	p.once.Do(func() {
		close(p.entered)
		<-p.release
	})
	return p.Library.List(ctx, dir)
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	lib    *storage.Library
	store  *database.Store
	engine *Engine
}

func newTestStore(t *testing.T) *database.Store {
	t.Helper()
	store, err := database.Open(&database.Config{
		Type:       database.TypeSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "index.db"),
		LogLevel:   logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		lib:   storage.NewMemoryLibrary(),
		store: newTestStore(t),
	}
	f.engine = f.newEngine(f.lib, opts...)
	return f
}

func (f *fixture) newEngine(root storage.StorageRoot, opts ...Option) *Engine {
	base := []Option{
		WithLogger(logging.Discard()),
		WithExtractor(fakeExtractor{}),
	}
	return New(root, f.store, nil, append(base, opts...)...)
}

func (f *fixture) write(rel, content string) {
	f.t.Helper()
	require.NoError(f.t, f.lib.WriteFile(f.ctx, rel, []byte(content)))
}

func (f *fixture) writeAt(rel, content string, mtime time.Time) {
	f.t.Helper()
	f.write(rel, content)
	require.NoError(f.t, f.lib.Fs().Chtimes("/"+rel, mtime, mtime))
}

func (f *fixture) exists(rel string) bool {
	f.t.Helper()
	ok, err := f.lib.Exists(f.ctx, rel)
	require.NoError(f.t, err)
	return ok
}

func (f *fixture) read(rel string) string {
	f.t.Helper()
	data, err := f.lib.ReadFile(f.ctx, rel)
	require.NoError(f.t, err)
	return string(data)
}

// files lists the non-directory names in dir
func (f *fixture) files(dir string) []string {
	f.t.Helper()
	entries, err := f.lib.List(f.ctx, dir)
	require.NoError(f.t, err)
	var names []string
	for _, e := range entries {
		if !e.IsDir {
			names = append(names, e.Name)
		}
	}
	return names
}

// metadataFiles lists the .md files in dir
func (f *fixture) metadataFiles(dir string) []string {
	var out []string
	for _, name := range f.files(dir) {
		if strings.HasSuffix(name, ".md") && !strings.HasPrefix(name, "_") {
			out = append(out, name)
		}
	}
	return out
}

func (f *fixture) rebuild() *RebuildResult {
	f.t.Helper()
	result, err := f.engine.Rebuild(f.ctx)
	require.NoError(f.t, err)
	return result
}

// ids returns the sorted ids of every row of model
func (f *fixture) ids(model interface{}) []string {
	f.t.Helper()
	var ids []string
	require.NoError(f.t, f.store.DB().Model(model).Pluck("id", &ids).Error)
	sort.Strings(ids)
	return ids
}

func (f *fixture) item(slug string) *database.Item {
	f.t.Helper()
	var item database.Item
	require.NoError(f.t, f.store.DB().Where("slug = ?", slug).First(&item).Error)
	return &item
}

const cakeMD = `---
type: photo
caption: The cake
tags: [food]
people: [Anna]
---
`

// scenarioTree builds the library from the worked example: a loose photo
// in 2023 and a Birthday Party event with one described and one stray photo
func scenarioTree(f *fixture) {
	f.writeAt("2023/beach.jpg", "jpeg-bytes", time.Date(2023, 7, 14, 9, 30, 0, 0, time.UTC))
	f.write("2023/Birthday Party/cake.jpg", "jpeg-bytes")
	f.write("2023/Birthday Party/cake.md", cakeMD)
	f.write("2023/Birthday Party/extra.jpg", "jpeg-bytes")
}

func unitPaths(errs []UnitError) []string {
	paths := make([]string, 0, len(errs))
	for _, e := range errs {
		paths = append(paths, e.Path)
	}
	return paths
}
