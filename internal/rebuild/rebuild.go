// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package rebuild

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/elphin/memorylane-sub000/internal/database"
	"github.com/elphin/memorylane-sub000/internal/locking"
	"github.com/elphin/memorylane-sub000/internal/memory"
	"github.com/elphin/memorylane-sub000/internal/storage"
)

// SnapshotPath is where the index snapshot is kept inside the library
var SnapshotPath = storage.Join(locking.StateDir, "index.db")

// Rebuild clears the index and repopulates it from the library folder,
// adopting orphan and loose media on the way. The new index replaces the
// old one only when the walk completes; a cancelled context leaves the
// previous index in place and returns the context error.
func (e *Engine) Rebuild(ctx context.Context) (*RebuildResult, error) {
	start := e.now()
	release, err := e.begin(ctx, OpRebuild)
	if err != nil {
		return nil, err
	}
	defer release()

	changes := newChangeSet()
	result, err := e.rebuild(ctx, changes)
	e.finish(ctx, OpRebuild, start, len(result.Errors), err, changes)
	return result, err
}

// rebuild is Rebuild without preconditions or locking
func (e *Engine) rebuild(ctx context.Context, changes *changeSet) (*RebuildResult, error) {
	start := e.now()
	result := &RebuildResult{}
	p := &pass{result: result, seen: make(map[string]bool), changes: changes}

	e.logger.Info("rebuilding index", "root", e.root.Root())

	err := e.store.Transaction(ctx, func(tx *database.Store) error {
		p.tx = tx
		if err := tx.Clear(ctx); err != nil {
			return err
		}

		years, err := e.listYears(ctx)
		if err != nil {
			return err
		}
		for _, year := range years {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := e.indexYearFolder(ctx, p, year); err != nil {
				return err
			}
		}

		if err := tx.SetMeta(ctx, database.MetaSchemaVersion, SchemaVersion); err != nil {
			return err
		}
		return tx.SetMeta(ctx, database.MetaLastRebuild, e.now().UTC().Format(time.RFC3339))
	})
	result.Errors = p.errs
	if err != nil {
		result.Duration = e.now().Sub(start)
		return result, fmt.Errorf("rebuild aborted: %w", err)
	}

	e.exportSnapshot(ctx, p)
	result.Errors = p.errs
	result.Duration = e.now().Sub(start)
	e.recorder.Indexed(result.YearsIndexed, result.EventsIndexed, result.ItemsIndexed, e.now())
	e.recorder.Synthesized("orphan", result.Adopted)
	e.recorder.Synthesized("loose", len(result.Promoted))

	e.logger.Info("rebuild complete",
		"years", result.YearsIndexed,
		"events", result.EventsIndexed,
		"items", result.ItemsIndexed,
		"promoted", len(result.Promoted),
		"adopted", result.Adopted,
		"errors", len(result.Errors),
		"duration", result.Duration)
	return result, nil
}

// listYears returns the year-shaped folders under the root, ascending
func (e *Engine) listYears(ctx context.Context) ([]string, error) {
	entries, err := e.root.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list library root: %w", err)
	}
	var years []string
	for _, entry := range entries {
		if entry.IsDir && memory.IsYearFolder(entry.Name) {
			years = append(years, entry.Name)
		}
	}
	sort.Strings(years)
	return years, nil
}

// indexYearFolder indexes one year and all its events. Only context
// cancellation and store failures are returned; everything else lands in
// the pass's error list.
func (e *Engine) indexYearFolder(ctx context.Context, p *pass, name string) error {
	scan, err := e.scanFolder(ctx, name, memory.YearDescriptor)
	if err != nil {
		p.errs.add(name, err)
		return ctx.Err()
	}

	year, err := e.indexYear(ctx, p, scan)
	if err != nil {
		p.errs.add(name, err)
		return ctx.Err()
	}
	p.result.YearsIndexed++

	taken := scan.taken()
	folders := append([]string(nil), scan.subdirs...)
	for _, media := range scan.media {
		folder, err := e.promoteLoose(ctx, name, media, taken, p.changes)
		if folder != "" {
			p.result.Promoted = append(p.result.Promoted, storage.Join(name, folder))
			folders = append(folders, folder)
		}
		if err != nil {
			p.errs.add(storage.Join(name, media.Name), err)
		}
	}
	sort.Strings(folders)

	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.HasPrefix(folder, ".") {
			continue
		}
		dir := storage.Join(name, folder)
		stats, err := e.indexEventFolder(ctx, p, year, dir)
		if err != nil {
			p.errs.add(dir, err)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			continue
		}
		p.result.EventsIndexed++
		p.result.ItemsIndexed += stats.items
		p.result.Adopted += stats.adopted
	}
	return nil
}

// indexEventFolder runs indexEvent inside a savepoint so a failing folder
// leaves no partial rows behind
func (e *Engine) indexEventFolder(ctx context.Context, p *pass, year *database.Event, dir string) (eventStats, error) {
	scan, err := e.scanFolder(ctx, dir, memory.EventDescriptor)
	if err != nil {
		return eventStats{}, err
	}

	var stats eventStats
	outer := p.tx
	defer func() { p.tx = outer }()
	err = outer.Transaction(ctx, func(sp *database.Store) error {
		p.tx = sp
		var err error
		stats, err = e.indexEvent(ctx, p, year, scan)
		return err
	})
	return stats, err
}

// NeedsRebuild reports whether the index is missing or was built by a
// different schema version
func (e *Engine) NeedsRebuild(ctx context.Context) (bool, error) {
	if e.store == nil {
		return false, ErrNoIndex
	}
	version, ok, err := e.store.GetMeta(ctx, database.MetaSchemaVersion)
	if err != nil {
		return false, err
	}
	return !ok || version != SchemaVersion, nil
}

// LoadSnapshot imports the snapshot kept in the library into an empty or
// stale index. It reports whether a snapshot was loaded.
func (e *Engine) LoadSnapshot(ctx context.Context) (bool, error) {
	if e.root == nil || e.root.Root() == "" {
		return false, ErrNoRoot
	}
	if e.store == nil {
		return false, ErrNoIndex
	}
	if !e.running.TryLock() {
		return false, ErrLibraryBusy
	}
	defer e.running.Unlock()
	ok, err := e.root.Exists(ctx, SnapshotPath)
	if err != nil || !ok {
		return false, err
	}
	data, err := e.root.ReadFile(ctx, SnapshotPath)
	if err != nil {
		return false, err
	}
	if err := e.store.ImportSnapshot(ctx, data); err != nil {
		if errors.Is(err, database.ErrSnapshotUnsupported) {
			return false, nil
		}
		return false, err
	}
	e.logger.Info("loaded index snapshot", "path", SnapshotPath)
	return true, nil
}

// exportSnapshot writes the committed index to the library via a temp file
func (e *Engine) exportSnapshot(ctx context.Context, p *pass) {
	data, err := e.store.ExportSnapshot(ctx)
	if errors.Is(err, database.ErrSnapshotUnsupported) {
		e.logger.Debug("index snapshot skipped", "dialect", e.store.Dialect())
		return
	}
	if err != nil {
		p.errs.add(SnapshotPath, err)
		return
	}

	tmp := SnapshotPath + ".tmp"
	if err := e.root.WriteFile(ctx, tmp, data); err != nil {
		p.errs.add(SnapshotPath, err)
		return
	}
	if err := e.root.Rename(ctx, tmp, SnapshotPath); err != nil {
		_ = e.root.Delete(ctx, tmp)
		p.errs.add(SnapshotPath, err)
	}
}
