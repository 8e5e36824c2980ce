// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package rebuild

import (
	"context"
	"sort"

	"github.com/elphin/memorylane-sub000/internal/memory"
	"github.com/elphin/memorylane-sub000/internal/storage"
)

// CleanupDuplicates removes metadata files that share a slug with another
// file in the same event folder, and auto-generated <base>_<8hex>.md files
// whose <base>.md also exists. Layout entries of removed files are dropped
// from the folder's sidecar. It never touches media and never runs
// implicitly.
func (e *Engine) CleanupDuplicates(ctx context.Context) (*CleanupResult, error) {
	start := e.now()
	release, err := e.begin(ctx, OpCleanup)
	if err != nil {
		return nil, err
	}
	defer release()

	changes := newChangeSet()
	result := &CleanupResult{}
	var errs errorList

	err = e.eachEventFolder(ctx, &errs, func(scan *folderScan) {
		removed, sidecarUpdated, folderErrs := e.cleanupFolder(ctx, scan)
		errs.merge(folderErrs)
		for _, name := range removed {
			rel := scan.path(name)
			result.Removed = append(result.Removed, rel)
			changes.add(rel)
		}
		result.FilesRemoved += len(removed)
		if sidecarUpdated {
			result.SidecarsUpdated++
			changes.add(scan.path(scan.layout))
		}
	})
	result.Errors = errs

	e.recorder.Removed(result.FilesRemoved)
	e.finish(ctx, OpCleanup, start, len(result.Errors), err, changes)
	e.logger.Info("cleanup complete",
		"removed", result.FilesRemoved,
		"sidecars_updated", result.SidecarsUpdated,
		"errors", len(result.Errors))
	return result, err
}

// duplicatesIn picks the metadata files to delete from one folder
func duplicatesIn(scan *folderScan) []string {
	mediaBySlug := scan.mediaBySlug()

	groups := make(map[string][]string)
	for _, name := range scan.metadata {
		key := memory.SlugKey(memory.SlugFromFilename(name))
		groups[key] = append(groups[key], name)
	}

	doomed := make(map[string]bool)
	survivors := make(map[string]bool)
	for key, names := range groups {
		sort.Strings(names)
		keep := names[0]
		if media, ok := mediaBySlug[key]; ok {
			mediaBase := memory.SlugFromFilename(media)
			for _, name := range names {
				if memory.SlugFromFilename(name) == mediaBase {
					keep = name
					break
				}
			}
		}
		for _, name := range names {
			if name == keep {
				survivors[key] = true
				continue
			}
			doomed[name] = true
		}
	}

	for _, name := range scan.metadata {
		if doomed[name] {
			continue
		}
		base, ok := memory.ParseSuffixedSlug(memory.SlugFromFilename(name))
		if ok && survivors[memory.SlugKey(base)] {
			doomed[name] = true
		}
	}

	out := make([]string, 0, len(doomed))
	for name := range doomed {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// cleanupFolder deletes duplicates and rewrites the sidecar
func (e *Engine) cleanupFolder(ctx context.Context, scan *folderScan) ([]string, bool, errorList) {
	var errs errorList
	var removed []string
	for _, name := range duplicatesIn(scan) {
		if err := e.root.Delete(ctx, scan.path(name)); err != nil {
			errs.add(scan.path(name), err)
			continue
		}
		e.logger.Info("removed duplicate metadata", "path", scan.path(name))
		removed = append(removed, name)
	}
	if len(removed) == 0 || scan.layout == "" {
		return removed, false, errs
	}

	// slugs still backed by a surviving file keep their layout entry
	remaining := make(map[string]bool)
	gone := make(map[string]bool, len(removed))
	for _, name := range removed {
		gone[name] = true
	}
	for _, name := range scan.metadata {
		if !gone[name] {
			remaining[memory.SlugKey(memory.SlugFromFilename(name))] = true
		}
	}
	var drop []string
	for _, name := range removed {
		slug := memory.SlugFromFilename(name)
		if !remaining[memory.SlugKey(slug)] {
			drop = append(drop, slug)
		}
	}

	layout, err := e.readLayout(ctx, scan)
	if err != nil {
		errs.add(scan.path(scan.layout), err)
		return removed, false, errs
	}
	kept, changed := memory.DropSlugs(layout, drop)
	if !changed {
		return removed, false, errs
	}
	if rel, err := e.writeLayout(ctx, scan, kept); err != nil {
		errs.add(rel, err)
		return removed, false, errs
	}
	return removed, true, errs
}

// eachEventFolder calls fn for every event folder in the library. Listing
// failures are recorded per folder; only context cancellation stops the walk.
func (e *Engine) eachEventFolder(ctx context.Context, errs *errorList, fn func(scan *folderScan)) error {
	years, err := e.listYears(ctx)
	if err != nil {
		return err
	}
	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return err
		}
		entries, err := e.root.List(ctx, year)
		if err != nil {
			errs.add(year, err)
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir || len(entry.Name) == 0 || entry.Name[0] == '.' {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			dir := storage.Join(year, entry.Name)
			scan, err := e.scanFolder(ctx, dir, memory.EventDescriptor)
			if err != nil {
				errs.add(dir, err)
				continue
			}
			fn(scan)
		}
	}
	return nil
}
