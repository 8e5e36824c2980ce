// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package rebuild

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elphin/memorylane-sub000/internal/memory"
	"github.com/elphin/memorylane-sub000/internal/storage"
)

// Orphan placement grid
const (
	gridColumns = 4
	gridCell    = 320.0
)

// synthesized is a metadata file written for an orphan media file
type synthesized struct {
	Name      string
	Item      *memory.Item
	Placement memory.LayoutEntry
}

// synthesizeOrphan writes <media-base>.md (or a suffixed name when that is
// taken) pointing at media. The returned placement has no position yet.
func (e *Engine) synthesizeOrphan(ctx context.Context, dir string, media storage.Entry, taken map[string]bool, withCapture bool) (*synthesized, error) {
	base := memory.SlugFromFilename(media.Name)
	name := orphanMetadataName(base, taken)
	kind := e.codec.MediaType(media.Name)

	it := &memory.Item{
		ID:      e.newID(),
		Type:    kind,
		Caption: memory.CaptionFromFilename(media.Name),
		Media:   media.Name,
	}
	placement := memory.LayoutEntry{Slug: memory.SlugFromFilename(name), Scale: 1}

	if withCapture && kind == memory.ItemPhoto {
		shot, w, h := e.inspectPhoto(ctx, storage.Join(dir, media.Name))
		if !shot.IsZero() {
			it.HappenedAt = memory.NewTimestamp(shot)
		}
		placement.Width, placement.Height = w, h
	}

	data, err := e.codec.EncodeItem(it)
	if err != nil {
		return nil, err
	}
	if err := e.root.WriteFile(ctx, storage.Join(dir, name), data); err != nil {
		return nil, err
	}

	e.logger.Info("adopted orphan media", "folder", dir, "media", media.Name, "metadata", name)
	return &synthesized{Name: name, Item: it, Placement: placement}, nil
}

// inspectPhoto returns capture time and pixel size when they can be read
func (e *Engine) inspectPhoto(ctx context.Context, rel string) (time.Time, *float64, *float64) {
	if e.extractor == nil {
		return time.Time{}, nil, nil
	}
	data, err := e.root.ReadFile(ctx, rel)
	if err != nil {
		e.logger.Debug("photo unreadable", "path", rel, "error", err)
		return time.Time{}, nil, nil
	}

	taken, err := e.extractor.CaptureTime(data)
	if err != nil {
		taken = time.Time{}
	}

	var width, height *float64
	if w, h, err := e.extractor.Dimensions(data); err == nil && w > 0 && h > 0 {
		fw, fh := float64(w), float64(h)
		width, height = &fw, &fh
	}
	return taken, width, height
}

// orphanMetadataName picks the plain <base>.md so the metadata joins its
// media by slug. The <base>_<8hex>.md form is only used when the plain name
// is taken or reserved, which means the suffix is the exception rather than
// the default naming for orphan metadata.
func orphanMetadataName(base string, taken map[string]bool) string {
	name := base + memory.MetadataExt
	if !taken[strings.ToLower(name)] && !memory.IsReserved(name) {
		return name
	}
	for {
		name = memory.SuffixedSlug(base, hexSuffix()) + memory.MetadataExt
		if !taken[strings.ToLower(name)] {
			return name
		}
	}
}

// layoutGrid hands out non-overlapping cells below an existing layout
type layoutGrid struct {
	startY float64
	z      int
	next   int
}

func newLayoutGrid(existing []memory.LayoutEntry) *layoutGrid {
	g := &layoutGrid{}
	if len(existing) == 0 {
		return g
	}
	maxY, maxZ := existing[0].Y, existing[0].ZIndex
	for _, entry := range existing[1:] {
		if entry.Y > maxY {
			maxY = entry.Y
		}
		if entry.ZIndex > maxZ {
			maxZ = entry.ZIndex
		}
	}
	g.startY = maxY + gridCell
	g.z = maxZ + 1
	return g
}

// place positions p in the next free cell
func (g *layoutGrid) place(p memory.LayoutEntry) memory.LayoutEntry {
	col, row := g.next%gridColumns, g.next/gridColumns
	p.X = float64(col) * gridCell
	p.Y = g.startY + float64(row)*gridCell
	p.ZIndex = g.z + g.next
	g.next++
	return p
}

// promoteLoose moves a media file lying directly in a year folder into a
// new dated event folder with its descriptor, item and sidecar. It returns
// the new folder name once the file has moved, even when writing the
// metadata afterwards failed.
func (e *Engine) promoteLoose(ctx context.Context, year string, media storage.Entry, taken map[string]bool, changes *changeSet) (string, error) {
	src := storage.Join(year, media.Name)
	kind := e.codec.MediaType(media.Name)

	var date time.Time
	var width, height *float64
	if kind == memory.ItemPhoto {
		date, width, height = e.inspectPhoto(ctx, src)
	}
	if date.IsZero() {
		date = media.ModTime
	}
	if date.IsZero() {
		date = e.now()
	}

	caption := memory.CaptionFromFilename(media.Name)
	folder := uniqueFolderName(memory.EventFolderName(date, caption), taken)
	dir := storage.Join(year, folder)
	dst := storage.Join(dir, media.Name)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := e.root.Mkdir(ctx, dir); err != nil {
		return "", fmt.Errorf("failed to create event folder: %w", err)
	}
	// undo must finish even when ctx is what stopped the move
	undo := context.WithoutCancel(ctx)
	if err := e.root.Copy(ctx, src, dst); err != nil {
		_ = e.root.Delete(undo, dst)
		_ = e.root.Delete(undo, dir)
		return "", err
	}
	if err := e.root.Delete(ctx, src); err != nil {
		// leave the file where it was for a later pass
		_ = e.root.Delete(undo, dst)
		_ = e.root.Delete(undo, dir)
		return "", err
	}
	taken[strings.ToLower(folder)] = true
	changes.add(src, dst)

	title := caption
	if title == "" {
		title = folder
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	desc := &memory.Descriptor{
		ID:    e.newID(),
		Type:  memory.EventTypeEvent,
		Title: title,
		Start: memory.NewTimestamp(day),
	}

	base := memory.SlugFromFilename(media.Name)
	itemName := orphanMetadataName(base, map[string]bool{strings.ToLower(media.Name): true})
	it := &memory.Item{
		ID:         e.newID(),
		Type:       kind,
		Caption:    caption,
		Media:      media.Name,
		HappenedAt: memory.NewTimestamp(date),
	}
	layout := []memory.LayoutEntry{{
		Slug:   memory.SlugFromFilename(itemName),
		Scale:  1,
		Width:  width,
		Height: height,
	}}

	var errs []error
	if data, err := e.codec.EncodeDescriptor(desc); err != nil {
		errs = append(errs, err)
	} else if err := e.root.WriteFile(ctx, storage.Join(dir, memory.EventDescriptor), data); err != nil {
		errs = append(errs, err)
	} else {
		changes.add(storage.Join(dir, memory.EventDescriptor))
	}
	if data, err := e.codec.EncodeItem(it); err != nil {
		errs = append(errs, err)
	} else if err := e.root.WriteFile(ctx, storage.Join(dir, itemName), data); err != nil {
		errs = append(errs, err)
	} else {
		changes.add(storage.Join(dir, itemName))
	}
	if data, err := e.codec.EncodeLayout(layout); err != nil {
		errs = append(errs, err)
	} else if err := e.root.WriteFile(ctx, storage.Join(dir, memory.LayoutSidecar), data); err != nil {
		errs = append(errs, err)
	} else {
		changes.add(storage.Join(dir, memory.LayoutSidecar))
	}

	e.logger.Info("promoted loose media", "year", year, "media", media.Name, "event", folder)
	return folder, errors.Join(errs...)
}

// uniqueFolderName appends " (n)" until name is free
func uniqueFolderName(name string, taken map[string]bool) string {
	if !taken[strings.ToLower(name)] {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		if !taken[strings.ToLower(candidate)] {
			return candidate
		}
	}
}
