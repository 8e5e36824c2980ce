// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package rebuild

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/elphin/memorylane-sub000/internal/database"
	"github.com/elphin/memorylane-sub000/internal/memory"
	"github.com/elphin/memorylane-sub000/internal/storage"
)

// pass carries the state of one rebuild walk
type pass struct {
	tx      *database.Store
	result  *RebuildResult
	errs    errorList
	seen    map[string]bool
	changes *changeSet
}

// claimID returns id, or a path-derived id when id is empty or already used
func (p *pass) claimID(id, kind, rel string) (string, error) {
	if id == "" || p.seen[id] {
		id = stableID(kind, rel)
	}
	if p.seen[id] {
		return "", fmt.Errorf("duplicate id %s", id)
	}
	p.seen[id] = true
	return id, nil
}

// indexYear inserts the year record for a year folder
func (e *Engine) indexYear(ctx context.Context, p *pass, scan *folderScan) (*database.Event, error) {
	name := scan.dir
	number, err := strconv.Atoi(name)
	if err != nil {
		return nil, fmt.Errorf("not a year folder: %s", name)
	}

	desc := &memory.Descriptor{}
	descPath := storage.Join(name, memory.YearDescriptor)
	if scan.descriptor != "" {
		descPath = scan.path(scan.descriptor)
		parsed, err := e.readDescriptor(ctx, descPath)
		if err != nil {
			p.errs.add(descPath, err)
		} else {
			desc = parsed
		}
	}

	if desc.ID == "" || p.seen[desc.ID] {
		desc.ID = "year-" + name
	}
	id, err := p.claimID(desc.ID, "year", name)
	if err != nil {
		return nil, err
	}

	start, end := memory.YearRange(number)
	year := &database.Event{
		ID:            id,
		Type:          database.EventTypeYear,
		Title:         firstNonEmpty(desc.Title, name),
		Description:   desc.Description,
		StartAt:       &start,
		EndAt:         &end,
		Location:      desc.Location,
		FeaturedPhoto: desc.FeaturedPhoto,
		FolderPath:    name,
	}
	if t := desc.Start.Ptr(); t != nil {
		year.StartAt = t
	}
	if t := desc.End.Ptr(); t != nil {
		year.EndAt = t
	}

	err = p.tx.Transaction(ctx, func(sp *database.Store) error {
		if err := sp.InsertEvent(ctx, year, desc.Tags); err != nil {
			return err
		}
		return e.recordFile(ctx, sp, descPath, database.RecordYear, scan.entry(scan.descriptor))
	})
	if err != nil {
		return nil, err
	}
	return year, nil
}

// eventStats counts what one event folder contributed
type eventStats struct {
	items   int
	adopted int
}

// indexEvent inserts an event folder, adopts its orphan media, and indexes
// its items and layout
func (e *Engine) indexEvent(ctx context.Context, p *pass, year *database.Event, scan *folderScan) (eventStats, error) {
	var stats eventStats
	dir := scan.dir
	folderName := dir[strings.LastIndex(dir, "/")+1:]

	desc := e.eventDescriptor(ctx, p, scan)

	id, err := p.claimID(desc.ID, "event", dir)
	if err != nil {
		return stats, err
	}
	yearNumber, _ := strconv.Atoi(year.FolderPath)
	guess := memory.InferEvent(folderName, yearNumber)

	event := &database.Event{
		ID:            id,
		Type:          database.EventTypeEvent,
		ParentID:      &year.ID,
		Title:         firstNonEmpty(desc.Title, guess.Title),
		Description:   desc.Description,
		StartAt:       desc.Start.Ptr(),
		EndAt:         desc.End.Ptr(),
		Location:      desc.Location,
		FeaturedPhoto: desc.FeaturedPhoto,
		FolderPath:    dir,
	}
	if event.StartAt == nil {
		start := guess.Start
		event.StartAt = &start
	}
	if err := p.tx.InsertEvent(ctx, event, desc.Tags); err != nil {
		return stats, err
	}
	descPath := storage.Join(dir, firstNonEmpty(scan.descriptor, memory.EventDescriptor))
	if err := e.recordFile(ctx, p.tx, descPath, database.RecordEvent, scan.entry(scan.descriptor)); err != nil {
		return stats, err
	}

	parsed, parseErrs := e.readItems(ctx, scan)
	p.errs.merge(parseErrs)
	for _, err := range parseErrs {
		e.logger.Warn("skipping malformed metadata", "path", err.Path, "error", err.Err)
	}

	layout, err := e.readLayout(ctx, scan)
	layoutOK := err == nil
	if err != nil {
		p.errs.add(scan.path(scan.layout), err)
		layout = nil
	}

	names := make([]string, 0, len(scan.metadata))
	for _, name := range scan.metadata {
		if parsed[name] != nil {
			names = append(names, name)
		}
	}

	if orphans := scan.orphans(parsed); len(orphans) > 0 {
		taken := scan.taken()
		grid := newLayoutGrid(layout)
		var placements []memory.LayoutEntry
		for _, media := range orphans {
			syn, err := e.synthesizeOrphan(ctx, dir, media, taken, true)
			if err != nil {
				p.errs.add(scan.path(media.Name), err)
				continue
			}
			taken[strings.ToLower(syn.Name)] = true
			parsed[syn.Name] = syn.Item
			names = append(names, syn.Name)
			placements = append(placements, grid.place(syn.Placement))
			p.changes.add(scan.path(syn.Name))
			stats.adopted++
		}

		if len(placements) > 0 && layoutOK {
			layout = append(layout, placements...)
			rel, err := e.writeLayout(ctx, scan, layout)
			if err != nil {
				p.errs.add(rel, err)
			} else {
				p.changes.add(rel)
			}
		}
		sort.Strings(names)
	}

	media := mediaIndex{bySlug: scan.mediaBySlug(), byName: scan.mediaByName()}
	itemIDs := make(map[string]string, len(names))
	for _, name := range names {
		item, err := e.indexItem(ctx, p, scan, name, parsed[name], event.ID, media)
		if err != nil {
			p.errs.add(scan.path(name), err)
			continue
		}
		itemIDs[memory.SlugKey(memory.SlugFromFilename(name))] = item.ID
		stats.items++
	}

	for _, entry := range layout {
		itemID, ok := itemIDs[memory.SlugKey(entry.Slug)]
		if !ok {
			continue
		}
		row := &database.CanvasItem{
			EventID:  event.ID,
			ItemID:   itemID,
			X:        entry.X,
			Y:        entry.Y,
			Scale:    entry.Scale,
			Rotation: entry.Rotation,
			ZIndex:   entry.ZIndex,
			Width:    entry.Width,
			Height:   entry.Height,
		}
		if err := p.tx.UpsertLayout(ctx, row); err != nil {
			p.errs.add(scan.path(scan.layout), err)
		}
	}

	return stats, nil
}

// eventDescriptor reads _event.md, or infers one from the folder name and
// writes it back so the id stays stable
func (e *Engine) eventDescriptor(ctx context.Context, p *pass, scan *folderScan) *memory.Descriptor {
	dir := scan.dir
	if scan.descriptor != "" {
		rel := scan.path(scan.descriptor)
		desc, err := e.readDescriptor(ctx, rel)
		if err != nil {
			// keep the user's file untouched and fall back to the folder name
			p.errs.add(rel, err)
			return &memory.Descriptor{ID: stableID("event", dir)}
		}
		if desc.ID == "" {
			desc.ID = stableID("event", dir)
		}
		return desc
	}

	desc := e.inferDescriptor(dir)
	rel := storage.Join(dir, memory.EventDescriptor)
	data, err := e.codec.EncodeDescriptor(desc)
	if err == nil {
		err = e.root.WriteFile(ctx, rel, data)
	}
	if err != nil {
		p.errs.add(rel, err)
		desc.ID = stableID("event", dir)
		return desc
	}
	p.changes.add(rel)
	e.logger.Info("created event descriptor", "path", rel, "id", desc.ID)
	return desc
}

// mediaIndex resolves media filenames within one event folder
type mediaIndex struct {
	bySlug map[string]string
	byName map[string]string
}

// resolve returns the media filename an item refers to, "" when none
func (m mediaIndex) resolve(it *memory.Item, slug string) string {
	if it.Media != "" {
		return m.byName[strings.ToLower(it.Media)]
	}
	return m.bySlug[memory.SlugKey(slug)]
}

// indexItem inserts one item row and its file bookkeeping
func (e *Engine) indexItem(ctx context.Context, p *pass, scan *folderScan, name string, it *memory.Item, eventID string, media mediaIndex) (*database.Item, error) {
	rel := scan.path(name)
	slug := memory.SlugFromFilename(name)

	itemType := it.Type
	mediaName := ""
	if itemType == "" || itemType.IsMedia() {
		mediaName = media.resolve(it, slug)
	}
	if itemType == "" {
		switch {
		case mediaName != "":
			itemType = e.codec.MediaType(mediaName)
		case it.URL != "":
			itemType = memory.ItemLink
		default:
			itemType = memory.ItemText
		}
	}

	row := &database.Item{
		EventID:    eventID,
		ItemType:   string(itemType),
		Caption:    it.Caption,
		HappenedAt: it.HappenedAt.Ptr(),
		Place:      it.Place,
		Slug:       slug,
		SourcePath: rel,
	}

	switch itemType {
	case memory.ItemText:
		row.Content = it.Body
	case memory.ItemLink:
		row.Content = firstNonEmpty(it.URL, strings.TrimSpace(it.Body))
	default:
		if mediaName == "" {
			e.logger.Warn("no media file for item", "path", rel, "media", it.Media)
			row.Content = it.Body
			break
		}
		row.MediaPath = scan.path(mediaName)
		row.Content = row.MediaPath
	}

	id, err := p.claimID(it.ID, "item", rel)
	if err != nil {
		return nil, err
	}
	row.ID = id

	err = p.tx.Transaction(ctx, func(sp *database.Store) error {
		if err := sp.InsertItem(ctx, row, it.Tags, it.People); err != nil {
			return err
		}
		return e.recordFile(ctx, sp, rel, database.RecordItem, scan.entry(name))
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// recordFile writes the bookkeeping row for rel. entry may be nil when the
// file was absent from the listing.
func (e *Engine) recordFile(ctx context.Context, tx *database.Store, rel, kind string, entry *storage.Entry) error {
	row := &database.FileIndexEntry{
		Path:       rel,
		RecordType: kind,
		IndexedAt:  e.now().UTC(),
	}
	if entry == nil {
		if stat, err := e.root.Stat(ctx, rel); err == nil {
			entry = &stat
		}
	}
	if entry != nil {
		mod := entry.ModTime
		row.ModTime = &mod
		row.Size = entry.Size
	}
	return tx.RecordFile(ctx, row)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
