// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package rebuild

import (
	"context"
	"strconv"
	"strings"

	"github.com/elphin/memorylane-sub000/internal/memory"
)

// RecoverFromMedia rebuilds missing metadata for a library that has media
// but few or no .md files: every event folder without _event.md gets one
// inferred from its name, and every unclaimed media file gets a minimal
// item file. Created files stay even when a later folder fails. When
// anything was created the index is rebuilt and the result attached.
func (e *Engine) RecoverFromMedia(ctx context.Context) (*RecoveryResult, error) {
	start := e.now()
	release, err := e.begin(ctx, OpRecover)
	if err != nil {
		return nil, err
	}
	defer release()

	changes := newChangeSet()
	result := &RecoveryResult{}
	var errs errorList

	err = e.eachEventFolder(ctx, &errs, func(scan *folderScan) {
		events, items, folderErrs := e.recoverFolder(ctx, scan, changes)
		result.EventsCreated += events
		result.ItemsCreated += items
		errs.merge(folderErrs)
	})
	result.Errors = errs

	e.recorder.Synthesized("recovered_event", result.EventsCreated)
	e.recorder.Synthesized("recovered_item", result.ItemsCreated)
	e.logger.Info("recovery complete",
		"events_created", result.EventsCreated,
		"items_created", result.ItemsCreated,
		"errors", len(result.Errors))

	if err == nil && result.EventsCreated+result.ItemsCreated > 0 {
		result.Rebuild, err = e.rebuild(ctx, changes)
	}

	unitErrors := len(result.Errors)
	if result.Rebuild != nil {
		unitErrors += len(result.Rebuild.Errors)
	}
	e.finish(ctx, OpRecover, start, unitErrors, err, changes)
	return result, err
}

// recoverFolder writes the descriptor and item files one folder lacks
func (e *Engine) recoverFolder(ctx context.Context, scan *folderScan, changes *changeSet) (int, int, errorList) {
	var errs errorList
	var events, items int

	if scan.descriptor == "" {
		if err := e.recoverDescriptor(ctx, scan); err != nil {
			errs.add(scan.path(memory.EventDescriptor), err)
		} else {
			events++
			changes.add(scan.path(memory.EventDescriptor))
		}
	}

	// unreadable metadata still claims media by slug
	parsed, _ := e.readItems(ctx, scan)
	taken := scan.taken()
	for _, media := range scan.orphans(parsed) {
		syn, err := e.synthesizeOrphan(ctx, scan.dir, media, taken, false)
		if err != nil {
			errs.add(scan.path(media.Name), err)
			continue
		}
		taken[strings.ToLower(syn.Name)] = true
		changes.add(scan.path(syn.Name))
		items++
	}
	return events, items, errs
}

func (e *Engine) recoverDescriptor(ctx context.Context, scan *folderScan) error {
	data, err := e.codec.EncodeDescriptor(e.inferDescriptor(scan.dir))
	if err != nil {
		return err
	}
	return e.root.WriteFile(ctx, scan.path(memory.EventDescriptor), data)
}

// inferDescriptor builds a fresh event descriptor from a "YYYY/<folder>" path
func (e *Engine) inferDescriptor(dir string) *memory.Descriptor {
	year, folder := dir, dir
	if i := strings.LastIndex(dir, "/"); i >= 0 {
		year, folder = dir[:i], dir[i+1:]
	}
	yearNumber, _ := strconv.Atoi(year)
	guess := memory.InferEvent(folder, yearNumber)

	return &memory.Descriptor{
		ID:    e.newID(),
		Type:  memory.EventTypeEvent,
		Title: guess.Title,
		Start: memory.NewTimestamp(guess.Start),
	}
}
