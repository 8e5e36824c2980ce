// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package rebuild

import (
	"context"
	"strings"

	"github.com/elphin/memorylane-sub000/internal/memory"
	"github.com/elphin/memorylane-sub000/internal/storage"
)

// folderScan is one listing of a year or event folder, partitioned
type folderScan struct {
	dir        string
	entries    map[string]storage.Entry
	metadata   []string
	media      []storage.Entry
	subdirs    []string
	descriptor string // actual name of _year.md / _event.md, "" when absent
	layout     string // actual name of _canvas.json, "" when absent
}

func (e *Engine) scanFolder(ctx context.Context, dir, descriptorName string) (*folderScan, error) {
	list, err := e.root.List(ctx, dir)
	if err != nil {
		return nil, err
	}

	scan := &folderScan{dir: dir, entries: make(map[string]storage.Entry, len(list))}
	for _, entry := range list {
		scan.entries[entry.Name] = entry
		name := entry.Name
		switch {
		case entry.IsDir:
			if !strings.HasPrefix(name, ".") {
				scan.subdirs = append(scan.subdirs, name)
			}
		case strings.EqualFold(name, descriptorName):
			scan.descriptor = name
		case strings.EqualFold(name, memory.LayoutSidecar):
			scan.layout = name
		case e.codec.IsMetadataFile(name):
			scan.metadata = append(scan.metadata, name)
		case e.codec.IsMediaFile(name):
			scan.media = append(scan.media, entry)
		}
	}
	return scan, nil
}

// path returns the library-relative path of a file in the folder
func (s *folderScan) path(name string) string {
	return storage.Join(s.dir, name)
}

// entry returns the listing entry for name, if it was listed
func (s *folderScan) entry(name string) *storage.Entry {
	if entry, ok := s.entries[name]; ok {
		return &entry
	}
	return nil
}

// mediaBySlug maps lowercase slug to the first media filename carrying it
func (s *folderScan) mediaBySlug() map[string]string {
	m := make(map[string]string, len(s.media))
	for _, entry := range s.media {
		key := memory.SlugKey(memory.SlugFromFilename(entry.Name))
		if _, ok := m[key]; !ok {
			m[key] = entry.Name
		}
	}
	return m
}

// mediaByName maps lowercase filename to actual filename
func (s *folderScan) mediaByName() map[string]string {
	m := make(map[string]string, len(s.media))
	for _, entry := range s.media {
		m[strings.ToLower(entry.Name)] = entry.Name
	}
	return m
}

// taken returns the lowercase names of everything in the folder
func (s *folderScan) taken() map[string]bool {
	t := make(map[string]bool, len(s.entries))
	for name := range s.entries {
		t[strings.ToLower(name)] = true
	}
	return t
}

// orphans returns media files no metadata file claims. A metadata file
// claims the media named by its media field, or else the media sharing its
// slug. Unparseable metadata files still claim by slug.
func (s *folderScan) orphans(parsed map[string]*memory.Item) []storage.Entry {
	bySlug := s.mediaBySlug()
	byName := s.mediaByName()

	claimed := make(map[string]bool)
	for _, name := range s.metadata {
		if it := parsed[name]; it != nil && it.Media != "" {
			if actual, ok := byName[strings.ToLower(it.Media)]; ok {
				claimed[actual] = true
				continue
			}
		}
		if actual, ok := bySlug[memory.SlugKey(memory.SlugFromFilename(name))]; ok {
			claimed[actual] = true
		}
	}

	var out []storage.Entry
	for _, entry := range s.media {
		if !claimed[entry.Name] {
			out = append(out, entry)
		}
	}
	return out
}

// readItems parses every metadata file; failures are returned per path
func (e *Engine) readItems(ctx context.Context, scan *folderScan) (map[string]*memory.Item, errorList) {
	parsed := make(map[string]*memory.Item, len(scan.metadata))
	var errs errorList
	for _, name := range scan.metadata {
		it, err := e.readItem(ctx, scan.path(name))
		if err != nil {
			errs.add(scan.path(name), err)
			continue
		}
		parsed[name] = it
	}
	return parsed, errs
}

func (e *Engine) readItem(ctx context.Context, rel string) (*memory.Item, error) {
	data, err := e.root.ReadFile(ctx, rel)
	if err != nil {
		return nil, err
	}
	return e.codec.ParseItem(data)
}

func (e *Engine) readDescriptor(ctx context.Context, rel string) (*memory.Descriptor, error) {
	data, err := e.root.ReadFile(ctx, rel)
	if err != nil {
		return nil, err
	}
	return e.codec.ParseDescriptor(data)
}

// readLayout returns the folder's sidecar entries, nil when there is none
func (e *Engine) readLayout(ctx context.Context, scan *folderScan) ([]memory.LayoutEntry, error) {
	if scan.layout == "" {
		return nil, nil
	}
	data, err := e.root.ReadFile(ctx, scan.path(scan.layout))
	if err != nil {
		return nil, err
	}
	return e.codec.ParseLayout(data)
}

func (e *Engine) writeLayout(ctx context.Context, scan *folderScan, entries []memory.LayoutEntry) (string, error) {
	name := scan.layout
	if name == "" {
		name = memory.LayoutSidecar
	}
	data, err := e.codec.EncodeLayout(entries)
	if err != nil {
		return "", err
	}
	rel := scan.path(name)
	return rel, e.root.WriteFile(ctx, rel, data)
}
