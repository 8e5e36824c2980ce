// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

// Codec bundles the package-level parse/generate functions behind a value
// so callers can inject it. The zero value is ready to use.
type Codec struct{}

// ParseDescriptor parses a _year.md or _event.md file
func (Codec) ParseDescriptor(content []byte) (*Descriptor, error) { return ParseDescriptor(content) }

// EncodeDescriptor renders a descriptor file
func (Codec) EncodeDescriptor(d *Descriptor) ([]byte, error) { return d.ToMarkdown() }

// ParseItem parses an item metadata file
func (Codec) ParseItem(content []byte) (*Item, error) { return ParseItem(content) }

// EncodeItem renders an item metadata file
func (Codec) EncodeItem(it *Item) ([]byte, error) { return it.ToMarkdown() }

// ParseLayout parses a layout sidecar
func (Codec) ParseLayout(data []byte) ([]LayoutEntry, error) { return ParseLayout(data) }

// EncodeLayout renders a layout sidecar
func (Codec) EncodeLayout(entries []LayoutEntry) ([]byte, error) { return EncodeLayout(entries) }

// MediaType returns the item type for a media filename, or ""
func (Codec) MediaType(name string) ItemType { return MediaType(name) }

// IsMediaFile reports whether name is media
func (Codec) IsMediaFile(name string) bool { return IsMediaFile(name) }

// IsMetadataFile reports whether name is an item metadata file
func (Codec) IsMetadataFile(name string) bool { return IsMetadataFile(name) }
