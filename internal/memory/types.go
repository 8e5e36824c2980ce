// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Reserved filenames inside the library tree
const (
	YearDescriptor  = "_year.md"
	EventDescriptor = "_event.md"
	LayoutSidecar   = "_canvas.json"
	MetadataExt     = ".md"
)

// EventType distinguishes year buckets from event folders
type EventType string

// EventType constants
const (
	EventTypeYear  EventType = "year"
	EventTypeEvent EventType = "event"
)

// ItemType is the kind of memory an item file describes
type ItemType string

// ItemType constants
const (
	ItemText  ItemType = "text"
	ItemLink  ItemType = "link"
	ItemPhoto ItemType = "photo"
	ItemVideo ItemType = "video"
	ItemAudio ItemType = "audio"
)

// IsMedia reports whether items of this type point at a media file
func (t ItemType) IsMedia() bool {
	return t == ItemPhoto || t == ItemVideo || t == ItemAudio
}

// Descriptor is the frontmatter of a _year.md or _event.md file
type Descriptor struct {
	ID            string    `yaml:"id,omitempty"`
	Type          EventType `yaml:"type,omitempty"`
	Title         string    `yaml:"title,omitempty"`
	Start         Timestamp `yaml:"start,omitempty"`
	End           Timestamp `yaml:"end,omitempty"`
	Location      string    `yaml:"location,omitempty"`
	Tags          []string  `yaml:"tags,omitempty"`
	FeaturedPhoto string    `yaml:"featured_photo,omitempty"`
	Description   string    `yaml:"-"`
}

// Item is the frontmatter and body of a <slug>.md item file
type Item struct {
	ID         string    `yaml:"id,omitempty"`
	Type       ItemType  `yaml:"type,omitempty"`
	Caption    string    `yaml:"caption,omitempty"`
	Media      string    `yaml:"media,omitempty"`
	URL        string    `yaml:"url,omitempty"`
	HappenedAt Timestamp `yaml:"happened_at,omitempty"`
	Place      string    `yaml:"place,omitempty"`
	People     []string  `yaml:"people,omitempty"`
	Tags       []string  `yaml:"tags,omitempty"`
	Body       string    `yaml:"-"`
}

// Timestamp accepts the date formats people actually type into frontmatter
// and writes RFC 3339 (or a bare date when there is no time component).
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-01",
}

// ParseTimestamp parses a frontmatter date value
func ParseTimestamp(value string) (Timestamp, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Timestamp{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized date %q", value)
}

// UnmarshalYAML implements yaml.Unmarshaler
func (t *Timestamp) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: date must be a scalar", node.Line)
	}
	parsed, err := ParseTimestamp(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*t = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (t Timestamp) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// String formats the timestamp the way it is written to disk
func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 && t.Location() == time.UTC {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

// Ptr returns nil for the zero timestamp, for nullable columns
func (t Timestamp) Ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}
