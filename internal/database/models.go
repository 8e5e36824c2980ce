// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package database

import (
	"time"
)

// Event types stored in Event.Type
const (
	EventTypeYear  = "year"
	EventTypeEvent = "event"
)

// Event is a year bucket or an event folder. Years have no parent.
type Event struct {
	ID            string     `gorm:"primaryKey" json:"id"`
	Type          string     `gorm:"not null;index" json:"type"`
	ParentID      *string    `gorm:"index" json:"parent_id,omitempty"`
	Title         string     `gorm:"not null" json:"title"`
	Description   string     `json:"description,omitempty"`
	StartAt       *time.Time `gorm:"index" json:"start_at,omitempty"`
	EndAt         *time.Time `json:"end_at,omitempty"`
	Location      string     `json:"location,omitempty"`
	FeaturedPhoto string     `json:"featured_photo,omitempty"`
	FolderPath    string     `gorm:"not null" json:"folder_path"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Tags []EventTag `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"tags,omitempty"`
}

// TableName specifies the table name for Event
func (Event) TableName() string {
	return "events"
}

// EventTag links an event to a tag
type EventTag struct {
	EventID string `gorm:"primaryKey" json:"event_id"`
	Tag     string `gorm:"primaryKey;index" json:"tag"`
}

// TableName specifies the table name for EventTag
func (EventTag) TableName() string {
	return "event_tags"
}

// Item is one memory inside an event
type Item struct {
	ID         string     `gorm:"primaryKey" json:"id"`
	EventID    string     `gorm:"not null;index" json:"event_id"`
	ItemType   string     `gorm:"column:item_type;not null" json:"item_type"`
	Content    string     `json:"content"`
	Caption    string     `json:"caption,omitempty"`
	HappenedAt *time.Time `gorm:"index" json:"happened_at,omitempty"`
	Place      string     `json:"place,omitempty"`
	Slug       string     `gorm:"not null" json:"slug"`
	SourcePath string     `gorm:"not null" json:"source_path"`
	MediaPath  string     `json:"media_path,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	People []ItemPerson `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"people,omitempty"`
	Tags   []ItemTag    `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"tags,omitempty"`
}

// TableName specifies the table name for Item
func (Item) TableName() string {
	return "items"
}

// ItemTag links an item to a tag
type ItemTag struct {
	ItemID string `gorm:"primaryKey" json:"item_id"`
	Tag    string `gorm:"primaryKey;index" json:"tag"`
}

// TableName specifies the table name for ItemTag
func (ItemTag) TableName() string {
	return "item_tags"
}

// ItemPerson links an item to a person who appears in it
type ItemPerson struct {
	ItemID string `gorm:"primaryKey" json:"item_id"`
	Person string `gorm:"primaryKey;index" json:"person"`
}

// TableName specifies the table name for ItemPerson
func (ItemPerson) TableName() string {
	return "item_people"
}

// CanvasItem is an item's placement on its event canvas
type CanvasItem struct {
	EventID  string   `gorm:"primaryKey" json:"event_id"`
	ItemID   string   `gorm:"primaryKey" json:"item_id"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Scale    float64  `gorm:"default:1" json:"scale"`
	Rotation float64  `json:"rotation"`
	ZIndex   int      `gorm:"column:z_index" json:"z_index"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
}

// TableName specifies the table name for CanvasItem
func (CanvasItem) TableName() string {
	return "canvas_items"
}

// Record types stored in FileIndexEntry.RecordType
const (
	RecordYear  = "year"
	RecordEvent = "event"
	RecordItem  = "item"
)

// FileIndexEntry records a source file seen during a rebuild
type FileIndexEntry struct {
	Path       string     `gorm:"primaryKey" json:"path"`
	RecordType string     `gorm:"not null" json:"record_type"`
	ModTime    *time.Time `json:"mod_time,omitempty"`
	Size       int64      `json:"size"`
	IndexedAt  time.Time  `gorm:"not null" json:"indexed_at"`
}

// TableName specifies the table name for FileIndexEntry
func (FileIndexEntry) TableName() string {
	return "file_index"
}

// Meta is a key/value pair describing the index itself
type Meta struct {
	Key   string `gorm:"primaryKey" json:"key"`
	Value string `gorm:"not null" json:"value"`
}

// TableName specifies the table name for Meta
func (Meta) TableName() string {
	return "meta"
}

// Well-known meta keys
const (
	MetaSchemaVersion = "schema_version"
	MetaLastRebuild   = "last_rebuild"
)
