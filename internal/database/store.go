// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the relational index of a memory library
type Store struct {
	db *gorm.DB
}

// NewStore wraps an already migrated connection
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying gorm handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Dialect returns the driver name ("sqlite" or "postgres")
func (s *Store) Dialect() string {
	return s.db.Dialector.Name()
}

// Close closes the underlying connection
func (s *Store) Close() error {
	return Close(s.db)
}

// Transaction runs fn against a Store bound to one database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Clear deletes every row of the index, meta included
func (s *Store) Clear(ctx context.Context) error {
	models := AllModels()
	for i := len(models) - 1; i >= 0; i-- {
		if err := s.db.WithContext(ctx).Where("1 = 1").Delete(models[i]).Error; err != nil {
			return fmt.Errorf("failed to clear index: %w", err)
		}
	}
	return nil
}

// InsertEvent inserts a year or event row with its tags
func (s *Store) InsertEvent(ctx context.Context, event *Event, tags []string) error {
	event.Tags = nil
	for _, tag := range normalizeTags(tags) {
		event.Tags = append(event.Tags, EventTag{EventID: event.ID, Tag: tag})
	}
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to insert event %s: %w", event.ID, err)
	}
	return nil
}

// InsertItem inserts an item row with its tags and people
func (s *Store) InsertItem(ctx context.Context, item *Item, tags, people []string) error {
	item.Tags = nil
	item.People = nil
	for _, tag := range normalizeTags(tags) {
		item.Tags = append(item.Tags, ItemTag{ItemID: item.ID, Tag: tag})
	}
	for _, person := range uniqueStrings(people) {
		item.People = append(item.People, ItemPerson{ItemID: item.ID, Person: person})
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to insert item %s: %w", item.ID, err)
	}
	return nil
}

// UpsertLayout inserts or replaces an item's canvas placement
func (s *Store) UpsertLayout(ctx context.Context, entry *CanvasItem) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "item_id"}},
		UpdateAll: true,
	}).Create(entry).Error
	if err != nil {
		return fmt.Errorf("failed to upsert layout for item %s: %w", entry.ItemID, err)
	}
	return nil
}

// RecordFile inserts or refreshes the bookkeeping row for a source file
func (s *Store) RecordFile(ctx context.Context, entry *FileIndexEntry) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		UpdateAll: true,
	}).Create(entry).Error
	if err != nil {
		return fmt.Errorf("failed to record file %s: %w", entry.Path, err)
	}
	return nil
}

// GetMeta returns the value for key and whether it was present
func (s *Store) GetMeta(ctx context.Context, key string) (string, bool, error) {
	var meta Meta
	err := s.db.WithContext(ctx).Where(map[string]interface{}{"key": key}).First(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read meta %s: %w", key, err)
	}
	return meta.Value, true, nil
}

// SetMeta stores value under key
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&Meta{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("failed to write meta %s: %w", key, err)
	}
	return nil
}

func normalizeTags(tags []string) []string {
	lowered := make([]string, 0, len(tags))
	for _, t := range tags {
		lowered = append(lowered, strings.ToLower(t))
	}
	return uniqueStrings(lowered)
}

// uniqueStrings trims, drops empties and duplicates, and sorts
func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
