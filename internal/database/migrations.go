// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// AllModels returns all index models, parents before children
func AllModels() []interface{} {
	return []interface{}{
		&Event{},
		&EventTag{},
		&Item{},
		&ItemTag{},
		&ItemPerson{},
		&CanvasItem{},
		&FileIndexEntry{},
		&Meta{},
	}
}

// Migrate runs database migrations for all models
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// CreateIndexes creates additional indexes for the timeline lookups
func CreateIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		columns []string
		name    string
	}{
		{
			table:   "events",
			columns: []string{"parent_id", "start_at"},
			name:    "idx_events_parent_start",
		},
		{
			table:   "items",
			columns: []string{"event_id", "happened_at"},
			name:    "idx_items_event_happened",
		},
		{
			table:   "items",
			columns: []string{"event_id", "slug"},
			name:    "idx_items_event_slug",
		},
		{
			table:   "canvas_items",
			columns: []string{"item_id"},
			name:    "idx_canvas_items_item",
		},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			continue
		}
		sql := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			idx.name,
			idx.table,
			strings.Join(idx.columns, ", "))

		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}

// tableNames returns the table of every model, in AllModels order
func tableNames() []string {
	models := AllModels()
	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.(interface{ TableName() string }).TableName())
	}
	return names
}
