// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Counts summarizes the size of the index
type Counts struct {
	Years  int64 `json:"years"`
	Events int64 `json:"events"`
	Items  int64 `json:"items"`
}

// SearchResult holds the events and items matching a free-text query
type SearchResult struct {
	Events []Event `json:"events"`
	Items  []Item  `json:"items"`
}

// Counts returns the number of years, events and items in the index
func (s *Store) Counts(ctx context.Context) (*Counts, error) {
	var c Counts
	db := s.db.WithContext(ctx)
	if err := db.Model(&Event{}).Where("type = ?", EventTypeYear).Count(&c.Years).Error; err != nil {
		return nil, fmt.Errorf("failed to count years: %w", err)
	}
	if err := db.Model(&Event{}).Where("type = ?", EventTypeEvent).Count(&c.Events).Error; err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	if err := db.Model(&Item{}).Count(&c.Items).Error; err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}
	return &c, nil
}

// Years returns every year, oldest first
func (s *Store) Years(ctx context.Context) ([]Event, error) {
	var years []Event
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Where("type = ?", EventTypeYear).
		Order("start_at ASC, title ASC").
		Find(&years).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list years: %w", err)
	}
	return years, nil
}

// GetEvent returns one event or year by id
func (s *Store) GetEvent(ctx context.Context, id string) (*Event, error) {
	var event Event
	err := s.db.WithContext(ctx).Preload("Tags").Where("id = ?", id).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("event not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

// EventsForYear returns the events of a year in chronological order
func (s *Store) EventsForYear(ctx context.Context, yearID string) ([]Event, error) {
	var events []Event
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Where("parent_id = ? AND type = ?", yearID, EventTypeEvent).
		Order("start_at ASC, title ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// ItemsForEvent returns the items of an event in chronological order
func (s *Store) ItemsForEvent(ctx context.Context, eventID string) ([]Item, error) {
	var items []Item
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Preload("People").
		Where("event_id = ?", eventID).
		Order("happened_at ASC, slug ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// LayoutForEvent returns the canvas placements of an event, back to front
func (s *Store) LayoutForEvent(ctx context.Context, eventID string) ([]CanvasItem, error) {
	var layout []CanvasItem
	err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("z_index ASC, item_id ASC").
		Find(&layout).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load layout: %w", err)
	}
	return layout, nil
}

// ItemsByTag returns items carrying tag (case-insensitive)
func (s *Store) ItemsByTag(ctx context.Context, tag string) ([]Item, error) {
	var items []Item
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Preload("People").
		Joins("JOIN item_tags ON item_tags.item_id = items.id").
		Where("item_tags.tag = ?", strings.ToLower(strings.TrimSpace(tag))).
		Order("items.happened_at ASC, items.slug ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find items by tag: %w", err)
	}
	return items, nil
}

// ItemsByPerson returns items in which person appears (case-insensitive)
func (s *Store) ItemsByPerson(ctx context.Context, person string) ([]Item, error) {
	var items []Item
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Preload("People").
		Joins("JOIN item_people ON item_people.item_id = items.id").
		Where("LOWER(item_people.person) = ?", strings.ToLower(strings.TrimSpace(person))).
		Order("items.happened_at ASC, items.slug ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find items by person: %w", err)
	}
	return items, nil
}

// Search matches query against event titles, descriptions and locations
// and item captions, content and places
func (s *Store) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return &SearchResult{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + escapeLike(query) + "%"

	var result SearchResult
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Where("type = ?", EventTypeEvent).
		Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(location) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern).
		Order("start_at ASC").
		Limit(limit).
		Find(&result.Events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}

	err = s.db.WithContext(ctx).
		Preload("Tags").
		Preload("People").
		Where(`LOWER(caption) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\' OR LOWER(place) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern).
		Order("happened_at ASC, slug ASC").
		Limit(limit).
		Find(&result.Items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}

	return &result, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
