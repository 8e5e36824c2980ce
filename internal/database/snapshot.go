// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/gorm"
)

// ErrSnapshotUnsupported is returned when the driver cannot produce a
// single-file snapshot
var ErrSnapshotUnsupported = errors.New("snapshot not supported for this database type")

// ExportSnapshot returns the whole index as a standalone SQLite file
func (s *Store) ExportSnapshot(ctx context.Context) ([]byte, error) {
	if s.Dialect() != TypeSQLite {
		return nil, ErrSnapshotUnsupported
	}

	dir, err := os.MkdirTemp("", "memorylane-snapshot-")
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	defer os.RemoveAll(dir)

	target := filepath.Join(dir, "index.db")
	if err := s.db.WithContext(ctx).Exec("VACUUM INTO ?", target).Error; err != nil {
		return nil, fmt.Errorf("failed to export snapshot: %w", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return data, nil
}

// ImportSnapshot replaces the index contents with those of a snapshot
// produced by ExportSnapshot
func (s *Store) ImportSnapshot(ctx context.Context, data []byte) error {
	if s.Dialect() != TypeSQLite {
		return ErrSnapshotUnsupported
	}

	dir, err := os.MkdirTemp("", "memorylane-snapshot-")
	if err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	defer os.RemoveAll(dir)

	source := filepath.Join(dir, "index.db")
	if err := os.WriteFile(source, data, 0600); err != nil {
		return fmt.Errorf("failed to stage snapshot: %w", err)
	}

	// ATTACH is per connection, so pin one for the whole import
	return s.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := conn.Exec("ATTACH DATABASE ? AS snapshot", source).Error; err != nil {
			return fmt.Errorf("failed to attach snapshot: %w", err)
		}
		defer conn.Exec("DETACH DATABASE snapshot")

		return conn.Transaction(func(tx *gorm.DB) error {
			tables := tableNames()
			for i := len(tables) - 1; i >= 0; i-- {
				if err := tx.Exec(fmt.Sprintf("DELETE FROM main.%s", tables[i])).Error; err != nil {
					return fmt.Errorf("failed to clear %s: %w", tables[i], err)
				}
			}
			for _, table := range tables {
				sql := fmt.Sprintf("INSERT INTO main.%s SELECT * FROM snapshot.%s", table, table)
				if err := tx.Exec(sql).Error; err != nil {
					return fmt.Errorf("failed to import %s: %w", table, err)
				}
			}
			return nil
		})
	})
}
