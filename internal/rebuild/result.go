// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package rebuild

import (
	"encoding/json"
	"fmt"
	"time"
)

// UnitError is a failure confined to one file or folder
type UnitError struct {
	Path string
	Err  error
}

func (e UnitError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e UnitError) Unwrap() error {
	return e.Err
}

// MarshalJSON renders the error as its message
func (e UnitError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		Path  string `json:"path"`
		Error string `json:"error"`
	}{e.Path, msg})
}

// RebuildResult contains statistics from a rebuild
type RebuildResult struct {
	YearsIndexed  int `json:"years_indexed"`
	EventsIndexed int `json:"events_indexed"`
	ItemsIndexed  int `json:"items_indexed"`
	// Promoted lists the event folders created from loose media
	Promoted []string `json:"promoted,omitempty"`
	// Adopted counts metadata files written for orphan media
	Adopted  int           `json:"adopted"`
	Errors   []UnitError   `json:"errors,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// CleanupResult contains statistics from a duplicate cleanup
type CleanupResult struct {
	FilesRemoved    int         `json:"files_removed"`
	SidecarsUpdated int         `json:"sidecars_updated"`
	Removed         []string    `json:"removed,omitempty"`
	Errors          []UnitError `json:"errors,omitempty"`
}

// RecoveryResult contains statistics from a recovery pass
type RecoveryResult struct {
	EventsCreated int         `json:"events_created"`
	ItemsCreated  int         `json:"items_created"`
	Errors        []UnitError `json:"errors,omitempty"`
	// Rebuild is set when anything was created and the index was rebuilt
	Rebuild *RebuildResult `json:"rebuild,omitempty"`
}

// errorList collects unit errors in encounter order
type errorList []UnitError

func (l *errorList) add(path string, err error) {
	if err == nil {
		return
	}
	*l = append(*l, UnitError{Path: path, Err: err})
}

func (l *errorList) merge(other []UnitError) {
	*l = append(*l, other...)
}
