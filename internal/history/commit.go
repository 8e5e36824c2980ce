// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrForeignStaged is returned by Commit when the index already holds
// staged changes outside the paths being committed
var ErrForeignStaged = errors.New("index has staged changes outside the library operation")

// Commit stages paths and commits them. Paths are library-relative with
// forward slashes; paths that no longer exist are staged as removals.
// Nothing is committed when none of the paths changed. Commit refuses with
// ErrForeignStaged, before touching the index, when the user has staged
// other files, so their work never ends up in an engine commit.
func (r *Repository) Commit(ctx context.Context, message string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	worktree, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	before, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	if foreign := stagedOutside(before, paths); len(foreign) > 0 {
		sort.Strings(foreign)
		return fmt.Errorf("%w: %s", ErrForeignStaged, strings.Join(foreign, ", "))
	}

	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := os.Lstat(filepath.Join(r.Path, filepath.FromSlash(rel))); os.IsNotExist(err) {
			// never tracked is fine
			if _, err := worktree.Remove(rel); err != nil && !errors.Is(err, index.ErrEntryNotFound) {
				return fmt.Errorf("failed to stage removal of %s: %w", rel, err)
			}
			continue
		}
		if _, err := worktree.Add(rel); err != nil {
			return fmt.Errorf("failed to add file %s: %w", rel, err)
		}
	}

	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	if !hasStaged(status) {
		return nil
	}

	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  r.opts.Author,
			Email: r.opts.Email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// stagedOutside lists staged entries that are not among paths
func stagedOutside(status git.Status, paths []string) []string {
	own := make(map[string]bool, len(paths))
	for _, p := range paths {
		own[p] = true
	}
	var foreign []string
	for name, s := range status {
		if own[name] {
			continue
		}
		if s.Staging != git.Unmodified && s.Staging != git.Untracked {
			foreign = append(foreign, name)
		}
	}
	return foreign
}

func hasStaged(status git.Status) bool {
	for _, s := range status {
		if s.Staging != git.Unmodified && s.Staging != git.Untracked {
			return true
		}
	}
	return false
}
