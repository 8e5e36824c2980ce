// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package history commits the files the engine changes when the library
// root is a git repository.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned by Open when the library is not under git
var ErrNotRepository = errors.New("library is not a git repository")

// ignoreFile keeps the engine's state directory out of history
const ignoreFile = ".gitignore"

const ignoreRules = "# memorylane index and lock\n.memorylane/\n"

// Repository wraps the git repository at the library root
type Repository struct {
	Path string
	repo *git.Repository
	opts Options
}

// Options sets the commit author
type Options struct {
	Author string
	Email  string
}

// DefaultOptions returns the author used when none is configured
func DefaultOptions() Options {
	return Options{
		Author: "Memorylane",
		Email:  "library@memorylane.local",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Author == "" {
		o.Author = d.Author
	}
	if o.Email == "" {
		o.Email = d.Email
	}
	return o
}

// Open opens the repository rooted at path
func Open(path string, opts Options) (*Repository, error) {
	repo, err := git.PlainOpen(path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, ErrNotRepository
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	return &Repository{Path: path, repo: repo, opts: opts.withDefaults()}, nil
}

// Init creates a repository at path with an ignore file for the index
func Init(path string, opts Options) (*Repository, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create library directory: %w", err)
	}

	repo, err := git.PlainInit(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize git repository: %w", err)
	}

	ignore := filepath.Join(path, ignoreFile)
	if _, err := os.Stat(ignore); os.IsNotExist(err) {
		if err := os.WriteFile(ignore, []byte(ignoreRules), 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", ignoreFile, err)
		}
	}

	return &Repository{Path: path, repo: repo, opts: opts.withDefaults()}, nil
}

// OpenOrInit opens the repository at path, creating it when init is set
func OpenOrInit(path string, opts Options, init bool) (*Repository, error) {
	r, err := Open(path, opts)
	if errors.Is(err, ErrNotRepository) && init {
		return Init(path, opts)
	}
	return r, err
}

// IsClean reports whether the worktree has no uncommitted changes
func (r *Repository) IsClean() (bool, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get status: %w", err)
	}
	return status.IsClean(), nil
}
