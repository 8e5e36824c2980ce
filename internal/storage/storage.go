// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package storage provides the directory and file primitives the index
// engine works through. All paths are slash-separated and relative to the
// library root.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// ErrNotExist is returned when a path does not exist
var ErrNotExist = os.ErrNotExist

// Entry describes one file or directory
type Entry struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// StorageRoot is the library folder the engine reads and repairs
type StorageRoot interface {
	// Root returns a human-readable location of the library, "" when unset
	Root() string
	// Verify checks that the root exists and is a directory
	Verify(ctx context.Context) error
	List(ctx context.Context, dir string) ([]Entry, error)
	ReadFile(ctx context.Context, name string) ([]byte, error)
	// WriteFile creates parent directories as needed
	WriteFile(ctx context.Context, name string, data []byte) error
	Stat(ctx context.Context, name string) (Entry, error)
	Exists(ctx context.Context, name string) (bool, error)
	Mkdir(ctx context.Context, dir string) error
	Copy(ctx context.Context, src, dst string) error
	// Rename replaces dst if it exists
	Rename(ctx context.Context, src, dst string) error
	Delete(ctx context.Context, name string) error
}

// Library is a StorageRoot backed by an afero filesystem
type Library struct {
	root string
	fs   afero.Fs
}

// NewOSLibrary opens the library folder at root on the local disk
func NewOSLibrary(root string) *Library {
	if root == "" {
		return &Library{}
	}
	return &Library{
		root: root,
		fs:   afero.NewBasePathFs(afero.NewOsFs(), root),
	}
}

// NewLibrary wraps an arbitrary afero filesystem whose "/" is the library root
func NewLibrary(fs afero.Fs, label string) *Library {
	return &Library{root: label, fs: fs}
}

// NewMemoryLibrary returns an empty in-memory library, used by tests
func NewMemoryLibrary() *Library {
	return NewLibrary(afero.NewMemMapFs(), "mem://library")
}

// Fs exposes the underlying filesystem
func (l *Library) Fs() afero.Fs {
	return l.fs
}

// Root implements StorageRoot
func (l *Library) Root() string {
	if l == nil || l.fs == nil {
		return ""
	}
	return l.root
}

// Verify implements StorageRoot
func (l *Library) Verify(ctx context.Context) error {
	if l.Root() == "" {
		return errors.New("library root not configured")
	}
	info, err := l.fs.Stat("/")
	if err != nil {
		return fmt.Errorf("library root %s: %w", l.root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("library root %s is not a directory", l.root)
	}
	return nil
}

// List implements StorageRoot. Entries are sorted by name.
func (l *Library) List(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(l.fs, clean(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, toEntry(info))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// ReadFile implements StorageRoot
func (l *Library) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(l.fs, clean(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// WriteFile implements StorageRoot
func (l *Library) WriteFile(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := clean(name)
	if err := l.fs.MkdirAll(path.Dir(p), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, err)
	}
	if err := afero.WriteFile(l.fs, p, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Stat implements StorageRoot
func (l *Library) Stat(ctx context.Context, name string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	info, err := l.fs.Stat(clean(name))
	if err != nil {
		return Entry{}, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	return toEntry(info), nil
}

// Exists implements StorageRoot
func (l *Library) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := afero.Exists(l.fs, clean(name))
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	return ok, nil
}

// Mkdir implements StorageRoot
func (l *Library) Mkdir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.fs.MkdirAll(clean(dir), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}

// Copy implements StorageRoot. The destination must not exist.
func (l *Library) Copy(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	in, err := l.fs.Open(clean(src))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	dstPath := clean(dst)
	if err := l.fs.MkdirAll(path.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dst, err)
	}

	out, err := l.fs.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = l.fs.Remove(dstPath)
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		_ = l.fs.Remove(dstPath)
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}

	// keep the original mtime so a later pass can still date the file
	_ = l.fs.Chtimes(dstPath, info.ModTime(), info.ModTime())
	return nil
}

// Rename implements StorageRoot
func (l *Library) Rename(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.fs.Rename(clean(src), clean(dst)); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", src, dst, err)
	}
	return nil
}

// Delete implements StorageRoot. Directories must be empty.
func (l *Library) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.fs.Remove(clean(name)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

func toEntry(info os.FileInfo) Entry {
	return Entry{
		Name:    info.Name(),
		IsDir:   info.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}

// clean anchors a library-relative path at the filesystem root and
// refuses to climb out of it
func clean(p string) string {
	p = path.Clean("/" + strings.TrimPrefix(p, "/"))
	return p
}

// Join joins library-relative path elements
func Join(elem ...string) string {
	return strings.TrimPrefix(path.Join(elem...), "/")
}

// Compile-time check that Library implements StorageRoot
var _ StorageRoot = (*Library)(nil)
