// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package rebuild keeps the relational index in step with a library folder
// and repairs the folder's structure along the way.
package rebuild

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/elphin/memorylane-sub000/internal/capture"
	"github.com/elphin/memorylane-sub000/internal/database"
	"github.com/elphin/memorylane-sub000/internal/locking"
	"github.com/elphin/memorylane-sub000/internal/memory"
	"github.com/elphin/memorylane-sub000/internal/storage"
	"github.com/google/uuid"
)

// SchemaVersion is bumped whenever the index layout or the meaning of its
// rows changes, forcing a rebuild on next start
const SchemaVersion = "3"

// Operation names used for metrics and logs
const (
	OpRebuild = "rebuild"
	OpCleanup = "cleanup"
	OpRecover = "recover"
)

var (
	// ErrNoRoot is returned when no library root is configured
	ErrNoRoot = errors.New("no library root configured")
	// ErrNoIndex is returned when the engine has no index store
	ErrNoIndex = errors.New("no index store configured")
	// ErrLibraryBusy is returned when another process or operation holds the library
	ErrLibraryBusy = locking.ErrLocked
)

// Codec reads and writes the library's text formats
type Codec interface {
	ParseDescriptor(content []byte) (*memory.Descriptor, error)
	EncodeDescriptor(d *memory.Descriptor) ([]byte, error)
	ParseItem(content []byte) (*memory.Item, error)
	EncodeItem(it *memory.Item) ([]byte, error)
	ParseLayout(data []byte) ([]memory.LayoutEntry, error)
	EncodeLayout(entries []memory.LayoutEntry) ([]byte, error)
	MediaType(name string) memory.ItemType
	IsMediaFile(name string) bool
	IsMetadataFile(name string) bool
}

// Recorder receives run statistics
type Recorder interface {
	RunStarted(op string)
	RunFinished(op string, elapsed time.Duration, unitErrors int, err error)
	Indexed(years, events, items int, at time.Time)
	Synthesized(reason string, n int)
	Removed(n int)
}

// Committer records the files an operation changed
type Committer interface {
	Commit(ctx context.Context, message string, paths []string) error
}

// Engine rebuilds and repairs one library
type Engine struct {
	root      storage.StorageRoot
	store     *database.Store
	codec     Codec
	extractor capture.Extractor
	locker    locking.Locker
	recorder  Recorder
	history   Committer
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	// running admits one mutating operation at a time within the process
	running sync.Mutex
}

// Option configures an Engine
type Option func(*Engine)

// WithExtractor sets the capture-time extractor
func WithExtractor(x capture.Extractor) Option {
	return func(e *Engine) { e.extractor = x }
}

// WithLocker sets the cross-process lock taken by mutating operations
func WithLocker(l locking.Locker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithHistory commits changed files after each operation
func WithHistory(c Committer) Option {
	return func(e *Engine) { e.history = c }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides the id source for new descriptors and items
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// New creates an engine over a library root and an index store
func New(root storage.StorageRoot, store *database.Store, codec Codec, opts ...Option) *Engine {
	if codec == nil {
		codec = memory.Codec{}
	}
	e := &Engine{
		root:      root,
		store:     store,
		codec:     codec,
		extractor: capture.EXIF{},
		recorder:  nopRecorder{},
		logger:    slog.Default(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the index store
func (e *Engine) Store() *database.Store {
	return e.store
}

// Root returns the library root
func (e *Engine) Root() storage.StorageRoot {
	return e.root
}

// begin checks fatal preconditions and takes the library lock
func (e *Engine) begin(ctx context.Context, op string) (func(), error) {
	if e.root == nil || e.root.Root() == "" {
		return nil, ErrNoRoot
	}
	if e.store == nil {
		return nil, ErrNoIndex
	}
	if !e.running.TryLock() {
		return nil, ErrLibraryBusy
	}
	if err := e.root.Verify(ctx); err != nil {
		e.running.Unlock()
		return nil, errors.Join(ErrNoRoot, err)
	}
	release, err := locking.Acquire(e.locker)
	if err != nil {
		e.running.Unlock()
		return nil, err
	}
	e.recorder.RunStarted(op)
	return func() {
		release()
		e.running.Unlock()
	}, nil
}

// finish records metrics and commits changed files
func (e *Engine) finish(ctx context.Context, op string, start time.Time, unitErrors int, runErr error, changes *changeSet) {
	e.recorder.RunFinished(op, e.now().Sub(start), unitErrors, runErr)
	if e.history == nil || changes.empty() {
		return
	}
	msg := "memorylane: " + op
	if err := e.history.Commit(ctx, msg, changes.list()); err != nil {
		e.logger.Warn("failed to commit library history", "operation", op, "error", err)
	}
}

// changeSet tracks library-relative paths written or deleted by a run
type changeSet struct {
	paths map[string]bool
}

func newChangeSet() *changeSet {
	return &changeSet{paths: make(map[string]bool)}
}

func (c *changeSet) add(paths ...string) {
	for _, p := range paths {
		c.paths[p] = true
	}
}

func (c *changeSet) empty() bool {
	return c == nil || len(c.paths) == 0
}

func (c *changeSet) list() []string {
	out := make([]string, 0, len(c.paths))
	for p := range c.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// hexSuffix returns 8 random hex characters
func hexSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// stableID derives a deterministic id from a library-relative path
func stableID(kind, relPath string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("memorylane:"+kind+":"+relPath)).String()
}

type nopRecorder struct{}

func (nopRecorder) RunStarted(string) {}
func (nopRecorder) RunFinished(string, time.Duration, int, error) {}
func (nopRecorder) Indexed(int, int, int, time.Time) {}
func (nopRecorder) Synthesized(string, int) {}
func (nopRecorder) Removed(int) {}
