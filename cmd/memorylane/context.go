// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/elphin/memorylane-sub000/internal/config"
	"github.com/elphin/memorylane-sub000/internal/database"
	"github.com/elphin/memorylane-sub000/internal/history"
	"github.com/elphin/memorylane-sub000/internal/locking"
	"github.com/elphin/memorylane-sub000/internal/logging"
	"github.com/elphin/memorylane-sub000/internal/metrics"
	"github.com/elphin/memorylane-sub000/internal/rebuild"
	"github.com/elphin/memorylane-sub000/internal/storage"
	"github.com/elphin/memorylane-sub000/internal/tools"
	"gorm.io/gorm/logger"
)

type globalFlags struct {
	config   string
	root     string
	dbType   string
	dbPath   string
	dbDSN    string
	logLevel string
	json     bool
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var (
			cfg *config.Config
			err error
		)
		if path := strings.TrimSpace(c.flags.config); path != "" {
			cfg, err = config.LoadFromPath(path)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			c.configErr = err
			return
		}
		applyCLIOverrides(cfg, c.flags)
		if err := cfg.Validate(); err != nil {
			c.configErr = fmt.Errorf("invalid configuration: %w", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// applyCLIOverrides gives flags the highest priority
func applyCLIOverrides(cfg *config.Config, f *globalFlags) {
	if f.root != "" {
		cfg.Library.Root = f.root
	}
	if f.dbType != "" {
		cfg.Database.Type = f.dbType
	}
	if f.dbPath != "" {
		cfg.Database.SQLitePath = f.dbPath
	}
	if f.dbDSN != "" {
		cfg.Database.PostgresDSN = f.dbDSN
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
}

// app is everything one command invocation needs
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *database.Store
	engine  *rebuild.Engine
	history *history.Repository
}

func (c *commandContext) openApp() (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	log, err := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return nil, err
	}

	store, err := database.Open(&database.Config{
		Type:        cfg.Database.Type,
		SQLitePath:  cfg.Database.SQLitePath,
		PostgresDSN: cfg.Database.PostgresDSN,
		LogLevel:    logger.Silent, // stdout belongs to the MCP transport
	})
	if err != nil {
		return nil, err
	}

	opts := []rebuild.Option{
		rebuild.WithLogger(log),
		rebuild.WithRecorder(metrics.NewRecorder()),
	}
	root := cfg.Library.Root
	if root != "" && cfg.Library.Lock {
		opts = append(opts, rebuild.WithLocker(locking.NewRootLock(root)))
	}

	var hist *history.Repository
	if root != "" && cfg.History.AutoCommit {
		hist, err = history.OpenOrInit(root, history.Options{
			Author: cfg.History.Author,
			Email:  cfg.History.Email,
		}, cfg.History.AutoInit)
		switch {
		case errors.Is(err, history.ErrNotRepository):
			log.Warn("library history disabled: root is not a git repository", "root", root)
			hist = nil
		case err != nil:
			_ = store.Close()
			return nil, err
		default:
			opts = append(opts, rebuild.WithHistory(hist))
		}
	}

	engine := rebuild.New(storage.NewOSLibrary(root), store, nil, opts...)
	return &app{cfg: cfg, logger: log, store: store, engine: engine, history: hist}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) toolContext() *tools.ToolContext {
	return tools.NewToolContext(a.engine, a.history)
}

// ensureIndex brings a missing or stale index up to date, preferring the
// snapshot kept in the library over a full rebuild
func (a *app) ensureIndex(ctx context.Context) error {
	needs, err := a.engine.NeedsRebuild(ctx)
	if err != nil || !needs {
		return err
	}
	if loaded, err := a.engine.LoadSnapshot(ctx); err != nil {
		a.logger.Warn("index snapshot unusable", "error", err)
	} else if loaded {
		if needs, err = a.engine.NeedsRebuild(ctx); err != nil || !needs {
			return err
		}
	}
	a.logger.Info("index missing or out of date, rebuilding")
	_, err = a.engine.Rebuild(ctx)
	return err
}
