// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"time"

	"github.com/elphin/memorylane-sub000/internal/server"
	"github.com/elphin/memorylane-sub000/pkg/scheduler"
	"github.com/spf13/cobra"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the library tools over MCP on stdio",
		Long: `Start an MCP server on stdin/stdout. The index is restored from the
library snapshot or rebuilt when it is missing or out of date. When
metrics.listen is set a /metrics and /healthz endpoint is started, and when
scheduler.rebuild_interval_minutes is set the index is rebuilt periodically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			runCtx := cmd.Context()
			if a.cfg.Library.Root != "" {
				if err := a.ensureIndex(runCtx); err != nil {
					// tools still work, and memorylane_rebuild can retry
					a.logger.Error("initial index failed", "error", err)
				}
			}

			if listen := a.cfg.Metrics.Listen; listen != "" {
				httpServer := server.NewHTTPServer(listen, a.cfg.Metrics.Token, a.engine, a.logger)
				httpServer.Start()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = httpServer.Shutdown(shutdownCtx)
				}()
			}

			if minutes := a.cfg.Scheduler.RebuildInterval; minutes > 0 && a.cfg.Library.Root != "" {
				sched := scheduler.NewScheduler("rebuild", time.Duration(minutes)*time.Minute, func(c context.Context) error {
					_, err := a.engine.Rebuild(c)
					return err
				}, a.logger)
				sched.Start(runCtx)
				defer sched.Stop()
			}

			mcpServer := server.NewMCPServer(a.toolContext(), versionString())
			a.logger.Info("serving MCP on stdio", "tools", len(mcpServer.ToolNames()), "root", a.cfg.Library.Root)
			return mcpServer.ServeStdio()
		},
	}
}
