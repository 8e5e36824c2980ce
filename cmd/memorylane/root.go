// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:           "memorylane",
		Short:         "Keep a memory library folder and its index in sync",
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "Configuration file path (default ~/.memorylane/configs/config.json)")
	pf.StringVar(&flags.root, "root", "", "Library root folder (overrides MEMORYLANE_ROOT)")
	pf.StringVar(&flags.dbType, "db-type", "", "Index database type (sqlite or postgres)")
	pf.StringVar(&flags.dbPath, "db-path", "", "Index database path (for sqlite)")
	pf.StringVar(&flags.dbDSN, "db-dsn", "", "Index database DSN (for postgres)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.BoolVar(&flags.json, "json", false, "Print results as JSON")

	rootCmd.AddCommand(newRebuildCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newCleanupCommand(ctx))
	rootCmd.AddCommand(newRecoverCommand(ctx))
	rootCmd.AddCommand(newTimelineCommand(ctx))
	rootCmd.AddCommand(newSearchCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))

	return rootCmd
}

func versionString() string {
	if Version == "" {
		return "dev"
	}
	return Version
}
