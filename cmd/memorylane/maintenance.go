// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/elphin/memorylane-sub000/internal/rebuild"
	"github.com/elphin/memorylane-sub000/internal/tools"
	"github.com/spf13/cobra"
)

func newRebuildCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the index from the library folder",
		Long: `Rescan every year and event folder under the library root and replace the
index with what was found. Loose media in year folders are moved into dated
event folders and media without a metadata file get one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.engine.Rebuild(cmd.Context())
			if err != nil {
				return fmt.Errorf("rebuild: %w", err)
			}
			if ctx.flags.json {
				return writeJSON(cmd, result)
			}
			printRebuild(cmd, result)
			return nil
		},
	}
}

func printRebuild(cmd *cobra.Command, r *rebuild.RebuildResult) {
	rows := [][]string{
		{"Years", strconv.Itoa(r.YearsIndexed)},
		{"Events", strconv.Itoa(r.EventsIndexed)},
		{"Items", strconv.Itoa(r.ItemsIndexed)},
		{"Promoted folders", strconv.Itoa(len(r.Promoted))},
		{"Adopted media", strconv.Itoa(r.Adopted)},
		{"Duration", r.Duration.Round(time.Millisecond).String()},
	}
	printTable(cmd, []string{"Indexed", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
	for _, folder := range r.Promoted {
		fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", folder)
	}
	printUnitErrors(cmd, r.Errors)
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index counts and whether a rebuild is needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := tools.GetStatus(cmd.Context(), a.engine)
			if err != nil {
				return err
			}
			if ctx.flags.json {
				return writeJSON(cmd, st)
			}

			lastRebuild := "never"
			if st.LastRebuild != nil {
				lastRebuild = humanize.Time(*st.LastRebuild)
			}
			rows := [][]string{
				{"Root", st.Root},
				{"Years", strconv.FormatInt(st.Counts.Years, 10)},
				{"Events", strconv.FormatInt(st.Counts.Events, 10)},
				{"Items", strconv.FormatInt(st.Counts.Items, 10)},
				{"Schema", st.SchemaVersion},
				{"Last rebuild", lastRebuild},
				{"Needs rebuild", strconv.FormatBool(st.NeedsRebuild)},
			}
			printTable(cmd, []string{"Field", "Value"}, rows, nil)
			return nil
		},
	}
}

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove duplicate metadata files left behind by earlier runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.engine.CleanupDuplicates(cmd.Context())
			if err != nil {
				return fmt.Errorf("cleanup: %w", err)
			}
			if ctx.flags.json {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed %d file(s), updated %d canvas sidecar(s)\n", result.FilesRemoved, result.SidecarsUpdated)
			for _, path := range result.Removed {
				fmt.Fprintf(out, "removed %s\n", path)
			}
			printUnitErrors(cmd, result.Errors)
			return nil
		},
	}
}

func newRecoverCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "Recreate missing descriptors and metadata files, then rebuild",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.engine.RecoverFromMedia(cmd.Context())
			if err != nil {
				return fmt.Errorf("recover: %w", err)
			}
			if ctx.flags.json {
				return writeJSON(cmd, result)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %d event descriptor(s) and %d item file(s)\n", result.EventsCreated, result.ItemsCreated)
			printUnitErrors(cmd, result.Errors)
			if result.Rebuild != nil {
				fmt.Fprintln(cmd.OutOrStdout())
				printRebuild(cmd, result.Rebuild)
			}
			return nil
		},
	}
}
