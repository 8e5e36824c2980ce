// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/elphin/memorylane-sub000/internal/database"
	"github.com/spf13/cobra"
)

func newTimelineCommand(ctx *commandContext) *cobra.Command {
	var (
		year    int
		eventID string
	)
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "List indexed years, a year's events, or an event's items",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			store := a.store
			c := cmd.Context()
			switch {
			case eventID != "":
				event, err := store.GetEvent(c, eventID)
				if err != nil {
					return err
				}
				items, err := store.ItemsForEvent(c, eventID)
				if err != nil {
					return err
				}
				if ctx.flags.json {
					return writeJSON(cmd, struct {
						Event *database.Event `json:"event"`
						Items []database.Item `json:"items"`
					}{event, items})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", event.Title, dateString(event.StartAt))
				printItems(cmd, items)
				return nil

			case year != 0:
				events, err := eventsForYear(cmd, store, year)
				if err != nil {
					return err
				}
				if ctx.flags.json {
					return writeJSON(cmd, events)
				}
				rows := make([][]string, 0, len(events))
				for _, e := range events {
					rows = append(rows, []string{dateString(e.StartAt), e.Title, e.Location, e.ID})
				}
				printTable(cmd, []string{"Date", "Event", "Location", "ID"}, rows, nil)
				return nil

			default:
				years, err := store.Years(c)
				if err != nil {
					return err
				}
				if ctx.flags.json {
					return writeJSON(cmd, years)
				}
				rows := make([][]string, 0, len(years))
				for _, y := range years {
					events, err := store.EventsForYear(c, y.ID)
					if err != nil {
						return err
					}
					rows = append(rows, []string{y.FolderPath, y.Title, strconv.Itoa(len(events))})
				}
				printTable(cmd, []string{"Folder", "Title", "Events"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight})
				return nil
			}
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "List the events of this year")
	cmd.Flags().StringVar(&eventID, "event", "", "List the items of this event id")
	return cmd
}

func eventsForYear(cmd *cobra.Command, store *database.Store, year int) ([]database.Event, error) {
	years, err := store.Years(cmd.Context())
	if err != nil {
		return nil, err
	}
	folder := strconv.Itoa(year)
	for _, y := range years {
		if y.FolderPath == folder {
			return store.EventsForYear(cmd.Context(), y.ID)
		}
	}
	return nil, fmt.Errorf("year not indexed: %d", year)
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		tag    string
		person string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search events and items by text, tag or person",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			if strings.TrimSpace(query) == "" && tag == "" && person == "" {
				return errors.New("give a query, --tag or --person")
			}

			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			c := cmd.Context()
			var items []database.Item
			var events []database.Event
			switch {
			case tag != "":
				items, err = a.store.ItemsByTag(c, tag)
			case person != "":
				items, err = a.store.ItemsByPerson(c, person)
			default:
				var res *database.SearchResult
				res, err = a.store.Search(c, query, limit)
				if res != nil {
					events, items = res.Events, res.Items
				}
			}
			if err != nil {
				return err
			}
			if limit > 0 && len(items) > limit {
				items = items[:limit]
			}

			if ctx.flags.json {
				return writeJSON(cmd, database.SearchResult{Events: events, Items: items})
			}
			if len(events) > 0 {
				rows := make([][]string, 0, len(events))
				for _, e := range events {
					rows = append(rows, []string{dateString(e.StartAt), e.Title, e.FolderPath})
				}
				printTable(cmd, []string{"Date", "Event", "Folder"}, rows, nil)
			}
			if len(items) == 0 && len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
				return nil
			}
			printItems(cmd, items)
			return nil
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "Only items with this tag")
	cmd.Flags().StringVar(&person, "person", "", "Only items showing this person")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of results")
	return cmd
}

func printItems(cmd *cobra.Command, items []database.Item) {
	if len(items) == 0 {
		return
	}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		when := ""
		if it.HappenedAt != nil {
			when = humanize.Time(*it.HappenedAt)
		}
		label := it.Caption
		if label == "" {
			label = it.Slug
		}
		rows = append(rows, []string{it.ItemType, label, when, it.SourcePath})
	}
	printTable(cmd, []string{"Type", "Item", "When", "Path"}, rows, nil)
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		path  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show library commits made by memorylane",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if a.history == nil {
				return errors.New("library history is not enabled (set history.auto_commit)")
			}
			commits, err := a.history.Log(path, limit)
			if err != nil {
				return err
			}
			if ctx.flags.json {
				return writeJSON(cmd, commits)
			}
			rows := make([][]string, 0, len(commits))
			for _, c := range commits {
				short := c.Hash
				if len(short) > 8 {
					short = short[:8]
				}
				rows = append(rows, []string{short, humanize.Time(c.Timestamp), c.Message, strconv.Itoa(len(c.Files))})
			}
			printTable(cmd, []string{"Commit", "When", "Message", "Files"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight})
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Only commits touching this library path")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of commits")
	return cmd
}

func dateString(t *time.Time) string {
	if t == nil {
		return "undated"
	}
	return t.Format("2006-01-02")
}
