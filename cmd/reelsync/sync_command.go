package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reelsync/internal/enrichment"
	"reelsync/internal/letterboxd"
	"reelsync/internal/logging"
	"reelsync/internal/media"
	"reelsync/internal/notifications"
	"reelsync/internal/tmdb"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var sourceFlag string
	var outputFlag string
	var noWatched bool
	var noWatchlist bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch watch history, enrich it against TMDB, and export Letterboxd CSVs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			source, err := buildSource(cfg, strings.TrimSpace(sourceFlag), logger)
			if err != nil {
				return err
			}

			catalog, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language, tmdb.WithLogger(logger))
			if err != nil {
				return err
			}
			resolver := enrichment.NewResolver(catalog, logger)

			outputDir := strings.TrimSpace(outputFlag)
			if outputDir == "" {
				outputDir = cfg.Paths.OutputDir
			}
			exporter, err := letterboxd.NewExporter(outputDir, logger)
			if err != nil {
				return err
			}

			notifier := notifications.NewService(cfg)
			runCtx := cmd.Context()
			out := cmd.OutOrStdout()

			if !source.TestConnection(runCtx) {
				err := fmt.Errorf("connection to %s failed; check the configured credentials", source.Name())
				_ = notifier.NotifySyncFailed(runCtx, err, "connect")
				return err
			}
			_ = notifier.NotifySyncStarted(runCtx, source.Name())
			started := time.Now()

			var rows [][]string
			var totalUnmatched int
			var watchedCount, watchlistCount int

			if cfg.Export.Watched && !noWatched {
				entries, err := source.GetWatched(runCtx)
				if err != nil {
					_ = notifier.NotifySyncFailed(runCtx, err, "fetch watched")
					return fmt.Errorf("fetch watched history: %w", err)
				}
				matched := enrichWatched(runCtx, resolver, entries)
				if !cfg.Export.Ratings {
					for i := range entries {
						entries[i].Rating = 0
					}
				}
				path, err := exporter.ExportWatched(entries)
				if err != nil {
					_ = notifier.NotifySyncFailed(runCtx, err, "export watched")
					return fmt.Errorf("export watched history: %w", err)
				}
				unmatched := len(entries) - matched
				totalUnmatched += unmatched
				watchedCount = len(entries)
				rows = append(rows, summaryRow("watched", len(entries), matched, unmatched, path))
			}

			if cfg.Export.Watchlist && !noWatchlist {
				entries, err := source.GetWatchlist(runCtx)
				if err != nil {
					_ = notifier.NotifySyncFailed(runCtx, err, "fetch watchlist")
					return fmt.Errorf("fetch watchlist: %w", err)
				}
				matched := enrichWatchlist(runCtx, resolver, entries)
				path, err := exporter.ExportWatchlist(entries)
				if err != nil {
					_ = notifier.NotifySyncFailed(runCtx, err, "export watchlist")
					return fmt.Errorf("export watchlist: %w", err)
				}
				unmatched := len(entries) - matched
				totalUnmatched += unmatched
				watchlistCount = len(entries)
				rows = append(rows, summaryRow("watchlist", len(entries), matched, unmatched, path))
			}

			_ = notifier.NotifySyncCompleted(runCtx, watchedCount, watchlistCount, time.Since(started))
			if totalUnmatched > 0 {
				_ = notifier.NotifyUnmatched(runCtx, totalUnmatched)
			}

			if len(rows) == 0 {
				fmt.Fprintln(out, "Nothing to export; watched and watchlist are both disabled.")
				return nil
			}

			fmt.Fprintln(out, renderTable(
				[]string{"List", "Entries", "Matched", "Unmatched", "File"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceFlag, "source", "", "Override the configured source (simkl, plex, tautulli)")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Directory for the exported CSV files")
	cmd.Flags().BoolVar(&noWatched, "no-watched", false, "Skip the watched history export")
	cmd.Flags().BoolVar(&noWatchlist, "no-watchlist", false, "Skip the watchlist export")
	return cmd
}

func enrichWatched(ctx context.Context, resolver *enrichment.Resolver, entries []media.WatchEntry) int {
	bar := newProgressBar(len(entries), "Enriching watched")
	matched := 0
	for i := range entries {
		entries[i].Movie = resolver.Enrich(ctx, entries[i].Movie)
		if entries[i].Movie.HasID() {
			matched++
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	return matched
}

func enrichWatchlist(ctx context.Context, resolver *enrichment.Resolver, entries []media.WatchlistEntry) int {
	bar := newProgressBar(len(entries), "Enriching watchlist")
	matched := 0
	for i := range entries {
		entries[i].Movie = resolver.Enrich(ctx, entries[i].Movie)
		if entries[i].Movie.HasID() {
			matched++
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	return matched
}

func summaryRow(list string, entries, matched, unmatched int, path string) []string {
	return []string{
		list,
		strconv.Itoa(entries),
		strconv.Itoa(matched),
		strconv.Itoa(unmatched),
		path,
	}
}
