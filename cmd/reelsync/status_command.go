package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"reelsync/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the sync status of a running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			client := &http.Client{Timeout: 5 * time.Second}
			url := "http://" + cfg.Paths.APIBind + "/api/sync/status"
			resp, err := client.Get(url)
			if err != nil {
				return fmt.Errorf("connect to daemon at %s: %w (is `reelsync serve` running?)", cfg.Paths.APIBind, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("daemon returned status %d", resp.StatusCode)
			}

			var status api.SyncStatusView
			if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
				return fmt.Errorf("decode status response: %w", err)
			}

			lastSync := status.LastSync
			if lastSync == "" {
				lastSync = "never"
			}
			rows := [][]string{
				{"Status", status.Status},
				{"Syncing", yesNo(status.Running)},
				{"Last sync", lastSync},
				{"Watched movies", strconv.Itoa(status.MoviesCount)},
				{"Watchlist movies", strconv.Itoa(status.WatchlistCount)},
			}
			if status.ErrorMessage != "" {
				rows = append(rows, []string{"Last error", status.ErrorMessage})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Field", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
