package main

import (
	"fmt"

	"log/slog"

	"reelsync/internal/config"
	"reelsync/internal/sources"
	"reelsync/internal/sources/plex"
	"reelsync/internal/sources/simkl"
	"reelsync/internal/sources/tautulli"
)

// buildSource constructs the configured watch-history provider. An empty name
// falls back to sources.primary from the configuration.
func buildSource(cfg *config.Config, name string, logger *slog.Logger) (sources.Source, error) {
	if name == "" {
		name = cfg.Sources.Primary
	}

	switch name {
	case "simkl":
		store := simkl.NewFileTokenStore(cfg.Simkl.TokenFile)
		token, err := store.Load()
		if err != nil {
			return nil, fmt.Errorf("load simkl token: %w", err)
		}
		if token.AccessToken == "" {
			return nil, fmt.Errorf("no Simkl token found; run `reelsync auth` first")
		}
		return simkl.New(cfg.Simkl.ClientID, token, logger)
	case "plex":
		return plex.New(cfg.Plex.URL, cfg.Plex.Token, logger)
	case "tautulli":
		return tautulli.New(cfg.Tautulli.URL, cfg.Tautulli.APIKey, cfg.Tautulli.UserID, logger)
	default:
		return nil, fmt.Errorf("unknown source %q (expected simkl, plex, or tautulli)", name)
	}
}
