package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"reelsync/internal/daemon"
	"reelsync/internal/library"
	"reelsync/internal/logging"
	"reelsync/internal/sources/simkl"
	"reelsync/internal/syncer"
	"reelsync/internal/tmdb"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the sync daemon with the dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logPath := filepath.Join(cfg.Paths.LogDir, "reelsync.log")
			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stdout", logPath},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := library.Open(cfg)
			if err != nil {
				return fmt.Errorf("open library store: %w", err)
			}
			defer store.Close()

			source, err := buildSource(cfg, "", logger)
			if err != nil {
				return err
			}

			catalog, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language, tmdb.WithLogger(logger))
			if err != nil {
				return err
			}

			sync := syncer.NewService(cfg, source, catalog, store, nil, logger)
			tokenStore := simkl.NewFileTokenStore(cfg.Simkl.TokenFile)
			var auth *simkl.Authenticator
			if cfg.Simkl.ClientID != "" {
				auth = simkl.NewAuthenticator(cfg.Simkl.ClientID, cfg.Simkl.ClientSecret, cfg.Simkl.CallbackPort, tokenStore, logger)
			}

			d, err := daemon.New(cfg, store, sync, tokenStore, auth, logger)
			if err != nil {
				return err
			}
			if err := d.Start(signalCtx); err != nil {
				return err
			}

			logger.Info("reelsync daemon running",
				logging.String("api", d.APIAddr()),
				logging.String("source", source.Name()),
			)

			<-signalCtx.Done()
			logger.Info("reelsync daemon shutting down")
			d.Stop()
			return nil
		},
	}
}
