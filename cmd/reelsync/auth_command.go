package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reelsync/internal/logging"
	"reelsync/internal/sources/simkl"
)

const authorizeTimeout = 5 * time.Minute

func newAuthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize reelsync with Simkl",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Simkl.ClientID == "" {
				return errors.New("simkl.client_id is not configured")
			}

			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store := simkl.NewFileTokenStore(cfg.Simkl.TokenFile)
			auth := simkl.NewAuthenticator(cfg.Simkl.ClientID, cfg.Simkl.ClientSecret, cfg.Simkl.CallbackPort, store, logger)

			authCtx, cancel := context.WithTimeout(cmd.Context(), authorizeTimeout)
			defer cancel()

			out := cmd.OutOrStdout()
			_, err = auth.Authorize(authCtx, func(authURL string) {
				fmt.Fprintln(out, "Open this URL in your browser to authorize reelsync:")
				fmt.Fprintln(out)
				fmt.Fprintf(out, "  %s\n", authURL)
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Waiting for the authorization callback...")
			})
			if err != nil {
				if errors.Is(err, simkl.ErrAuthorizationTimeout) {
					return fmt.Errorf("authorization timed out after %s", authorizeTimeout)
				}
				return fmt.Errorf("simkl authorization: %w", err)
			}

			fmt.Fprintf(out, "Authorization complete; token saved to %s\n", cfg.Simkl.TokenFile)
			return nil
		},
	}
}
