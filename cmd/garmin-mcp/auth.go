package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justinwongcn/garmin-mcp/garmin"
)

func authCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Verify credentials and persist an OAuth token",
		Long: `auth reads GARMIN_EMAIL and GARMIN_PASSWORD from the environment,
performs a credential login against Garmin Connect, and persists the
resulting OAuth token under GARMINTOKENS (default ~/.garminconnect).

Subsequent 'serve' runs reuse the persisted token and only fall back
to credential login when it expires.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, sync, err := newLogger()
			if err != nil {
				return err
			}
			defer sync()

			cfg := garmin.LoadConfig()
			if err := cfg.ValidateCredentials(); err != nil {
				return err
			}

			auth := garmin.NewAuthenticator(cfg, logger)
			token, err := auth.Login(cmd.Context())
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			fmt.Printf("Authenticated. Token valid until %s\n", token.ExpiresAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}
