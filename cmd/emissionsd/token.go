package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/consorcio/emissions/auth"
	"github.com/consorcio/emissions/config"
)

func newTokenCommand() *cobra.Command {
	var (
		subject string
		email   string
		roles   []string
		expiry  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for the admin endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(serviceName)
			if err != nil {
				return err
			}

			manager := auth.NewJWTManager(auth.JWTConfig{
				Secret:       cfg.JWTSecret,
				Issuer:       cfg.JWTIssuer,
				Audience:     cfg.JWTAudience,
				AccessExpiry: expiry,
			})

			token, err := manager.GenerateAccessToken(subject, email, roles)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "admin", "Token subject")
	cmd.Flags().StringVar(&email, "email", "", "Email recorded in audit logs")
	cmd.Flags().StringSliceVar(&roles, "role", []string{auth.RoleAdmin}, "Roles granted by the token")
	cmd.Flags().DurationVar(&expiry, "expiry", time.Hour, "Token lifetime")
	return cmd
}
