package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/auth"
	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newSessionCommand() *cobra.Command {
	var (
		email string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "session <editor>",
		Short: "Mint an editor session token for the save endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appConfig, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			if !appConfig.SessionsEnabled() {
				return errors.New("session.signing_secret is not configured")
			}
			issuer, err := auth.NewSessionIssuer(auth.SessionIssuerConfig{
				SigningSecret: []byte(appConfig.SessionSecret),
				Issuer:        appConfig.SessionIssuer,
				TTL:           ttl,
			})
			if err != nil {
				return err
			}
			token, expiresAt, err := issuer.Issue(args[0], email)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\nexpires %s\n", appConfig.SessionCookieName, token, expiresAt.Format(time.RFC3339))
			return err
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Editor email recorded in the session")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "Session lifetime")
	return cmd
}
