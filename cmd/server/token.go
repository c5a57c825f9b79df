package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/sessionchat/internal/app"
	"github.com/vovakirdan/sessionchat/internal/auth"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a development token signed with the configured secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if !cfg.AuthEnabled() {
				return errors.New("jwt_secret is not configured")
			}

			token, err := auth.GenerateToken(app.JWTConfig(&cfg), args[0], username)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "display name stored in the token")
	return cmd
}
