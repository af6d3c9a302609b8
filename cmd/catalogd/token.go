package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"CatalogHooks/internal/auth"
	"CatalogHooks/internal/config"
)

func tokenCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token signed with the configured JWT_SECRET",
		Long: `Print a bearer token signed with the configured JWT_SECRET.

Examples:
  catalogd token --user ana
  curl -H "Authorization: Bearer $(catalogd token)" localhost:3000/api/v2/productos`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			tok, err := auth.NewTokenMaker(cfg.JWTSecret, cfg.TokenTTL).Issue(user)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "user to embed in the token")
	return cmd
}
