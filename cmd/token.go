package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"estatehub/bff/internal/config"
	jwtpkg "estatehub/bff/pkg/jwt"
)

// newTokenCommand mints an admin API token for an operator listed in admin.user_ids.
func newTokenCommand(configPath *string) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			listed := false
			for _, allowed := range cfg.Admin.UserIDs {
				if allowed == id.String() {
					listed = true
					break
				}
			}
			if !listed {
				return fmt.Errorf("user %s is not in admin.user_ids", id)
			}

			m := jwtpkg.NewManager(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL)
			token, err := m.GenerateAdminToken(id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "operator user id (uuid)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
