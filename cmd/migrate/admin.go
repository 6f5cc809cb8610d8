package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/propscout/propscout-backend/internal/auth"
	"github.com/propscout/propscout-backend/internal/users"
	"github.com/propscout/propscout-backend/pkg/db"
)

func newAdminCmd() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage operator accounts",
	}
	admin.AddCommand(newAdminCreateCmd())
	return admin
}

func newAdminCreateCmd() *cobra.Command {
	var req auth.AdminRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an ADMIN account",
		Long:  "Create an ADMIN account. The public register endpoint never grants the role, so the first operator is bootstrapped here.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd.Context(), "admin create")
			if err != nil {
				return err
			}
			dbClient, err := db.New(e.ctx, e.cfg.DB, e.logg)
			if err != nil {
				e.logg.Error(e.ctx, "database unreachable", err)
				return err
			}
			defer dbClient.Close()

			user, err := auth.BootstrapAdmin(e.ctx, users.NewRepository(dbClient.DB()), e.cfg.Password, req)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			e.logg.Info(e.logg.WithFields(e.ctx, map[string]any{"user_id": user.ID.String()}), "admin created")
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "admin email (required)")
	cmd.Flags().StringVar(&req.Password, "password", "", "admin password (required)")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
