package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.pilab.hu/shadow-oauth/domain"
)

func newUserCmd(a *app) *cobra.Command {
	userCmd := &cobra.Command{
		Use:     "user",
		Short:   "Manage resource owners known to the server",
		Aliases: []string{"users"},
	}

	var user domain.User
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if user.Username == "" && user.Email == "" {
				return errors.New("--username or --email is required")
			}
			if user.ID == "" {
				user.ID = uuid.NewString()
			}
			user.Enabled = true
			user.CreatedAt = time.Now()

			ctx := cmd.Context()
			if err := a.repos.UserRepository(ctx).Save(ctx, &user); err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			return a.render(&user, func(w *tabwriter.Writer) {
				row(w, "ID", "USERNAME", "EMAIL")
				row(w, user.ID, user.Username, user.Email)
			})
		},
	}
	createCmd.Flags().StringVar(&user.ID, "id", "", "user id (generated when empty)")
	createCmd.Flags().StringVar(&user.Username, "username", "", "username")
	createCmd.Flags().StringVar(&user.Email, "email", "", "email address")

	userCmd.AddCommand(createCmd)
	return userCmd
}
