package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCleanupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired access tokens, refresh tokens and authorization codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := a.provider.CleanupService().DeleteExpired(cmd.Context())
			if err != nil {
				return fmt.Errorf("cleanup failed: %w", err)
			}
			return a.render(result, func(w *tabwriter.Writer) {
				row(w, "KIND", "DELETED")
				row(w, "access_tokens", result.AccessTokens)
				row(w, "refresh_tokens", result.RefreshTokens)
				row(w, "authorization_codes", result.AuthorizationCodes)
				row(w, "total", result.Total())
			})
		},
	}
}
