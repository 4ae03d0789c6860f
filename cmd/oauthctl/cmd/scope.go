package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.pilab.hu/shadow-oauth/domain"
)

func newScopeCmd(a *app) *cobra.Command {
	scopeCmd := &cobra.Command{
		Use:     "scope",
		Short:   "Manage the scope registry",
		Aliases: []string{"scopes"},
	}

	var (
		description string
		isDefault   bool
	)
	createCmd := &cobra.Command{
		Use:   "create IDENTIFIER",
		Short: "Register a scope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := a.provider.ScopeService().CreateScope(cmd.Context(), args[0], description, isDefault)
			if err != nil {
				return fmt.Errorf("failed to create scope: %w", err)
			}
			return a.render(scope, func(w *tabwriter.Writer) {
				row(w, "IDENTIFIER", "DEFAULT", "DESCRIPTION")
				row(w, scope.Identifier, scope.IsDefault, scope.Description)
			})
		},
	}
	createCmd.Flags().StringVar(&description, "description", "", "human readable description")
	createCmd.Flags().BoolVar(&isDefault, "default", false, "mark the scope as a default scope")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered scopes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scopes, err := a.provider.ScopeService().ListScopes(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list scopes: %w", err)
			}
			if scopes == nil {
				scopes = []*domain.Scope{}
			}
			return a.render(scopes, func(w *tabwriter.Writer) {
				row(w, "IDENTIFIER", "DEFAULT", "DESCRIPTION")
				for _, s := range scopes {
					row(w, s.Identifier, s.IsDefault, s.Description)
				}
			})
		},
	}

	scopeCmd.AddCommand(createCmd, listCmd)
	return scopeCmd
}
