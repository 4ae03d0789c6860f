package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.pilab.hu/shadow-oauth/domain"
	"go.pilab.hu/shadow-oauth/services"
)

func newClientCmd(a *app) *cobra.Command {
	clientCmd := &cobra.Command{
		Use:     "client",
		Short:   "Manage OAuth2 clients",
		Aliases: []string{"clients"},
	}

	clientCmd.AddCommand(
		newClientCreateCmd(a),
		newClientListCmd(a),
		newClientGetCmd(a),
		newClientDeactivateCmd(a),
		newClientDeleteCmd(a),
	)

	return clientCmd
}

func newClientCreateCmd(a *app) *cobra.Command {
	var (
		req        services.CreateClientRequest
		grantTypes []string
		public     bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new client and print its secret",
		Long:  "Register a new client. The generated client secret is printed once and cannot be retrieved later.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, g := range grantTypes {
				req.GrantTypes = append(req.GrantTypes, domain.GrantType(g))
			}
			req.Confidential = !public

			created, err := a.provider.ClientManagementService().CreateClient(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("client registration failed: %w", err)
			}

			return a.render(struct {
				*domain.Client
				ClientSecret string `json:"client_secret"`
			}{created.Client, created.ClientSecret}, func(w *tabwriter.Writer) {
				row(w, "CLIENT ID", "CLIENT SECRET", "NAME")
				row(w, created.Client.ClientID, created.ClientSecret, created.Client.Name)
			})
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "client display name (required)")
	cmd.Flags().StringVar(&req.Description, "description", "", "client description")
	cmd.Flags().StringSliceVar(&req.RedirectURIs, "redirect-uri", nil, "registered redirect URI (repeatable)")
	cmd.Flags().StringSliceVar(&grantTypes, "grant-type", []string{string(domain.GrantTypeAuthorizationCode), string(domain.GrantTypeRefreshToken)},
		"allowed grant type (repeatable)")
	cmd.Flags().StringSliceVar(&req.AllowedScopes, "scope", nil, "allowed scope (repeatable)")
	cmd.Flags().BoolVar(&public, "public", false, "register a public client")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newClientListCmd(a *app) *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			clients, err := a.provider.ClientManagementService().ListClients(cmd.Context(), activeOnly)
			if err != nil {
				return fmt.Errorf("failed to list clients: %w", err)
			}
			if clients == nil {
				clients = []*domain.Client{}
			}

			return a.render(clients, func(w *tabwriter.Writer) {
				row(w, "CLIENT ID", "NAME", "GRANT TYPES", "SCOPES", "CONFIDENTIAL", "ACTIVE")
				for _, c := range clients {
					grants := make([]string, len(c.GrantTypes))
					for i, g := range c.GrantTypes {
						grants[i] = string(g)
					}
					row(w, c.ClientID, c.Name, list(grants), list(c.AllowedScopes), c.Confidential, c.Active)
				}
			})
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active", false, "only list active clients")

	return cmd
}

func newClientGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get CLIENT_ID",
		Short: "Show a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.provider.ClientManagementService().GetClient(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get client %s: %w", args[0], err)
			}

			return a.render(c, func(w *tabwriter.Writer) {
				row(w, "Client ID:", c.ClientID)
				row(w, "Name:", c.Name)
				row(w, "Description:", c.Description)
				row(w, "Redirect URIs:", list(c.RedirectURIs))
				row(w, "Allowed scopes:", list(c.AllowedScopes))
				row(w, "Confidential:", c.Confidential)
				row(w, "Active:", c.Active)
				row(w, "Created:", ts(c.CreatedAt))
				row(w, "Updated:", ts(c.UpdatedAt))
			})
		},
	}
}

func newClientDeactivateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate CLIENT_ID",
		Short: "Deactivate a client without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.provider.ClientManagementService().DeactivateClient(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to deactivate client %s: %w", args[0], err)
			}
			fmt.Fprintf(a.out, "Client %s deactivated.\n", args[0])
			return nil
		},
	}
}

func newClientDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete CLIENT_ID",
		Short: "Delete a client and revoke all its tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.provider.ClientManagementService().DeleteClient(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete client %s: %w", args[0], err)
			}
			fmt.Fprintf(a.out, "Client %s deleted.\n", args[0])
			return nil
		},
	}
}
