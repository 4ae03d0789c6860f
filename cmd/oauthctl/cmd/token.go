package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.pilab.hu/shadow-oauth/domain"
	"go.pilab.hu/shadow-oauth/services"
)

func newTokenCmd(a *app) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:     "token",
		Short:   "Issue, inspect and revoke tokens",
		Aliases: []string{"tokens"},
	}

	tokenCmd.AddCommand(
		newTokenIssueCmd(a),
		newTokenIntrospectCmd(a),
		newTokenRevokeCmd(a),
		newTokenRevokeUserCmd(a),
	)

	return tokenCmd
}

func newTokenIssueCmd(a *app) *cobra.Command {
	var (
		clientID string
		userID   string
		scopes   []string
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue an access token directly, bypassing the grant flows",
		Long: "Issue an access token for a client, optionally bound to a user. Scopes are validated " +
			"against the registry and the client's allowed scopes. Intended for bootstrapping administrator access.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			client, err := a.provider.ClientManagementService().GetClient(ctx, clientID)
			if err != nil {
				return fmt.Errorf("failed to load client %s: %w", clientID, err)
			}
			granted, err := a.provider.ScopeValidator().Validate(ctx, scopes, client.AllowedScopes)
			if err != nil {
				return err
			}

			at, err := a.provider.AccessTokenService().Create(ctx, client, granted, userID)
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}

			resp := &services.TokenResponse{
				AccessToken: at.Token,
				TokenType:   domain.TokenTypeBearer,
				ExpiresIn:   int64(at.ExpiresAt.Sub(at.CreatedAt).Seconds()),
				Scope:       services.JoinScopes(at.Scopes),
			}
			return a.render(resp, func(w *tabwriter.Writer) {
				row(w, "ACCESS TOKEN", "EXPIRES", "SCOPE")
				row(w, at.Token, ts(at.ExpiresAt), resp.Scope)
			})
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "client the token is issued to (required)")
	cmd.Flags().StringVar(&userID, "user-id", "", "user the token acts for")
	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "scope to grant (repeatable)")
	_ = cmd.MarkFlagRequired("client-id")

	return cmd
}

func newTokenIntrospectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "introspect TOKEN",
		Short: "Show whether an access token is active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := a.provider.OAuthService().Introspect(cmd.Context(), args[0])
			return a.render(resp, func(w *tabwriter.Writer) {
				row(w, "Active:", resp.Active)
				if !resp.Active {
					return
				}
				row(w, "Client ID:", resp.ClientID)
				row(w, "Scope:", resp.Scope)
				row(w, "Subject:", resp.Sub)
				row(w, "Username:", resp.Username)
				row(w, "Expires:", ts(time.Unix(resp.Exp, 0)))
			})
		},
	}
}

func newTokenRevokeCmd(a *app) *cobra.Command {
	var hint string

	cmd := &cobra.Command{
		Use:   "revoke TOKEN",
		Short: "Revoke an access or refresh token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.provider.OAuthService().Revoke(cmd.Context(), args[0], hint)
			fmt.Fprintln(a.out, "Token revoked.")
			return nil
		},
	}
	cmd.Flags().StringVar(&hint, "hint", "", "token type hint: access_token or refresh_token")

	return cmd
}

func newTokenRevokeUserCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-user USER_ID",
		Short: "Revoke every access and refresh token of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			accessCount, err := a.provider.AccessTokenService().RevokeAllForUser(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to revoke access tokens: %w", err)
			}
			refreshCount, err := a.provider.RefreshTokenService().RevokeAllForUser(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to revoke refresh tokens: %w", err)
			}
			fmt.Fprintf(a.out, "Revoked %d access and %d refresh tokens.\n", accessCount, refreshCount)
			return nil
		},
	}
}
