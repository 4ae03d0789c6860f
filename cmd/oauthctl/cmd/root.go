package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.pilab.hu/shadow-oauth/config"
	"go.pilab.hu/shadow-oauth/internal/audit"
	"go.pilab.hu/shadow-oauth/internal/auth"
	"go.pilab.hu/shadow-oauth/internal/crypto"
	"go.pilab.hu/shadow-oauth/internal/storage"
	"go.pilab.hu/shadow-oauth/log"
	"go.pilab.hu/shadow-oauth/services"
)

// AppName is the CLI binary name.
const AppName = "oauthctl"

// Opener opens the repositories the CLI works on. The returned func
// releases them.
type Opener func(ctx context.Context, cfg *config.ServerConfig) (services.RepositoryProvider, func(context.Context) error, error)

func openStorage(ctx context.Context, cfg *config.ServerConfig) (services.RepositoryProvider, func(context.Context) error, error) {
	b, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return b, b.Close, nil
}

type app struct {
	open   Opener
	out    io.Writer
	format string

	logger   log.Logger
	provider *services.ServiceProvider
	repos    services.RepositoryProvider
	close    func(context.Context) error
}

// NewRootCmd builds the command tree. open defaults to the storage selected
// by the server configuration.
func NewRootCmd(open Opener, out io.Writer) *cobra.Command {
	if open == nil {
		open = openStorage
	}
	a := &app{open: open, out: out}

	rootCmd := &cobra.Command{
		Use:           AppName,
		Short:         "oauthctl administers the shadow-oauth authorization server",
		Long:          `A command-line interface for managing OAuth2 clients, scopes, users and issued tokens directly in the server's storage.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// audit events must not interleave with -o json|yaml output
			audit.SetOutput(cmd.ErrOrStderr())
			return a.init(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.close == nil {
				return nil
			}
			return a.close(cmd.Context())
		},
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVarP(&a.format, "output", "o", formatTable, "output format: table, json or yaml")

	rootCmd.AddCommand(
		newClientCmd(a),
		newScopeCmd(a),
		newUserCmd(a),
		newTokenCmd(a),
		newCleanupCmd(a),
	)

	return rootCmd
}

func (a *app) init(ctx context.Context) error {
	switch a.format {
	case formatTable, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unknown output format %q", a.format)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	a.logger = log.NewZerologAdapter(log.ParseLevel(cfg.LogLevel), true)

	repos, closeFn, err := a.open(ctx, cfg)
	if err != nil {
		return err
	}
	a.repos = repos
	a.close = closeFn

	a.provider = services.NewServiceProvider(ctx, repos, services.ServiceProviderOptions{
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		AuthCodeTTL:     cfg.AuthCodeTTL,
		Generator:       crypto.NewTokenGenerator(),
		Hasher:          auth.NewBcryptPasswordHasher(cfg.BcryptCost),
		Logger:          a.logger,
	})

	return nil
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := NewRootCmd(nil, os.Stdout)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
