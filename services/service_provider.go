package services

import (
	"context"
	"time"

	applog "go.pilab.hu/shadow-oauth/log"
)

// ServiceProviderOptions configures the services built by NewServiceProvider.
type ServiceProviderOptions struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	AuthCodeTTL     time.Duration
	Generator       TokenGenerator
	Hasher          PasswordHasher
	Logger          applog.Logger
}

// ServiceProvider holds the fully wired OAuth2 engine.
type ServiceProvider struct {
	oauth    *OAuthService
	access   *AccessTokenService
	refresh  *RefreshTokenService
	codes    *AuthorizationCodeService
	clients  *ClientManagementService
	scopes   *ScopeService
	cleanup  *CleanupService
	authn    *ClientAuthenticator
	validate *ScopeValidator
}

// NewServiceProvider wires every service on top of rp. The dispatcher
// consults the grant handlers in the order authorization_code,
// client_credentials, refresh_token.
func NewServiceProvider(ctx context.Context, rp RepositoryProvider, opts ServiceProviderOptions) *ServiceProvider {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Nop()
	}

	accessRepo := rp.AccessTokenRepository(ctx)
	refreshRepo := rp.RefreshTokenRepository(ctx)
	codeRepo := rp.AuthorizationCodeRepository(ctx)
	clientRepo := rp.ClientRepository(ctx)
	scopeRepo := rp.ScopeRepository(ctx)
	tx := rp.Transactor(ctx)

	pkce := NewPKCEValidator()
	scopeValidator := NewScopeValidator(scopeRepo)
	authenticator := NewClientAuthenticator(clientRepo, opts.Hasher)

	access := NewAccessTokenService(accessRepo, opts.Generator, opts.AccessTokenTTL, logger.With(applog.Fields{"component": "access_tokens"}))
	refresh := NewRefreshTokenService(refreshRepo, opts.Generator, opts.RefreshTokenTTL, logger.With(applog.Fields{"component": "refresh_tokens"}))
	codes := NewAuthorizationCodeService(codeRepo, opts.Generator, pkce, opts.AuthCodeTTL, logger.With(applog.Fields{"component": "authorization_codes"}))

	grantLogger := logger.With(applog.Fields{"component": "grants"})
	handlers := []GrantHandler{
		NewAuthorizationCodeGrantHandler(authenticator, tx, codes, access, refresh, grantLogger),
		NewClientCredentialsGrantHandler(authenticator, tx, scopeValidator, access, grantLogger),
		NewRefreshTokenGrantHandler(authenticator, tx, access, refresh, grantLogger),
	}

	return &ServiceProvider{
		oauth: NewOAuthService(handlers, clientRepo, rp.UserRepository(ctx), scopeValidator, pkce, codes, access, refresh,
			logger.With(applog.Fields{"component": "oauth"})),
		access:   access,
		refresh:  refresh,
		codes:    codes,
		clients:  NewClientManagementService(clientRepo, opts.Generator, opts.Hasher, access, refresh, logger.With(applog.Fields{"component": "clients"})),
		scopes:   NewScopeService(scopeRepo),
		cleanup:  NewCleanupService(accessRepo, refreshRepo, codeRepo, logger.With(applog.Fields{"component": "cleanup"})),
		authn:    authenticator,
		validate: scopeValidator,
	}
}

func (p *ServiceProvider) OAuthService() *OAuthService { return p.oauth }
func (p *ServiceProvider) AccessTokenService() *AccessTokenService { return p.access }
func (p *ServiceProvider) RefreshTokenService() *RefreshTokenService { return p.refresh }
func (p *ServiceProvider) AuthorizationCodeService() *AuthorizationCodeService { return p.codes }
func (p *ServiceProvider) ClientManagementService() *ClientManagementService { return p.clients }
func (p *ServiceProvider) ScopeService() *ScopeService { return p.scopes }
func (p *ServiceProvider) CleanupService() *CleanupService { return p.cleanup }
func (p *ServiceProvider) ClientAuthenticator() *ClientAuthenticator { return p.authn }
func (p *ServiceProvider) ScopeValidator() *ScopeValidator { return p.validate }
