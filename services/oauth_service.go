package services

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.pilab.hu/shadow-oauth/domain"
	serrors "go.pilab.hu/shadow-oauth/errors"
	"go.pilab.hu/shadow-oauth/internal/metrics"
	applog "go.pilab.hu/shadow-oauth/log"
	"go.pilab.hu/shadow-oauth/tracing"
)

// AuthorizeRequest carries the parameters of an authorization request.
type AuthorizeRequest struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// AuthorizeResponse is returned to the client's redirect URI.
type AuthorizeResponse struct {
	Code  string `json:"code"`
	State string `json:"state,omitempty"`
}

// IntrospectionResponse is the RFC 7662 introspection response. Only Active
// is set for inactive tokens.
type IntrospectionResponse struct {
	Active    bool   `json:"active"`
	Scope     string `json:"scope,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
	Iat       int64  `json:"iat,omitempty"`
	Username  string `json:"username,omitempty"`
	Sub       string `json:"sub,omitempty"`
}

// OAuthService dispatches token requests to grant handlers and implements
// the authorize, revocation and introspection operations.
type OAuthService struct {
	handlers []GrantHandler

	clients domain.ClientRepository
	users   domain.UserRepository
	scopes  *ScopeValidator
	pkce    *PKCEValidator
	codes   *AuthorizationCodeService
	access  *AccessTokenService
	refresh *RefreshTokenService
	logger  applog.Logger
}

// NewOAuthService creates the dispatcher. Handlers are consulted in the
// given order.
func NewOAuthService(
	handlers []GrantHandler,
	clients domain.ClientRepository,
	users domain.UserRepository,
	scopes *ScopeValidator,
	pkce *PKCEValidator,
	codes *AuthorizationCodeService,
	access *AccessTokenService,
	refresh *RefreshTokenService,
	logger applog.Logger,
) *OAuthService {
	return &OAuthService{
		handlers: handlers,
		clients:  clients,
		users:    users,
		scopes:   scopes,
		pkce:     pkce,
		codes:    codes,
		access:   access,
		refresh:  refresh,
		logger:   logger,
	}
}

// IssueToken delegates to the first handler supporting req.GrantType.
func (s *OAuthService) IssueToken(ctx context.Context, req *TokenRequest) (*TokenResponse, error) {
	ctx, span := tracing.Start(ctx, "OAuthService.IssueToken")
	defer span.End()
	span.SetAttributes(attribute.String("oauth.grant_type", req.GrantType))

	resp, err := s.dispatch(ctx, req)
	if err != nil {
		code := serrors.ServerError
		if oerr, ok := serrors.AsOAuth2Error(err); ok {
			code = oerr.Code
			s.logger.Warn(ctx, "Token request rejected", applog.Fields{
				"grant_type":        req.GrantType,
				"error":             oerr.Code,
				"error_description": oerr.Description,
			})
		} else {
			s.logger.Error(ctx, "Token request failed", err, applog.Fields{"grant_type": req.GrantType})
		}
		metrics.GrantFailuresTotal.WithLabelValues(req.GrantType, code).Inc()
		span.SetStatus(codes.Error, code)
		return nil, err
	}

	return resp, nil
}

func (s *OAuthService) dispatch(ctx context.Context, req *TokenRequest) (*TokenResponse, error) {
	for _, h := range s.handlers {
		if h.Supports(req.GrantType) {
			return h.Handle(ctx, req)
		}
	}
	return nil, serrors.NewUnsupportedGrantType(req.GrantType)
}

// Authorize issues an authorization code to userID for the client named in
// req. The user is resolved by the caller.
func (s *OAuthService) Authorize(ctx context.Context, req *AuthorizeRequest, userID string) (*AuthorizeResponse, error) {
	ctx, span := tracing.Start(ctx, "OAuthService.Authorize")
	defer span.End()
	span.SetAttributes(attribute.String("oauth.client_id", req.ClientID))

	if req.ResponseType != "code" {
		return nil, serrors.NewInvalidRequest("Unsupported response type, only 'code' is allowed")
	}
	if req.ClientID == "" {
		return nil, serrors.NewInvalidRequest("Client ID is required")
	}

	client, err := s.clients.FindByClientID(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	if client == nil || !client.Active {
		return nil, serrors.NewInvalidClient("Invalid or inactive client")
	}
	if !client.AllowsGrantType(domain.GrantTypeAuthorizationCode) {
		return nil, serrors.NewUnauthorizedClient("Client is not authorized to use authorization_code grant type")
	}

	if req.RedirectURI == "" {
		return nil, serrors.NewInvalidRequest("Redirect URI is required")
	}
	if !client.HasRedirectURI(req.RedirectURI) {
		return nil, serrors.NewInvalidRequest("Redirect URI is not registered for this client")
	}

	scopes, err := s.scopes.Validate(ctx, ParseScopes(req.Scope), client.AllowedScopes)
	if err != nil {
		return nil, err
	}

	if req.CodeChallengeMethod != "" && !s.pkce.SupportsMethod(req.CodeChallengeMethod) {
		return nil, serrors.NewUnsupportedPKCEMethod(req.CodeChallengeMethod)
	}

	code, err := s.codes.Create(ctx, client, userID, req.RedirectURI, scopes, req.CodeChallenge, req.CodeChallengeMethod)
	if err != nil {
		span.SetStatus(codes.Error, "create code")
		return nil, err
	}

	metrics.TokensIssuedTotal.WithLabelValues(string(domain.GrantTypeAuthorizationCode), "authorization_code").Inc()

	return &AuthorizeResponse{Code: code.Code, State: req.State}, nil
}

// Revoke implements RFC 7009. With a refresh_token hint only refresh tokens
// are considered. Otherwise access tokens are tried first and refresh tokens
// only when no hint was given and no access token has that value. Failures
// are logged, never returned.
func (s *OAuthService) Revoke(ctx context.Context, token, tokenTypeHint string) {
	ctx, span := tracing.Start(ctx, "OAuthService.Revoke")
	defer span.End()

	if token == "" {
		return
	}

	if tokenTypeHint == domain.TokenTypeRefreshToken {
		if _, err := s.refresh.revoke(ctx, token); err != nil {
			s.revokeFailed(ctx, err)
		}
		return
	}

	found, err := s.access.revoke(ctx, token)
	if err != nil {
		s.revokeFailed(ctx, err)
		return
	}
	if found || tokenTypeHint != "" {
		return
	}

	if _, err := s.refresh.revoke(ctx, token); err != nil {
		s.revokeFailed(ctx, err)
	}
}

func (s *OAuthService) revokeFailed(ctx context.Context, err error) {
	s.logger.Error(ctx, "Token revocation failed", err)
}

// Introspect implements RFC 7662 for access tokens. Any failure yields an
// inactive response.
func (s *OAuthService) Introspect(ctx context.Context, token string) *IntrospectionResponse {
	ctx, span := tracing.Start(ctx, "OAuthService.Introspect")
	defer span.End()

	inactive := &IntrospectionResponse{Active: false}
	if token == "" {
		return inactive
	}

	at, err := s.access.Validate(ctx, token)
	if err != nil {
		if !errors.Is(err, serrors.ErrInvalidToken) {
			s.logger.Error(ctx, "Introspection lookup failed", err)
		}
		return inactive
	}

	resp := &IntrospectionResponse{
		Active:    true,
		Scope:     JoinScopes(at.Scopes),
		ClientID:  at.ClientID,
		TokenType: domain.TokenTypeBearer,
		Exp:       at.ExpiresAt.Unix(),
		Iat:       at.CreatedAt.Unix(),
	}

	if at.HasUser() {
		resp.Sub = at.UserID
		user, err := s.users.FindByID(ctx, at.UserID)
		switch {
		case err != nil:
			s.logger.Warn(ctx, "Introspection could not resolve token user", applog.Fields{
				"user_id": at.UserID,
				"error":   err.Error(),
			})
		case user != nil:
			resp.Username = user.Username
			if resp.Username == "" {
				resp.Username = user.Email
			}
		}
	}

	return resp
}

// ValidateAccessToken resolves a bearer token for resource endpoints.
func (s *OAuthService) ValidateAccessToken(ctx context.Context, token string) (*domain.AccessToken, error) {
	return s.access.Validate(ctx, token)
}
