package services

import (
	"context"
	"slices"

	"go.pilab.hu/shadow-oauth/domain"
	serrors "go.pilab.hu/shadow-oauth/errors"
	"go.pilab.hu/shadow-oauth/internal/metrics"
	applog "go.pilab.hu/shadow-oauth/log"
)

// AuthorizationCodeGrantHandler exchanges an authorization code for tokens.
type AuthorizationCodeGrantHandler struct {
	grantBase
	codes   *AuthorizationCodeService
	access  *AccessTokenService
	refresh *RefreshTokenService
	logger  applog.Logger
}

// NewAuthorizationCodeGrantHandler creates the authorization_code grant handler.
func NewAuthorizationCodeGrantHandler(
	authenticator *ClientAuthenticator,
	tx domain.Transactor,
	codes *AuthorizationCodeService,
	access *AccessTokenService,
	refresh *RefreshTokenService,
	logger applog.Logger,
) *AuthorizationCodeGrantHandler {
	return &AuthorizationCodeGrantHandler{
		grantBase: grantBase{authenticator: authenticator, tx: tx, grantType: domain.GrantTypeAuthorizationCode},
		codes:     codes,
		access:    access,
		refresh:   refresh,
		logger:    logger,
	}
}

// Handle issues an access token for the code's user and scopes, plus a
// refresh token when offline_access was granted.
func (h *AuthorizationCodeGrantHandler) Handle(ctx context.Context, req *TokenRequest) (*TokenResponse, error) {
	client, err := h.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.Code == "" {
		return nil, serrors.NewInvalidRequest("Authorization code is required")
	}
	if req.RedirectURI == "" {
		return nil, serrors.NewInvalidRequest("Redirect URI is required")
	}

	var (
		at *domain.AccessToken
		rt *domain.RefreshToken
	)
	err = h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		code, err := h.codes.ValidateAndConsume(ctx, req.Code, client, req.RedirectURI, req.CodeVerifier)
		if err != nil {
			return err
		}

		at, err = h.access.Create(ctx, client, code.Scopes, code.UserID)
		if err != nil {
			return err
		}

		if slices.Contains(code.Scopes, domain.ScopeOfflineAccess) {
			rt, err = h.refresh.Create(ctx, client, code.UserID, code.Scopes)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TokensIssuedTotal.WithLabelValues(string(h.grantType), domain.TokenTypeAccessToken).Inc()
	if rt != nil {
		metrics.TokensIssuedTotal.WithLabelValues(string(h.grantType), domain.TokenTypeRefreshToken).Inc()
	}
	h.logger.Debug(ctx, "Authorization code exchanged", applog.Fields{
		"client_id": client.ClientID,
		"user_id":   at.UserID,
		"refresh":   rt != nil,
	})

	return newTokenResponse(at, rt), nil
}
