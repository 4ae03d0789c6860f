package services

import (
	"context"

	"go.pilab.hu/shadow-oauth/domain"
	serrors "go.pilab.hu/shadow-oauth/errors"
	"go.pilab.hu/shadow-oauth/internal/metrics"
	applog "go.pilab.hu/shadow-oauth/log"
)

// ClientCredentialsGrantHandler issues user-less access tokens to clients.
// It never issues refresh tokens.
type ClientCredentialsGrantHandler struct {
	grantBase
	scopes *ScopeValidator
	access *AccessTokenService
	logger applog.Logger
}

// NewClientCredentialsGrantHandler creates the client_credentials grant handler.
func NewClientCredentialsGrantHandler(
	authenticator *ClientAuthenticator,
	tx domain.Transactor,
	scopes *ScopeValidator,
	access *AccessTokenService,
	logger applog.Logger,
) *ClientCredentialsGrantHandler {
	return &ClientCredentialsGrantHandler{
		grantBase: grantBase{authenticator: authenticator, tx: tx, grantType: domain.GrantTypeClientCredentials},
		scopes:    scopes,
		access:    access,
		logger:    logger,
	}
}

func (h *ClientCredentialsGrantHandler) Handle(ctx context.Context, req *TokenRequest) (*TokenResponse, error) {
	client, err := h.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}

	requested := ParseScopes(req.Scope)
	if len(requested) == 0 {
		return nil, serrors.NewInvalidRequest("Scope parameter is required for client_credentials grant")
	}

	scopes, err := h.scopes.Validate(ctx, requested, client.AllowedScopes)
	if err != nil {
		return nil, err
	}

	var at *domain.AccessToken
	err = h.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		at, err = h.access.Create(ctx, client, scopes, "")
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.TokensIssuedTotal.WithLabelValues(string(h.grantType), domain.TokenTypeAccessToken).Inc()
	h.logger.Debug(ctx, "Client credentials token issued", applog.Fields{"client_id": client.ClientID})

	return newTokenResponse(at, nil), nil
}
